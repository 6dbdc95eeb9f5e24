package commands

import (
	"context"
	"strings"

	"github.com/park285/chr0n-bot/internal/state"
)

// timezone handles "tz [location...]". An unknown location leaves the stored zone untouched.
func (b *Bot) timezone(ctx context.Context, inv *Invocation) ([]string, error) {
	data := map[string]any{"Nick": inv.Nick, "Prefix": b.router.Prefix()}
	if len(inv.Args) == 0 {
		var zone string
		b.Store.View(func(s *state.Snapshot) { zone = s.Timezones[inv.Nick] })
		if zone == "" {
			return []string{b.text("tz.unset", data)}, nil
		}
		data["Zone"] = zone
		return []string{b.text("tz.current", data)}, nil
	}

	query := strings.Join(inv.Args, " ")
	zone, ok := "", false
	if b.Zones != nil {
		zone, ok = b.Zones.Resolve(query)
	}
	if !ok {
		data["Query"] = query
		return []string{b.text("tz.unknown", data)}, nil
	}
	if err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		s.Timezones[inv.Nick] = zone
		return nil
	}); err != nil {
		return nil, err
	}
	data["Zone"] = zone
	return []string{b.text("tz.set", data)}, nil
}
