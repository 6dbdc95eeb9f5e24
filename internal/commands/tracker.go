package commands

import (
	"context"
	"strings"
	"time"

	"github.com/park285/chr0n-bot/internal/state"
	"github.com/park285/chr0n-bot/internal/util"
)

// track is the silent tracker shared by toke and its aliases.
func (b *Bot) track(ctx context.Context, inv *Invocation) ([]string, error) {
	return nil, b.Store.Update(ctx, func(s *state.Snapshot) error {
		s.RecordAction(inv.Nick, inv.Now.Unix())
		return nil
	})
}

func (b *Bot) blaze(ctx context.Context, inv *Invocation) ([]string, error) {
	if err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		s.RecordAction(inv.Nick, inv.Now.Unix())
		return nil
	}); err != nil {
		return nil, err
	}
	return []string{b.text("blaze", nil)}, nil
}

// churchbong reports the time since the last action, scores the precision window and then
// records the action. "420" as first argument adds a random fact.
func (b *Bot) churchbong(ctx context.Context, inv *Invocation) ([]string, error) {
	var replies []string
	now := inv.Now.Unix()
	err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		data := map[string]any{"Nick": inv.Nick}
		if prev, ok := s.Timestamps[inv.Nick]; ok {
			data["Elapsed"] = util.Elapsed(now - prev)
			replies = append(replies, b.text("churchbong.since", data))
		} else {
			replies = append(replies, b.text("churchbong.first", data))
		}

		loc, zone := locationFor(s, inv.Nick)
		if offset, hit := PrecisionOffset(inv.Now, loc); hit {
			res := ApplyPrecision(s.PrecisionFor(inv.Nick), now, offset)
			replies = append(replies, b.precisionLines(inv.Nick, zone, res)...)
		}

		s.RecordAction(inv.Nick, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if inv.Arg(0) == "420" {
		replies = append(replies, b.text("churchbong.fact", map[string]any{"Fact": b.Catalog.Pick("facts420", b.Intn)}))
	}
	return replies, nil
}

func (b *Bot) precisionLines(nick, zone string, res PrecisionResult) []string {
	rec := res.Record
	if !res.Counted {
		return []string{b.text("precision.repeat", map[string]any{"Nick": nick, "Streak": rec.Streak})}
	}
	return []string{
		b.text("precision.hit", map[string]any{"Nick": nick, "Rank": res.Rank, "Offset": res.Offset, "Zone": zone}),
		b.text("precision.record", map[string]any{
			"Nick": nick, "Best": rec.BestOffset, "Total": rec.Total, "Perfect": rec.Perfect, "Streak": rec.Streak,
		}),
	}
}

// toggle handles "tb [on|off]".
func (b *Bot) toggle(ctx context.Context, inv *Invocation) ([]string, error) {
	data := map[string]any{"Nick": inv.Nick}
	switch strings.ToLower(inv.Arg(0)) {
	case "":
		var on bool
		b.Store.View(func(s *state.Snapshot) { on = s.TBEnabled[inv.Nick] })
		data["State"] = onOff(on)
		return []string{b.text("tb.status", data)}, nil
	case "on", "off":
		on := strings.EqualFold(inv.Arg(0), "on")
		if err := b.Store.Update(ctx, func(s *state.Snapshot) error {
			s.TBEnabled[inv.Nick] = on
			return nil
		}); err != nil {
			return nil, err
		}
		data["State"] = onOff(on)
		return []string{b.text("tb.set", data)}, nil
	default:
		return nil, b.usage("tb.usage", inv.Nick, nil)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (b *Bot) stats(_ context.Context, inv *Invocation) ([]string, error) {
	var line string
	b.Store.View(func(s *state.Snapshot) {
		count, ok := s.Counters[inv.Nick]
		if !ok {
			line = b.text("stats.none", map[string]any{"Nick": inv.Nick})
			return
		}
		loc, _ := locationFor(s, inv.Nick)
		longest := "n/a"
		if g, ok := s.LongestGap[inv.Nick]; ok {
			longest = util.Elapsed(g)
		}
		hist := s.History[inv.Nick]
		first, last := "n/a", "n/a"
		if len(hist) > 0 {
			first = formatStamp(hist[0], loc)
			last = formatStamp(hist[len(hist)-1], loc)
		}
		line = b.text("stats.line", map[string]any{
			"Nick": inv.Nick, "Count": count, "Longest": longest, "Entries": len(hist), "First": first, "Last": last,
		})
	})
	return []string{line}, nil
}

func formatStamp(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format("2006-01-02 15:04 MST")
}
