// Package announce sends 4:20 announcements for every stored timezone whose
// subscribers enabled them.
package announce

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/park285/chr0n-bot/internal/metrics"
	"github.com/park285/chr0n-bot/internal/msgcat"
	"github.com/park285/chr0n-bot/internal/obslog"
	"github.com/park285/chr0n-bot/internal/state"
	"go.uber.org/zap"
)

const defaultInterval = 15 * time.Second

// Sender emits chat text; *ircconn.Egress satisfies it.
type Sender interface {
	SendText(ctx context.Context, target, text string) error
}

type Announcer struct {
	store    *state.Store
	sender   Sender
	channels []string
	catalog  *msgcat.Catalog
	metrics  *metrics.Metrics
	interval time.Duration
	clock    func() time.Time

	// zone -> unix minute of the last announcement; only touched by the Run goroutine
	last map[string]int64
}

type Option func(*Announcer)

func WithInterval(d time.Duration) Option   { return func(a *Announcer) { a.interval = d } }
func WithClock(fn func() time.Time) Option  { return func(a *Announcer) { a.clock = fn } }
func WithMetrics(m *metrics.Metrics) Option { return func(a *Announcer) { a.metrics = m } }
func WithCatalog(c *msgcat.Catalog) Option  { return func(a *Announcer) { a.catalog = c } }

func New(store *state.Store, sender Sender, channels []string, opts ...Option) *Announcer {
	a := &Announcer{
		store:    store,
		sender:   sender,
		channels: channels,
		interval: defaultInterval,
		clock:    time.Now,
		last:     make(map[string]int64),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.catalog == nil {
		a.catalog = msgcat.MustDefault()
	}
	return a
}

// Run ticks until ctx is done.
func (a *Announcer) Run(ctx context.Context) error {
	t := time.NewTicker(a.interval)
	defer t.Stop()
	obslog.L().Info("announcer_started", zap.Duration("interval", a.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.Tick(ctx, a.clock())
		}
	}
}

// Tick announces in every zone currently at 4:20 that was not announced this minute and
// returns the number of zones announced.
func (a *Announcer) Tick(ctx context.Context, now time.Time) int {
	groups := a.subscribers()
	zones := make([]string, 0, len(groups))
	for z := range groups {
		zones = append(zones, z)
	}
	sort.Strings(zones)

	minute := now.Unix() / 60
	sent := 0
	for _, zone := range zones {
		loc := time.Local
		if zone != "" {
			l, err := time.LoadLocation(zone)
			if err != nil {
				obslog.L().Warn("announce_bad_zone", zap.String("zone", zone), zap.Error(err))
				continue
			}
			loc = l
		}
		local := now.In(loc)
		if local.Minute() != 20 || (local.Hour() != 4 && local.Hour() != 16) {
			continue
		}
		if a.last[zone] == minute {
			continue
		}
		a.last[zone] = minute

		text := a.catalog.Text("announce.line", map[string]any{"Zone": loc.String(), "Who": strings.Join(groups[zone], ", ")})
		for _, ch := range a.channels {
			if err := a.sender.SendText(ctx, ch, text); err != nil {
				obslog.L().Warn("announce_send_failed", zap.String("channel", ch), zap.Error(err))
			}
		}
		a.metrics.Announced()
		sent++
	}
	return sent
}

// subscribers groups nicks with announcements enabled by stored zone ("" for process-local).
func (a *Announcer) subscribers() map[string][]string {
	groups := make(map[string][]string)
	a.store.View(func(s *state.Snapshot) {
		for nick, on := range s.TBEnabled {
			if !on {
				continue
			}
			zone := strings.TrimSpace(s.Timezones[nick])
			groups[zone] = append(groups[zone], nick)
		}
	})
	for z := range groups {
		sort.Strings(groups[z])
	}
	return groups
}
