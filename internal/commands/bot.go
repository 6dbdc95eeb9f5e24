package commands

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/park285/chr0n-bot/internal/msgcat"
	"github.com/park285/chr0n-bot/internal/state"
	"github.com/park285/chr0n-bot/internal/tzlookup"
)

const maxLeaderboard = 20

// Deps are the collaborators shared by the built-in handlers.
type Deps struct {
	Store   *state.Store
	Catalog *msgcat.Catalog
	Zones   *tzlookup.Table

	Started   time.Time
	Countdown time.Time

	LeaderboardSize int
	DigitChunk      int
	DigitMilestone  int

	// Intn returns a value in [0,n); rand.IntN when nil.
	Intn func(n int) int
}

// Bot implements the built-in verbs over Deps.
type Bot struct {
	Deps
	router *Router
}

// Install registers every built-in verb on r.
func Install(r *Router, d Deps) *Bot {
	if d.Intn == nil {
		d.Intn = rand.IntN
	}
	if d.Catalog == nil {
		d.Catalog = msgcat.MustDefault()
	}
	if d.LeaderboardSize <= 0 {
		d.LeaderboardSize = 5
	}
	if d.DigitChunk <= 0 {
		d.DigitChunk = 5
	}
	if d.DigitMilestone <= 0 {
		d.DigitMilestone = 50
	}
	b := &Bot{Deps: d, router: r}

	r.Register("help", b.help, nil)
	r.Register("ping", b.ping, nil)
	r.Register("about", b.about, nil)
	r.Register("uptime", b.uptime, nil)
	r.Register("gentoo", b.gentoo, nil)
	r.Register("time", b.countdown, nil)
	r.Register("churchbong", b.churchbong, nil)
	r.Register("toke", b.track, []string{"pass", "joint", "dab", "blunt", "bong", "vape", "doombong", "olddoombong", "kylebong"})
	r.Register("blaze", b.blaze, nil)
	r.Register("tb", b.toggle, nil)
	r.Register("stats", b.stats, nil)
	r.Register("tz", b.timezone, nil, AllowPrivate())
	r.Register("top", b.leaderboard, []string{"leaderboard"})
	r.Register("pi", b.digits, nil)
	r.Register("flip", b.flip, nil)
	r.Register("craps", b.craps, nil)
	r.Register("bet", b.bet, nil)
	r.Register("roll", b.roll, nil)
	return b
}

func (b *Bot) text(key string, data map[string]any) string {
	return b.Catalog.Text(key, data)
}

// usage renders a catalog usage line for nick as a UsageError.
func (b *Bot) usage(key, nick string, extra map[string]any) error {
	data := map[string]any{"Nick": nick, "Prefix": b.router.Prefix()}
	for k, v := range extra {
		data[k] = v
	}
	return Usage(b.text(key, data))
}

// locationFor returns the identity's stored zone or process-local time.
func locationFor(s *state.Snapshot, nick string) (*time.Location, string) {
	if name := strings.TrimSpace(s.Timezones[nick]); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, name
		}
	}
	return time.Local, time.Local.String()
}
