package commands

import (
	"context"
	"sort"
	"strconv"

	"github.com/park285/chr0n-bot/internal/state"
	"github.com/park285/chr0n-bot/internal/util"
)

// Entry is one leaderboard row.
type Entry struct {
	Nick    string
	Elapsed int64
}

// Leaderboard orders every identity by seconds since its last action, longest first:
// the earliest timestamp leads. Ties are broken by nick.
func Leaderboard(s *state.Snapshot, now int64) []Entry {
	out := make([]Entry, 0, len(s.Timestamps))
	for nick, ts := range s.Timestamps {
		out = append(out, Entry{Nick: nick, Elapsed: now - ts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Elapsed != out[j].Elapsed {
			return out[i].Elapsed > out[j].Elapsed
		}
		return out[i].Nick < out[j].Nick
	})
	return out
}

// rankThresholds are the upper bounds (seconds) of each leaderboard rank but the last.
var rankThresholds = []int64{3600, 86400, 7 * 86400, 30 * 86400}

func (b *Bot) rankLabel(elapsed int64) string {
	ranks := b.Catalog.List("top.ranks")
	if len(ranks) == 0 {
		return ""
	}
	idx := sort.Search(len(rankThresholds), func(i int) bool { return elapsed < rankThresholds[i] })
	if idx >= len(ranks) {
		idx = len(ranks) - 1
	}
	return ranks[idx]
}

func (b *Bot) leaderboard(_ context.Context, inv *Invocation) ([]string, error) {
	n := b.LeaderboardSize
	if raw := inv.Arg(0); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return nil, b.usage("top.usage", inv.Nick, nil)
		}
		n = v
	}
	if n > maxLeaderboard {
		n = maxLeaderboard
	}

	var entries []Entry
	b.Store.View(func(s *state.Snapshot) { entries = Leaderboard(s, inv.Now.Unix()) })
	if len(entries) == 0 {
		return []string{b.text("top.empty", nil)}, nil
	}
	if len(entries) > n {
		entries = entries[:n]
	}

	lines := []string{b.text("top.header", nil)}
	for i, e := range entries {
		lines = append(lines, b.text("top.row", map[string]any{
			"Pos": i + 1, "Who": e.Nick, "Elapsed": util.Elapsed(e.Elapsed), "Rank": b.rankLabel(e.Elapsed),
		}))
	}
	return lines, nil
}
