package commands

import (
	"context"
	"strconv"

	"github.com/park285/chr0n-bot/internal/state"
)

// crapsOf returns a copy of nick's game record, or the default record for a new identity.
func crapsOf(s *state.Snapshot, nick string) state.CrapsState {
	if g, ok := s.Craps[nick]; ok && g != nil {
		return *g
	}
	return state.CrapsState{Chips: state.DefaultChips}
}

func (b *Bot) crapsData(nick string, g state.CrapsState) map[string]any {
	point := "off"
	if g.Point != 0 {
		point = strconv.Itoa(g.Point)
	}
	return map[string]any{
		"Nick": nick, "Prefix": b.router.Prefix(),
		"Chips": g.Chips, "Bet": g.Bet, "Point": point, "Wins": g.Wins, "Losses": g.Losses,
	}
}

func (b *Bot) craps(_ context.Context, inv *Invocation) ([]string, error) {
	var g state.CrapsState
	b.Store.View(func(s *state.Snapshot) { g = crapsOf(s, inv.Nick) })
	return []string{b.text("craps.status", b.crapsData(inv.Nick, g))}, nil
}

// bet handles "bet <chips>". The amount must be numeric and within the balance.
func (b *Bot) bet(ctx context.Context, inv *Invocation) ([]string, error) {
	var cur state.CrapsState
	b.Store.View(func(s *state.Snapshot) { cur = crapsOf(s, inv.Nick) })

	n, err := strconv.Atoi(inv.Arg(0))
	if err != nil || n < 1 {
		return nil, b.usage("craps.badbet", inv.Nick, map[string]any{"Chips": cur.Chips})
	}
	if n > cur.Chips {
		return nil, b.usage("craps.broke", inv.Nick, map[string]any{"Chips": cur.Chips})
	}
	if cur.Point != 0 {
		return []string{b.text("craps.inplay", b.crapsData(inv.Nick, cur))}, nil
	}

	var after state.CrapsState
	if err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		g := s.CrapsFor(inv.Nick)
		if g.Point != 0 || n > g.Chips {
			return b.usage("craps.badbet", inv.Nick, map[string]any{"Chips": g.Chips})
		}
		g.Bet = n
		after = *g
		return nil
	}); err != nil {
		return nil, err
	}
	return []string{b.text("craps.bet", b.crapsData(inv.Nick, after))}, nil
}

// roll throws two dice for the pass line. Come-out: 7 or 11 wins, 2, 3 or 12 loses, anything
// else sets the point. With a point: the point wins, 7 loses. A player left with no chips is
// rebought to the starting balance.
func (b *Bot) roll(ctx context.Context, inv *Invocation) ([]string, error) {
	var cur state.CrapsState
	b.Store.View(func(s *state.Snapshot) { cur = crapsOf(s, inv.Nick) })
	if cur.Bet == 0 {
		return []string{b.text("craps.nobet", b.crapsData(inv.Nick, cur))}, nil
	}

	var lines []string
	err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		g := s.CrapsFor(inv.Nick)
		d1, d2 := b.Intn(6)+1, b.Intn(6)+1
		sum := d1 + d2

		key := "craps.roll"
		switch {
		case g.Point == 0 && (sum == 7 || sum == 11):
			key = "craps.win"
		case g.Point == 0 && (sum == 2 || sum == 3 || sum == 12):
			key = "craps.lose"
		case g.Point == 0:
			g.Point = sum
			key = "craps.point"
		case sum == g.Point:
			key = "craps.win"
		case sum == 7:
			key = "craps.lose"
		}

		switch key {
		case "craps.win":
			g.Chips += g.Bet
			g.Wins++
			g.Bet, g.Point = 0, 0
		case "craps.lose":
			g.Chips -= g.Bet
			g.Losses++
			g.Bet, g.Point = 0, 0
		}

		data := b.crapsData(inv.Nick, *g)
		data["D1"], data["D2"], data["Sum"] = d1, d2, sum
		if g.Point != 0 {
			data["Point"] = g.Point
		}
		lines = append(lines, b.text(key, data))

		if g.Chips <= 0 {
			g.Chips = state.DefaultChips
			lines = append(lines, b.text("craps.rebuy", b.crapsData(inv.Nick, *g)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}
