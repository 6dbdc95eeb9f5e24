package commands

import (
	"context"
	"strings"

	"github.com/park285/chr0n-bot/internal/state"
)

// DigitStep is the outcome of one digit-collection turn.
type DigitStep struct {
	From, To  int // 1-based inclusive positions revealed
	Digits    string
	Progress  int
	Milestone bool
	Wrapped   bool
}

// AdvanceDigits reveals the next chunk after progress. The milestone fires when progress
// crosses a multiple of milestone; after the last digit the cursor restarts at zero.
func AdvanceDigits(digits string, progress, chunk, milestone int) DigitStep {
	var st DigitStep
	if progress < 0 {
		progress = 0
	}
	if progress >= len(digits) {
		progress = 0
		st.Wrapped = true
	}
	end := progress + chunk
	if end > len(digits) {
		end = len(digits)
	}
	st.From, st.To = progress+1, end
	st.Digits = digits[progress:end]
	st.Progress = end
	st.Milestone = milestone > 0 && end/milestone > progress/milestone
	return st
}

// digits handles "pi" and "pi status".
func (b *Bot) digits(ctx context.Context, inv *Invocation) ([]string, error) {
	data := map[string]any{"Nick": inv.Nick}
	switch strings.ToLower(inv.Arg(0)) {
	case "status":
		b.Store.View(func(s *state.Snapshot) { data["Count"] = s.DigitProgress[inv.Nick] })
		return []string{b.text("pi.status", data)}, nil
	case "":
	default:
		return nil, b.usage("pi.usage", inv.Nick, nil)
	}

	var st DigitStep
	if err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		st = AdvanceDigits(PiDigits(), s.DigitProgress[inv.Nick], b.DigitChunk, b.DigitMilestone)
		s.DigitProgress[inv.Nick] = st.Progress
		return nil
	}); err != nil {
		return nil, err
	}

	var lines []string
	if st.Wrapped {
		lines = append(lines, b.text("pi.wrap", data))
	}
	data["From"], data["To"], data["Digits"] = st.From, st.To, st.Digits
	lines = append(lines, b.text("pi.reveal", data))
	if st.Milestone {
		data["Count"] = st.Progress
		lines = append(lines, b.text("pi.milestone", data))
	}
	return lines, nil
}

// flip handles "flip heads|tails". Only a correct call mutates state.
func (b *Bot) flip(ctx context.Context, inv *Invocation) ([]string, error) {
	var call string
	switch strings.ToLower(inv.Arg(0)) {
	case "heads", "h":
		call = "Heads"
	case "tails", "t":
		call = "Tails"
	default:
		return nil, b.usage("flip.usage", inv.Nick, nil)
	}
	side := "Heads"
	if b.Intn(2) == 1 {
		side = "Tails"
	}

	data := map[string]any{"Nick": inv.Nick, "Side": side}
	if side != call {
		b.Store.View(func(s *state.Snapshot) { data["Won"] = s.RoundsWon[inv.Nick] })
		return []string{b.text("flip.lose", data)}, nil
	}
	if err := b.Store.Update(ctx, func(s *state.Snapshot) error {
		s.RoundsWon[inv.Nick]++
		data["Won"] = s.RoundsWon[inv.Nick]
		return nil
	}); err != nil {
		return nil, err
	}
	return []string{b.text("flip.win", data)}, nil
}
