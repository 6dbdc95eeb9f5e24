package commands

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/chr0n-bot/internal/irc"
	"github.com/park285/chr0n-bot/internal/state"
	"github.com/park285/chr0n-bot/internal/tzlookup"
)

type sentLine struct{ target, text string }

type fakeReplier struct {
	mu  sync.Mutex
	out []sentLine
}

func (f *fakeReplier) SendText(_ context.Context, target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, sentLine{target: target, text: text})
	return nil
}

// take returns and clears the captured lines.
func (f *fakeReplier) take() []sentLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.out
	f.out = nil
	return out
}

type harness struct {
	t       *testing.T
	router  *Router
	replies *fakeReplier
	store   *state.Store
	backend *state.MemoryBackend
	now     time.Time
	rolls   []int
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	h := &harness{t: t, replies: &fakeReplier{}, now: now, backend: state.NewMemoryBackend()}
	store, err := state.Open(context.Background(), h.backend)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	zones, err := tzlookup.Default()
	if err != nil {
		t.Fatalf("zones: %v", err)
	}
	h.store = store
	h.router = NewRouter("!", h.replies, WithClock(func() time.Time { return h.now }))
	Install(h.router, Deps{
		Store:     store,
		Zones:     zones,
		Started:   now.Add(-90 * time.Minute),
		Countdown: time.Date(2025, 12, 4, 0, 0, 0, 0, time.Local),
		Intn:      h.intn,
	})
	return h
}

// intn pops the next scripted value, or 0 when the script is empty.
func (h *harness) intn(n int) int {
	if len(h.rolls) == 0 {
		return 0
	}
	v := h.rolls[0]
	h.rolls = h.rolls[1:]
	return v % n
}

func (h *harness) say(nick, target, text string) []sentLine {
	h.t.Helper()
	msg := &irc.Message{Nick: nick, Prefix: nick + "!u@host", Command: irc.CmdPrivmsg, Target: target, Text: text}
	if err := h.router.HandleMessage(context.Background(), msg); err != nil {
		h.t.Fatalf("handle %q: %v", text, err)
	}
	return h.replies.take()
}

func (h *harness) snapshot(fn func(s *state.Snapshot)) {
	h.store.View(fn)
}

func texts(lines []sentLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

func ircMsg(nick, target, text string) *irc.Message {
	return &irc.Message{Nick: nick, Prefix: nick + "!u@host", Command: irc.CmdPrivmsg, Target: target, Text: text}
}
