package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/park285/chr0n-bot/internal/state"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestParsePrefixAndFold(t *testing.T) {
	r := NewRouter("!", &fakeReplier{})
	verb, args, ok := r.Parse("!TOKE  now please")
	if !ok || verb != "toke" || len(args) != 2 || args[0] != "now" {
		t.Fatalf("got %q %v %v", verb, args, ok)
	}
	if _, _, ok := r.Parse("toke"); ok {
		t.Fatalf("text without prefix parsed")
	}
	if _, _, ok := r.Parse("!   "); ok {
		t.Fatalf("bare prefix parsed")
	}
}

func TestCounterAccumulation(t *testing.T) {
	h := newHarness(t, base)
	verbs := []string{"toke", "pass", "joint", "dab", "blunt", "bong", "vape", "doombong", "olddoombong", "kylebong", "TOKE"}
	for i, v := range verbs {
		h.now = base.Add(time.Duration(i) * time.Minute)
		if out := h.say("alice", "#weed", "!"+v); len(out) != 0 {
			t.Fatalf("silent tracker %q replied: %v", v, out)
		}
	}
	h.snapshot(func(s *state.Snapshot) {
		if got := s.Counters["alice"]; got != len(verbs) {
			t.Fatalf("counter=%d want %d", got, len(verbs))
		}
		if got := len(s.History["alice"]); got != len(verbs) {
			t.Fatalf("history=%d", got)
		}
		if got := s.LongestGap["alice"]; got != 60 {
			t.Fatalf("longest gap=%d", got)
		}
	})
	if h.backend.Saves() != len(verbs) {
		t.Fatalf("saves=%d want one per command", h.backend.Saves())
	}
}

func TestUnknownAndUnprefixedIgnored(t *testing.T) {
	h := newHarness(t, base)
	if out := h.say("alice", "#weed", "!frobnicate"); len(out) != 0 {
		t.Fatalf("unknown verb replied: %v", out)
	}
	if out := h.say("alice", "#weed", "toke"); len(out) != 0 {
		t.Fatalf("unprefixed text replied: %v", out)
	}
	if out := h.say("", "#weed", "!ping"); len(out) != 0 {
		t.Fatalf("message without nick replied: %v", out)
	}
	if h.backend.Saves() != 0 {
		t.Fatalf("ignored input saved state")
	}
}

func TestPrivateMessagesOnlyTimezone(t *testing.T) {
	h := newHarness(t, base)
	if out := h.say("alice", "Chr0n-bot", "!ping"); len(out) != 0 {
		t.Fatalf("private ping answered: %v", out)
	}
	out := h.say("alice", "Chr0n-bot", "!tz Tokyo")
	if len(out) != 1 || out[0].target != "alice" || !strings.Contains(out[0].text, "Asia/Tokyo") {
		t.Fatalf("private tz reply: %+v", out)
	}
}

func TestAnnouncingTrackerAndPing(t *testing.T) {
	h := newHarness(t, base)
	out := h.say("bob", "#weed", "!blaze")
	if len(out) != 1 || out[0].text != "Fire is going to get you higher, blaze it till you phaze it." || out[0].target != "#weed" {
		t.Fatalf("blaze reply: %+v", out)
	}
	h.snapshot(func(s *state.Snapshot) {
		if s.Counters["bob"] != 1 {
			t.Fatalf("blaze did not track")
		}
	})
	if got := texts(h.say("bob", "#weed", "!ping")); got != "bob: Pong!" {
		t.Fatalf("ping reply %q", got)
	}
	if got := texts(h.say("bob", "#weed", "!uptime")); got != "bob: Uptime: 1h 30m 0s" {
		t.Fatalf("uptime reply %q", got)
	}
	if got := texts(h.say("bob", "#weed", "!help")); !strings.Contains(got, "!churchbong") || !strings.Contains(got, "!kylebong") {
		t.Fatalf("help reply %q", got)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	h := newHarness(t, base)
	for i, nick := range []string{"a", "b", "c"} {
		h.now = base.Add(time.Duration(i) * time.Hour)
		h.say(nick, "#weed", "!toke")
	}
	h.now = base.Add(10 * time.Hour)

	h.snapshot(func(s *state.Snapshot) {
		got := Leaderboard(s, h.now.Unix())
		if len(got) != 3 || got[0].Nick != "a" || got[1].Nick != "b" || got[2].Nick != "c" {
			t.Fatalf("order %+v", got)
		}
	})

	out := h.say("z", "#weed", "!top 2")
	if len(out) != 3 {
		t.Fatalf("want header + 2 rows, got %v", texts(out))
	}
	if !strings.HasPrefix(out[1].text, "1. a: 10h 0m 0s") || !strings.HasPrefix(out[2].text, "2. b: 9h 0m 0s") {
		t.Fatalf("rows %q", texts(out))
	}
	if !strings.Contains(out[1].text, "(Sober-ish)") {
		t.Fatalf("rank label missing: %q", out[1].text)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	h := newHarness(t, base)
	if got := texts(h.say("z", "#weed", "!leaderboard")); got != "No tokes recorded yet." {
		t.Fatalf("got %q", got)
	}
}

func TestUsageErrorsDoNotMutate(t *testing.T) {
	h := newHarness(t, base)
	for _, cmd := range []string{"!top abc", "!top 0", "!bet lots", "!bet 0", "!bet 1000", "!flip edge", "!tb maybe", "!pi forward"} {
		out := h.say("alice", "#weed", cmd)
		if len(out) != 1 || !strings.Contains(out[0].text, "Usage") {
			t.Fatalf("%s: want one usage line, got %q", cmd, texts(out))
		}
	}
	if h.backend.Saves() != 0 {
		t.Fatalf("usage errors saved state %d times", h.backend.Saves())
	}
	h.snapshot(func(s *state.Snapshot) {
		if _, ok := s.Craps["alice"]; ok {
			t.Fatalf("bad bet created a game record")
		}
	})
}

func TestHandlerErrorIsNotEchoed(t *testing.T) {
	rep := &fakeReplier{}
	r := NewRouter("!", rep)
	r.Register("boom", func(context.Context, *Invocation) ([]string, error) {
		return []string{"partial"}, errors.New("internal detail")
	}, nil)
	err := r.HandleMessage(context.Background(), ircMsg("x", "#a", "!boom"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(rep.take()) != 0 {
		t.Fatalf("internal error leaked to channel")
	}
}

func TestUsageErrorWraps(t *testing.T) {
	if !errors.Is(Usage("x"), ErrUsage) {
		t.Fatalf("Usage should wrap ErrUsage")
	}
}
