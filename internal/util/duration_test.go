package util

import (
	"testing"
	"time"
)

func TestElapsed(t *testing.T) {
	cases := map[int64]string{
		-5:     "0s",
		0:      "0s",
		59:     "59s",
		61:     "1m 1s",
		3600:   "1h 0m 0s",
		90061:  "1d 1h 1m 1s",
		172800: "2d 0h 0m 0s",
	}
	for in, want := range cases {
		if got := Elapsed(in); got != want {
			t.Fatalf("Elapsed(%d)=%q want %q", in, got, want)
		}
	}
}

func TestUptime(t *testing.T) {
	if got := Uptime(26*time.Hour + 3*time.Minute + 4*time.Second); got != "26h 3m 4s" {
		t.Fatalf("got %q", got)
	}
}

func TestCountdown(t *testing.T) {
	if Countdown(0) != "" {
		t.Fatalf("expected empty countdown")
	}
	if got := Countdown(86400 + 1); got != "1 day, 1 second" {
		t.Fatalf("got %q", got)
	}
	if got := Countdown(2*7*86400 + 2*3600 + 120); got != "2 weeks, 2 hours, 2 minutes" {
		t.Fatalf("got %q", got)
	}
	if got := Countdown(monthSeconds + 60); got != "1 month, 1 minute" {
		t.Fatalf("got %q", got)
	}
}

func TestDateLabel(t *testing.T) {
	d := time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC)
	if got := DateLabel(d); got != "December 4th, 2025" {
		t.Fatalf("got %q", got)
	}
	if got := DateLabel(time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)); got != "March 22nd, 2024" {
		t.Fatalf("got %q", got)
	}
	if got := DateLabel(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)); got != "March 11th, 2024" {
		t.Fatalf("got %q", got)
	}
}
