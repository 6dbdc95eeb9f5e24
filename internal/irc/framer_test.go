package irc

import (
	"reflect"
	"testing"
)

const stream = ":srv 001 bot :Welcome\r\nPING :server123\r\n:alice!a@h PRIVMSG #chan :!toke\r\n\r\n:bob!b@h PRIVMSG #chan :héllo\r\n"

func TestFramerWholeStream(t *testing.T) {
	var f Framer
	got := f.Feed([]byte(stream))
	want := []string{
		":srv 001 bot :Welcome",
		"PING :server123",
		":alice!a@h PRIVMSG #chan :!toke",
		":bob!b@h PRIVMSG #chan :héllo",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines mismatch:\n got=%q\nwant=%q", got, want)
	}
	if f.Pending() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", f.Pending())
	}
}

func TestFramerChunkBoundaries(t *testing.T) {
	var whole Framer
	want := whole.Feed([]byte(stream))

	// every single split point, including inside CRLF and inside the multi-byte rune
	for cut := 0; cut <= len(stream); cut++ {
		var f Framer
		got := append(f.Feed([]byte(stream[:cut])), f.Feed([]byte(stream[cut:]))...)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("cut=%d: got=%q want=%q", cut, got, want)
		}
	}

	// byte-at-a-time
	var f Framer
	var got []string
	for i := 0; i < len(stream); i++ {
		got = append(got, f.Feed([]byte{stream[i]})...)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("byte feed: got=%q want=%q", got, want)
	}
}

func TestFramerRetainsPartial(t *testing.T) {
	var f Framer
	if lines := f.Feed([]byte("PING :abc")); len(lines) != 0 {
		t.Fatalf("expected no lines, got %q", lines)
	}
	if f.Pending() != len("PING :abc") {
		t.Fatalf("unexpected pending=%d", f.Pending())
	}
	lines := f.Feed([]byte("\r\nPI"))
	if len(lines) != 1 || lines[0] != "PING :abc" {
		t.Fatalf("unexpected lines %q", lines)
	}
	if f.Pending() != 2 {
		t.Fatalf("expected 2 pending bytes, got %d", f.Pending())
	}
	f.Reset()
	if f.Pending() != 0 {
		t.Fatalf("reset did not clear buffer")
	}
}

func TestFramerDropsInvalidUTF8(t *testing.T) {
	var f Framer
	lines := f.Feed([]byte(":a!b@c PRIVMSG #x :ok\xff\xfeok\r\n"))
	if len(lines) != 1 || lines[0] != ":a!b@c PRIVMSG #x :okok" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestFramerCapsUnterminatedLine(t *testing.T) {
	var f Framer
	junk := make([]byte, MaxPartial/4)
	for i := range junk {
		junk[i] = 'x'
	}
	for i := 0; i < 4; i++ {
		if got := f.Feed(junk); len(got) != 0 {
			t.Fatalf("unexpected lines %q", got)
		}
	}
	if f.Pending() != MaxPartial || f.Dropped() != 0 {
		t.Fatalf("at the limit: pending=%d dropped=%d", f.Pending(), f.Dropped())
	}
	f.Feed([]byte("y"))
	if f.Pending() != 0 || f.Dropped() != 1 {
		t.Fatalf("past the limit: pending=%d dropped=%d", f.Pending(), f.Dropped())
	}
	f.Feed(junk)
	if f.Dropped() != 1 {
		t.Fatalf("one oversized line counted twice: %d", f.Dropped())
	}
	got := f.Feed([]byte("tail\r\nPING :x\r\n"))
	want := []string{"PING :x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("after overflow got=%q want=%q", got, want)
	}
}
