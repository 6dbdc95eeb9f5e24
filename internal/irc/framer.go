package irc

import (
	"bytes"
	"strings"
)

// MaxPartial bounds the bytes held for one unterminated line.
const MaxPartial = 64 << 10

// Framer buffers raw transport bytes and splits them into CRLF-terminated lines.
// Any trailing partial line is kept until the next Feed, up to MaxPartial bytes.
type Framer struct {
	buf     []byte
	dropped int
	skip    bool // discarding the rest of an oversized line
}

var crlf = []byte("\r\n")

// Feed appends chunk to the internal buffer and returns every complete line in arrival order,
// with the terminator stripped. Invalid UTF-8 sequences are dropped; empty lines are skipped.
func (f *Framer) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)
	var lines []string
	for {
		i := bytes.Index(f.buf, crlf)
		if i < 0 {
			break
		}
		if f.skip {
			f.skip = false
		} else if i > 0 {
			lines = append(lines, strings.ToValidUTF8(string(f.buf[:i]), ""))
		}
		f.buf = f.buf[i+len(crlf):]
	}
	// release the backing array once fully drained
	if len(f.buf) == 0 {
		f.buf = nil
	}
	if len(f.buf) > MaxPartial {
		f.buf = nil
		if !f.skip {
			f.dropped++
		}
		f.skip = true
	}
	return lines
}

// Dropped counts partial lines discarded for exceeding MaxPartial.
func (f *Framer) Dropped() int { return f.dropped }

// Pending reports how many bytes of an incomplete line are buffered.
func (f *Framer) Pending() int { return len(f.buf) }

// Reset drops any buffered partial line.
func (f *Framer) Reset() {
	f.buf = nil
	f.skip = false
}
