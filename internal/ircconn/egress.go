package ircconn

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/park285/chr0n-bot/internal/irc"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Egress serializes outgoing lines onto the transport. Writes are mutex-guarded so the read
// loop and the announcer can both send.
type Egress struct {
	mu     sync.Mutex
	w      io.Writer
	dryrun bool
	logger *zap.Logger
	onSend func()
}

// NewEgress wraps w. In dry-run mode lines are logged and never written.
func NewEgress(w io.Writer, dryrun bool, logger *zap.Logger) *Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Egress{w: w, dryrun: dryrun, logger: logger}
}

// SendText emits PRIVMSG target :text. Embedded CR/LF are flattened to spaces.
func (e *Egress) SendText(ctx context.Context, target, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(target) == "" {
		return errors.New("empty target")
	}
	return e.SendRaw(irc.Privmsg(target, flatten(text)))
}

// SendRaw writes line followed by CRLF.
func (e *Egress) SendRaw(line string) error {
	if e == nil || e.w == nil {
		return errors.New("egress not available")
	}
	line = strings.TrimRight(line, "\r\n")
	if e.dryrun {
		e.logger.Info("irc_send_dryrun", zap.String("line", line))
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := e.w.(writeDeadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(writeTimeout))
	}
	if _, err := io.WriteString(e.w, line+"\r\n"); err != nil {
		return err
	}
	e.logger.Debug("irc_send", zap.String("line", line))
	if e.onSend != nil {
		e.onSend()
	}
	return nil
}

func flatten(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
