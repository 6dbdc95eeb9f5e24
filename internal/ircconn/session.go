package ircconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chr0n-bot/internal/irc"
	"github.com/park285/chr0n-bot/internal/obslog"
	"go.uber.org/zap"
)

var (
	// ErrRegistrationFailed is returned when the NICK/USER handshake cannot be written.
	ErrRegistrationFailed = errors.New("irc registration failed")

	errIdle = errors.New("idle timeout")
)

const (
	readBufferSize = 4096
	quitReason     = "Bot shutting down"
)

// MessageHandler receives every PRIVMSG after keep-alive and welcome handling.
type MessageHandler func(ctx context.Context, msg *irc.Message) error

// NickServ holds identity-service credentials. Password empty disables it.
type NickServ struct {
	Service  string
	Account  string
	Password string
	Email    string
	Register bool
}

type Options struct {
	Nick     string
	User     string
	Realname string
	Channels []string
	NickServ NickServ

	// JoinDelay is slept before every JOIN; CredentialDelay after every NickServ line.
	JoinDelay       time.Duration
	CredentialDelay time.Duration
	// IdleTimeout closes the session when nothing is read for that long; 0 waits forever.
	IdleTimeout time.Duration
	DryRun      bool

	OnState func(State)
	OnRecv  func()
	OnSend  func()
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// Session is one live connection. Run drives it from registration to teardown.
type Session struct {
	id      string
	opts    Options
	conn    io.ReadWriteCloser
	egress  *Egress
	handler MessageHandler
	framer  irc.Framer
	logger  *zap.Logger

	state    atomic.Int32
	stopOnce sync.Once
}

// New wraps an already opened transport.
func New(conn io.ReadWriteCloser, opts Options, handler MessageHandler) *Session {
	if opts.User == "" {
		opts.User = opts.Nick
	}
	if opts.Realname == "" {
		opts.Realname = opts.Nick
	}
	if opts.NickServ.Service == "" {
		opts.NickServ.Service = "NickServ"
	}

	id := uuid.NewString()
	logger := obslog.L().With(zap.String("session", id))
	s := &Session{id: id, opts: opts, conn: conn, handler: handler, logger: logger}
	s.egress = NewEgress(conn, opts.DryRun, logger)
	s.egress.onSend = opts.OnSend
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Egress() *Egress { return s.egress }
func (s *Session) State() State    { return State(s.state.Load()) }

func (s *Session) setState(st State) {
	if State(s.state.Swap(int32(st))) == st {
		return
	}
	s.logger.Info("irc_state", zap.Stringer("state", st))
	if s.opts.OnState != nil {
		s.opts.OnState(st)
	}
}

// Run registers, then reads until end-of-stream, a read error or ctx cancellation.
// End-of-stream and cancellation return nil; read failures return an error. The farewell
// is sent and the transport closed in every case.
func (s *Session) Run(ctx context.Context) error {
	defer s.teardown()

	s.setState(StateConnecting)
	if err := s.register(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("irc_interrupt")
			s.teardown()
		case <-done:
		}
	}()

	buf := make([]byte, readBufferSize)
	for {
		if s.opts.IdleTimeout > 0 {
			if d, ok := s.conn.(readDeadliner); ok {
				_ = d.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
			}
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			dropped := s.framer.Dropped()
			for _, line := range s.framer.Feed(buf[:n]) {
				s.handleLine(ctx, line)
			}
			if s.framer.Dropped() > dropped {
				s.logger.Warn("irc_line_overflow", zap.Int("limit", irc.MaxPartial))
			}
		}
		if err == nil {
			continue
		}
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF):
			s.logger.Warn("irc_eof", zap.Int("pending_bytes", s.framer.Pending()))
			return nil
		case isTimeout(err):
			return fmt.Errorf("read: %w", errIdle)
		default:
			return fmt.Errorf("read: %w", err)
		}
	}
}

func (s *Session) register() error {
	if err := s.egress.SendRaw(irc.Nick(s.opts.Nick)); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if err := s.egress.SendRaw(irc.User(s.opts.User, s.opts.Realname)); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	s.logger.Info("irc_register", zap.String("nick", s.opts.Nick))
	return nil
}

// handleLine isolates one line: a panic or handler error is logged and the loop continues.
func (s *Session) handleLine(ctx context.Context, line string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("irc_line_panic", zap.Any("panic", r), zap.String("line", line))
		}
	}()
	if s.opts.OnRecv != nil {
		s.opts.OnRecv()
	}
	s.logger.Debug("irc_recv", zap.String("line", line))

	if irc.IsPing(line) {
		if err := s.egress.SendRaw(irc.PongFor(line)); err != nil {
			s.logger.Warn("irc_pong_failed", zap.Error(err))
		}
		return
	}

	msg := irc.Parse(line)
	if msg == nil {
		return
	}
	switch msg.Command {
	case irc.RplWelcome:
		if s.State() == StateConnecting {
			s.onWelcome(ctx)
		}
	case irc.CmdPrivmsg:
		if s.handler == nil {
			return
		}
		if err := s.handler(ctx, msg); err != nil {
			s.logger.Error("irc_handler_failed", zap.String("nick", msg.Nick), zap.Error(err))
		}
	case irc.CmdError:
		s.logger.Warn("irc_server_error", zap.String("line", line))
	}
}

func (s *Session) onWelcome(ctx context.Context) {
	s.setState(StateRegistered)
	s.identify(ctx)
	for _, ch := range s.opts.Channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		if !sleepCtx(ctx, s.opts.JoinDelay) {
			return
		}
		if err := s.egress.SendRaw(irc.Join(ch)); err != nil {
			s.logger.Error("irc_join_failed", zap.String("channel", ch), zap.Error(err))
			continue
		}
		s.logger.Info("irc_join", zap.String("channel", ch))
	}
	s.setState(StateJoined)
}

func (s *Session) identify(ctx context.Context) {
	ns := s.opts.NickServ
	if ns.Password == "" {
		return
	}
	if ns.Register && ns.Email != "" {
		if err := s.egress.SendText(ctx, ns.Service, "REGISTER "+ns.Password+" "+ns.Email); err != nil {
			s.logger.Warn("nickserv_register_failed", zap.Error(err))
		}
		if !sleepCtx(ctx, s.opts.CredentialDelay) {
			return
		}
	}
	text := "IDENTIFY " + ns.Password
	if ns.Account != "" {
		text = "IDENTIFY " + ns.Account + " " + ns.Password
	}
	if err := s.egress.SendText(ctx, ns.Service, text); err != nil {
		s.logger.Warn("nickserv_identify_failed", zap.Error(err))
	}
	s.logger.Info("nickserv_identify", zap.String("service", ns.Service))
	sleepCtx(ctx, s.opts.CredentialDelay)
}

// teardown sends the farewell once and closes the transport.
func (s *Session) teardown() {
	s.stopOnce.Do(func() {
		if err := s.egress.SendRaw(irc.Quit(quitReason)); err != nil {
			s.logger.Debug("irc_quit_failed", zap.Error(err))
		}
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("irc_close_failed", zap.Error(err))
		}
		s.setState(StateClosed)
		s.logger.Info("irc_disconnected")
	})
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, errIdle) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
