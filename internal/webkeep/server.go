// Package webkeep serves the keep-alive HTTP endpoint polled by uptime monitors.
package webkeep

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/park285/chr0n-bot/internal/obslog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

const BotName = "chr0n-bot"

// Status is the body of GET /.
type Status struct {
	Status    string `json:"status"`
	Bot       string `json:"bot"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Uptime    string `json:"uptime,omitempty"`
	IRC       string `json:"irc,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	IRC       string `json:"irc,omitempty"`
}

type Server struct {
	addr    string
	started time.Time
	clock   func() time.Time
	metrics http.Handler
	ircFn   func() string

	srv *fasthttp.Server

	mu sync.Mutex
	ln net.Listener
}

type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithIRCState reports the connection state in / and /health.
func WithIRCState(fn func() string) Option { return func(s *Server) { s.ircFn = fn } }

func WithClock(fn func() time.Time) Option { return func(s *Server) { s.clock = fn } }

func NewServer(addr string, opts ...Option) *Server {
	s := &Server{addr: addr, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.clock()
	var metrics fasthttp.RequestHandler
	if s.metrics != nil {
		metrics = fasthttpadaptor.NewFastHTTPHandler(s.metrics)
	}
	s.srv = &fasthttp.Server{
		Handler:      s.handler(metrics),
		Name:         BotName,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) handler(metrics fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !ctx.IsGet() && !ctx.IsHead() {
			ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		now := s.clock().UTC()
		switch string(ctx.Path()) {
		case "/":
			s.writeJSON(ctx, Status{
				Status:    "online",
				Bot:       BotName,
				Timestamp: now.Format(time.RFC3339),
				Message:   "IRC Bot is running! 🌿",
				Uptime:    now.Sub(s.started).Truncate(time.Second).String(),
				IRC:       s.ircState(),
			})
		case "/ping":
			ctx.SetContentType("text/plain")
			ctx.SetBodyString("pong")
		case "/health":
			s.writeJSON(ctx, Health{Status: "healthy", Timestamp: now.Format(time.RFC3339), IRC: s.ircState()})
		case "/metrics":
			if metrics == nil {
				s.notFound(ctx)
				return
			}
			metrics(ctx)
		default:
			s.notFound(ctx)
		}
	}
}

func (s *Server) ircState() string {
	if s.ircFn == nil {
		return ""
	}
	return s.ircFn()
}

func (s *Server) notFound(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusNotFound)
	ctx.SetContentType("text/plain")
	ctx.SetBodyString("Not Found")
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	obslog.L().Info("web_started", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			obslog.L().Error("web_serve_failed", zap.Error(err))
		}
	}()
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops accepting and waits for in-flight requests or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.ShutdownWithContext(ctx)
	obslog.L().Info("web_stopped")
	return err
}
