package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/chr0n-bot/internal/irc"
	"github.com/park285/chr0n-bot/internal/metrics"
	"github.com/park285/chr0n-bot/internal/obslog"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// ErrUsage marks a user error answered with one corrective reply line.
var ErrUsage = errors.New("usage")

// UsageError carries the hint sent back to the user.
type UsageError struct{ Hint string }

func (e *UsageError) Error() string { return "usage: " + e.Hint }
func (e *UsageError) Unwrap() error { return ErrUsage }

// Usage returns a UsageError. Handlers return it before touching state.
func Usage(hint string) error { return &UsageError{Hint: hint} }

// Replier emits chat text; *ircconn.Egress satisfies it.
type Replier interface {
	SendText(ctx context.Context, target, text string) error
}

// Invocation is one prefixed chat command.
type Invocation struct {
	Verb    string
	Args    []string
	Nick    string
	Target  string // channel, or the bot's own nick for private messages
	ReplyTo string // channel, or Nick for private messages
	Private bool
	Now     time.Time
}

// Arg returns the i-th argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

// HandlerFunc performs the state mutation for inv and returns the reply lines.
type HandlerFunc func(ctx context.Context, inv *Invocation) ([]string, error)

type route struct {
	verb         string
	handler      HandlerFunc
	allowPrivate bool
	hidden       bool
}

type RouteOption func(*route)

// AllowPrivate lets the verb run from a private message.
func AllowPrivate() RouteOption { return func(r *route) { r.allowPrivate = true } }

// Hidden keeps the verb out of the help listing.
func Hidden() RouteOption { return func(r *route) { r.hidden = true } }

// Router maps verbs to handlers. Registration happens before the session starts; the table is
// read-only afterwards.
type Router struct {
	prefix  string
	routes  map[string]*route
	order   []string
	replier Replier
	metrics *metrics.Metrics
	clock   func() time.Time
}

type Option func(*Router)

func WithMetrics(m *metrics.Metrics) Option { return func(r *Router) { r.metrics = m } }
func WithClock(fn func() time.Time) Option  { return func(r *Router) { r.clock = fn } }

func NewRouter(prefix string, replier Replier, opts ...Option) *Router {
	r := &Router{prefix: prefix, routes: make(map[string]*route), replier: replier, clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds verb and its aliases to h. A later registration of the same verb wins.
func (r *Router) Register(verb string, h HandlerFunc, aliases []string, opts ...RouteOption) {
	rt := &route{verb: foldVerb(verb), handler: h}
	for _, opt := range opts {
		opt(rt)
	}
	for _, v := range append([]string{verb}, aliases...) {
		key := foldVerb(v)
		if _, exists := r.routes[key]; !exists {
			r.order = append(r.order, key)
		}
		r.routes[key] = rt
	}
}

// Verbs lists the visible verbs in registration order.
func (r *Router) Verbs() []string {
	out := make([]string, 0, len(r.order))
	for _, v := range r.order {
		if rt := r.routes[v]; rt != nil && !rt.hidden {
			out = append(out, v)
		}
	}
	return out
}

func (r *Router) Prefix() string { return r.prefix }

// Parse extracts an invocation from chat text. ok is false when text lacks the prefix or a verb.
func (r *Router) Parse(text string) (verb string, args []string, ok bool) {
	if r.prefix == "" || !strings.HasPrefix(text, r.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(text[len(r.prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return foldVerb(fields[0]), fields[1:], true
}

// HandleMessage is the session's PRIVMSG hook.
func (r *Router) HandleMessage(ctx context.Context, msg *irc.Message) error {
	if msg == nil || msg.Command != irc.CmdPrivmsg || msg.Nick == "" {
		return nil
	}
	verb, args, ok := r.Parse(msg.Text)
	if !ok {
		return nil
	}
	rt, found := r.routes[verb]
	if !found {
		return nil
	}
	inv := &Invocation{Verb: verb, Args: args, Nick: msg.Nick, Target: msg.Target, ReplyTo: msg.Target, Now: r.clock()}
	if !irc.IsChannel(msg.Target) {
		if !rt.allowPrivate {
			return nil
		}
		inv.Private = true
		inv.ReplyTo = msg.Nick
	}
	return r.dispatch(ctx, rt, inv)
}

// dispatch runs one route and emits its replies.
func (r *Router) dispatch(ctx context.Context, rt *route, inv *Invocation) error {
	logger := obslog.L().With(zap.String("verb", inv.Verb), zap.String("nick", inv.Nick))
	replies, err := rt.handler(ctx, inv)

	var usage *UsageError
	switch {
	case errors.As(err, &usage):
		r.metrics.Command(rt.verb, "usage")
		logger.Debug("command_usage", zap.String("hint", usage.Hint))
		replies = []string{usage.Hint}
	case err != nil:
		r.metrics.Command(rt.verb, "error")
		return err
	default:
		r.metrics.Command(rt.verb, "ok")
		logger.Debug("command_dispatch", zap.Int("replies", len(replies)))
	}

	for _, line := range replies {
		if line == "" {
			continue
		}
		if serr := r.replier.SendText(ctx, inv.ReplyTo, line); serr != nil {
			return serr
		}
	}
	return nil
}

func foldVerb(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
