package webkeep

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
)

func startServer(t *testing.T, opts ...Option) (*Server, *Client) {
	t.Helper()
	s := NewServer("127.0.0.1:0", opts...)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, NewClient("http://"+s.Addr(), WithRetry(1))
}

func TestEndpoints(t *testing.T) {
	_, c := startServer(t, WithIRCState(func() string { return "joined" }))
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if h.Status != "healthy" || h.IRC != "joined" {
		t.Fatalf("health %+v", h)
	}
	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Status != "online" || st.Bot != BotName {
		t.Fatalf("status %+v", st)
	}
}

func TestNotFoundAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("chronbot_up 1\n"))
	})
	s, c := startServer(t, WithMetrics(metrics))

	var body string
	err := c.get(context.Background(), "/nope", &body)
	if err == nil || !strings.Contains(err.Error(), "status=404") {
		t.Fatalf("want 404 error, got %v", err)
	}
	if err := c.get(context.Background(), "/metrics", &body); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if body != "chronbot_up 1\n" {
		t.Fatalf("metrics body %q", body)
	}

	code, _, err := fasthttp.Post(nil, "http://"+s.Addr()+"/ping", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if code != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("post status %d", code)
	}
}

func TestMetricsAbsentIs404(t *testing.T) {
	_, c := startServer(t)
	var body string
	if err := c.get(context.Background(), "/metrics", &body); err == nil {
		t.Fatalf("expected 404 without metrics handler")
	}
}

func TestClientRetriesThenFails(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", WithRetry(2), WithTimeout(200*time.Millisecond))
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected connection error")
	}
}
