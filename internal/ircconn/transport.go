package ircconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"

	dialTimeout = 10 * time.Second
)

// Dial opens the configured transport. tcp dials addr; ws dials wsURL and frames each
// websocket text message as one CRLF terminated line.
func Dial(ctx context.Context, transport, addr, wsURL string) (io.ReadWriteCloser, error) {
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(transport)) {
	case "", TransportTCP:
		var d net.Dialer
		conn, err := d.DialContext(dctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn, nil
	case TransportWS:
		conn, _, err := websocket.Dial(dctx, wsURL, &websocket.DialOptions{
			CompressionMode: websocket.CompressionNoContextTakeover,
			Subprotocols:    []string{"text.ircv3.net"},
		})
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", wsURL, err)
		}
		return newWSLineConn(conn), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

// wsLineConn adapts a websocket connection carrying one IRC line per message to a byte stream.
type wsLineConn struct {
	conn *websocket.Conn

	rmu      sync.Mutex
	pending  []byte
	deadline time.Time

	wmu sync.Mutex

	closeOnce  sync.Once
	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func newWSLineConn(conn *websocket.Conn) *wsLineConn {
	ctx, cancel := context.WithCancel(context.Background())
	conn.SetReadLimit(64 << 10)
	return &wsLineConn{conn: conn, rootCtx: ctx, rootCancel: cancel}
}

func (w *wsLineConn) Read(p []byte) (int, error) {
	w.rmu.Lock()
	defer w.rmu.Unlock()

	ctx := w.rootCtx
	if !w.deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, w.deadline)
		defer cancel()
	}
	for len(w.pending) == 0 {
		typ, data, err := w.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return 0, io.EOF
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return 0, errIdle
			}
			return 0, err
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		if !strings.HasSuffix(string(data), "\r\n") {
			data = append(data, '\r', '\n')
		}
		w.pending = data
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *wsLineConn) Write(p []byte) (int, error) {
	w.wmu.Lock()
	defer w.wmu.Unlock()

	ctx, cancel := context.WithTimeout(w.rootCtx, 5*time.Second)
	defer cancel()
	for _, line := range strings.Split(string(p), "\r\n") {
		if line == "" {
			continue
		}
		if err := w.conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// SetReadDeadline bounds the next reads, matching net.Conn.
func (w *wsLineConn) SetReadDeadline(t time.Time) error {
	w.rmu.Lock()
	w.deadline = t
	w.rmu.Unlock()
	return nil
}

func (w *wsLineConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.conn.Close(websocket.StatusNormalClosure, "close")
		w.rootCancel()
	})
	return err
}
