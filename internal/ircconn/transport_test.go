package ircconn

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func TestDialUnknownTransport(t *testing.T) {
	if _, err := Dial(context.Background(), "carrier-pigeon", "x", ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	got := make(chan string, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		line, _ := bufio.NewReader(c).ReadString('\n')
		got <- line
	}()

	conn, err := Dial(context.Background(), TransportTCP, ln.Addr().String(), "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := NewEgress(conn, false, nil).SendRaw("NICK bot"); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case line := <-got:
		if line != "NICK bot\r\n" {
			t.Fatalf("got %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout")
	}
}

func TestDialWebSocketFramesLines(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"text.ircv3.net"}})
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		if err := c.Write(ctx, websocket.MessageText, []byte("PING :ws")); err != nil {
			return
		}
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		received <- string(data)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(context.Background(), TransportWS, "", url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "PING :ws\r\n" {
		t.Fatalf("got %q", line)
	}
	if err := NewEgress(conn, false, nil).SendRaw("PONG :ws"); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case msg := <-received:
		if msg != "PONG :ws" {
			t.Fatalf("server got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout")
	}
}
