package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, port int) string {
	t.Helper()
	dir := t.TempDir()
	cfg := map[string]any{
		"server":         "127.0.0.1",
		"port":           port,
		"nickname":       "chronbot",
		"channels":       []string{"#test"},
		"command_prefix": "!",
		"state":          map[string]any{"backend": "memory"},
		"web":            map[string]any{"enabled": false},
		"log":            map[string]any{"console": false, "file": filepath.Join(dir, "bot.log")},
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func noEnv(string) string { return "" }

func TestRunConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", writeConfig(t, port)}, noEnv, &stderr)
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "connect:") {
		t.Fatalf("stderr %q lacks connect detail", stderr.String())
	}
}

func TestRunServerCloseExitsZero(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			got <- nil
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		r := bufio.NewReader(conn)
		var lines []string
		for len(lines) < 2 {
			line, err := r.ReadString('\n')
			if err != nil {
				break
			}
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		_ = conn.Close()
		got <- lines
	}()

	var stderr bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	code := run(ctx, []string{"-config", writeConfig(t, ln.Addr().(*net.TCPAddr).Port)}, noEnv, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, want 0 (stderr %q)", code, stderr.String())
	}
	lines := <-got
	if len(lines) != 2 || lines[0] != "NICK chronbot" || !strings.HasPrefix(lines[1], "USER chronbot 0 * :") {
		t.Fatalf("registration %q", lines)
	}
}

func TestRunCancelExitsZero(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			quit <- ""
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		r := bufio.NewReader(conn)
		seen := 0
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				quit <- ""
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if seen++; seen == 2 {
				cancel()
			}
			if strings.HasPrefix(line, "QUIT") {
				quit <- line
				return
			}
		}
	}()

	var stderr bytes.Buffer
	code := run(ctx, []string{"-config", writeConfig(t, ln.Addr().(*net.TCPAddr).Port)}, noEnv, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, want 0 (stderr %q)", code, stderr.String())
	}
	if got := <-quit; got != "QUIT :Bot shutting down" {
		t.Fatalf("farewell %q", got)
	}
}

func TestRunBadFlag(t *testing.T) {
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-nope"}, noEnv, &stderr); code != 2 {
		t.Fatalf("exit code %d, want 2", code)
	}
}
