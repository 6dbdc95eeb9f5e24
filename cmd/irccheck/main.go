package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/chr0n-bot/internal/config"
	"github.com/park285/chr0n-bot/internal/irc"
	"github.com/park285/chr0n-bot/internal/ircconn"
	"github.com/park285/chr0n-bot/internal/webkeep"
)

// irccheck probes a running bot's keep-alive endpoint and, with -irc, performs a bare
// registration against the configured server to confirm it answers with 001.
func main() {
	_ = godotenv.Load()
	webURL := flag.String("web", os.Getenv("CHRONBOT_WEB_URL"), "keep-alive base URL, e.g. http://127.0.0.1:8080")
	configPath := flag.String("config", config.DefaultPath, "bot config for the -irc check")
	checkIRC := flag.Bool("irc", false, "register against the configured IRC server")
	timeout := flag.Duration("timeout", 20*time.Second, "overall IRC check timeout")
	flag.Parse()

	failed := false
	if *webURL != "" {
		if err := checkWeb(*webURL); err != nil {
			log.Printf("web check failed: %v", err)
			failed = true
		}
	} else {
		log.Println("no keep-alive URL; skipping web check")
	}

	if *checkIRC {
		if err := checkRegistration(*configPath, *timeout); err != nil {
			log.Printf("irc check failed: %v", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func checkWeb(base string) error {
	client := webkeep.NewClient(base, webkeep.WithTimeout(5*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("/ping: %w", err)
	}
	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("/health: %w", err)
	}
	log.Printf("/health ok: status=%s irc=%s at %s", h.Status, h.IRC, h.Timestamp)
	return nil
}

func checkRegistration(path string, timeout time.Duration) error {
	cfg, _, err := config.Load(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := ircconn.Dial(ctx, cfg.Transport, cfg.Addr(), cfg.WebSocketURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	out := ircconn.NewEgress(conn, false, nil)
	nick := cfg.Nickname + "-chk"
	if err := out.SendRaw(irc.Nick(nick)); err != nil {
		return err
	}
	if err := out.SendRaw(irc.User(nick, "irccheck")); err != nil {
		return err
	}

	var framer irc.Framer
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		for _, line := range framer.Feed(buf[:n]) {
			if irc.IsPing(line) {
				_ = out.SendRaw(irc.PongFor(line))
				continue
			}
			if msg := irc.Parse(line); msg != nil && msg.Command == irc.RplWelcome {
				log.Printf("registered as %s on %s", nick, cfg.Addr())
				_ = out.SendRaw(irc.Quit("irccheck done"))
				return nil
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("no welcome within %s", timeout)
			}
			return err
		}
	}
}
