package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/chr0n-bot/internal/announce"
	"github.com/park285/chr0n-bot/internal/commands"
	"github.com/park285/chr0n-bot/internal/config"
	"github.com/park285/chr0n-bot/internal/irc"
	"github.com/park285/chr0n-bot/internal/ircconn"
	"github.com/park285/chr0n-bot/internal/metrics"
	"github.com/park285/chr0n-bot/internal/msgcat"
	"github.com/park285/chr0n-bot/internal/obslog"
	"github.com/park285/chr0n-bot/internal/state"
	"github.com/park285/chr0n-bot/internal/tzlookup"
	"github.com/park285/chr0n-bot/internal/webkeep"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stderr)
	stop()
	os.Exit(code)
}

// run starts the bot and blocks until the session ends. It returns the process exit code:
// 0 after a graceful stop, 1 when startup, connect or the session fails, 2 on bad flags.
func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	started := time.Now()
	// .env is optional
	_ = godotenv.Load()

	fs := flag.NewFlagSet("chron-bot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", envOr(getenv, "CHRONBOT_CONFIG", config.DefaultPath), "config file (JSON or YAML)")
	messagesDir := fs.String("messages", getenv("CHRONBOT_MESSAGES_DIR"), "directory of YAML reply overrides")
	dryRun := fs.Bool("dry-run", false, "log outgoing lines instead of writing them")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, created, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	if err := obslog.Init(obslog.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Console: cfg.Log.Console,
		File:    cfg.Log.File,
	}); err != nil {
		fmt.Fprintf(stderr, "logger error: %v\n", err)
		return 1
	}
	defer obslog.Sync()
	logger := obslog.L()
	if created {
		logger.Info("config_created", zap.String("path", *configPath))
	}
	logger.Info("bot_starting", zap.String("server", cfg.Addr()), zap.String("transport", cfg.Transport), zap.Strings("channels", cfg.Channels))

	m := metrics.New()
	backend, err := state.OpenBackend(ctx, state.BackendConfig{
		Kind:        cfg.State.Backend,
		FilePath:    cfg.State.File,
		RedisURL:    cfg.State.RedisURL,
		RedisKey:    cfg.State.RedisKey,
		DatabaseURL: cfg.State.DatabaseURL,
		SQLitePath:  cfg.State.SQLitePath,
		PingRetries: 5,
	})
	if err != nil {
		return fatal(stderr, logger, "state backend", err)
	}
	store, err := state.Open(ctx, backend, state.WithSaveHook(m.StateSaved))
	if err != nil {
		_ = backend.Close()
		return fatal(stderr, logger, "state load", err)
	}
	defer func() { _ = store.Close() }()

	catalog, err := msgcat.New(*messagesDir)
	if err != nil {
		return fatal(stderr, logger, "messages", err)
	}
	zones, err := tzlookup.Default()
	if err != nil {
		return fatal(stderr, logger, "timezones", err)
	}
	countdown, _ := cfg.Countdown()

	conn, err := ircconn.Dial(ctx, cfg.Transport, cfg.Addr(), cfg.WebSocketURL)
	if err != nil {
		logger.Error("irc_connect_failed", zap.Error(err))
		return fatal(stderr, logger, "connect", err)
	}
	logger.Info("irc_connect", zap.String("server", cfg.Addr()))

	var router *commands.Router
	session := ircconn.New(conn, ircconn.Options{
		Nick:     cfg.Nickname,
		User:     cfg.Username,
		Realname: cfg.Realname,
		Channels: cfg.Channels,
		NickServ: ircconn.NickServ{
			Service:  cfg.NickServ.Service,
			Account:  cfg.NickServ.Account,
			Password: cfg.NickServ.Password,
			Email:    cfg.NickServ.Email,
			Register: cfg.NickServ.Register,
		},
		JoinDelay:       time.Second,
		CredentialDelay: cfg.NickServDelay(),
		IdleTimeout:     cfg.IdleTimeout(),
		DryRun:          *dryRun,
		OnState:         func(st ircconn.State) { m.ConnState(int(st)) },
		OnRecv:          m.LineReceived,
		OnSend:          m.LineSent,
	}, func(ctx context.Context, msg *irc.Message) error {
		return router.HandleMessage(ctx, msg)
	})

	router = commands.NewRouter(cfg.CommandPrefix, session.Egress(), commands.WithMetrics(m))
	commands.Install(router, commands.Deps{
		Store:           store,
		Catalog:         catalog,
		Zones:           zones,
		Started:         started,
		Countdown:       countdown,
		LeaderboardSize: cfg.LeaderboardSize,
		DigitChunk:      cfg.Games.DigitChunk,
		DigitMilestone:  cfg.Games.DigitMilestone,
	})

	var web *webkeep.Server
	if cfg.Web.Enabled {
		web = webkeep.NewServer(cfg.Web.Addr,
			webkeep.WithMetrics(m.Handler()),
			webkeep.WithIRCState(func() string { return session.State().String() }),
		)
		if err := web.Start(); err != nil {
			logger.Error("web_start_failed", zap.String("addr", cfg.Web.Addr), zap.Error(err))
			web = nil
		}
	}

	if cfg.Announcer.Enabled {
		a := announce.New(store, session.Egress(), cfg.Channels, announce.WithMetrics(m), announce.WithCatalog(catalog))
		go func() { _ = a.Run(ctx) }()
	}

	runErr := session.Run(ctx)

	fctx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	store.Flush(fctx)
	cancelFlush()

	if web != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := web.Shutdown(sctx); err != nil {
			logger.Warn("web_shutdown_failed", zap.Error(err))
		}
		cancel()
	}
	if runErr != nil {
		return fatal(stderr, logger, "session", runErr)
	}
	logger.Info("bot_stopped", zap.Duration("uptime", time.Since(started)))
	return 0
}

func fatal(stderr io.Writer, logger *zap.Logger, what string, err error) int {
	logger.Error("fatal", zap.String("stage", what), zap.Error(err))
	fmt.Fprintf(stderr, "%s: %v\n", what, err)
	return 1
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
