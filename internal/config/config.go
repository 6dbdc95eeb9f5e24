package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	yaml "gopkg.in/yaml.v3"
)

// DefaultPath is used when neither -config nor CHRONBOT_CONFIG is given.
const DefaultPath = "config.json"

type AppConfig struct {
	Server        string   `json:"server" yaml:"server" env:"IRC_SERVER"`
	Port          int      `json:"port" yaml:"port" env:"IRC_PORT"`
	Transport     string   `json:"transport" yaml:"transport" env:"IRC_TRANSPORT"`
	WebSocketURL  string   `json:"websocket_url,omitempty" yaml:"websocket_url" env:"IRC_WS_URL"`
	Nickname      string   `json:"nickname" yaml:"nickname" env:"IRC_NICKNAME"`
	Username      string   `json:"username" yaml:"username" env:"IRC_USERNAME"`
	Realname      string   `json:"realname" yaml:"realname" env:"IRC_REALNAME"`
	Channels      []string `json:"channels" yaml:"channels" env:"IRC_CHANNELS" envSeparator:","`
	CommandPrefix string   `json:"command_prefix" yaml:"command_prefix" env:"BOT_PREFIX"`

	// IdleTimeoutSec closes the connection after that many seconds without input; 0 disables it.
	IdleTimeoutSec int `json:"idle_timeout_sec" yaml:"idle_timeout_sec" env:"IRC_IDLE_TIMEOUT_SEC"`

	NickServ  NickServConfig  `json:"nickserv" yaml:"nickserv"`
	State     StateConfig     `json:"state" yaml:"state"`
	Web       WebConfig       `json:"web" yaml:"web"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Announcer AnnouncerConfig `json:"announcer" yaml:"announcer"`
	Games     GamesConfig     `json:"games" yaml:"games"`

	// CountdownTarget is the local date-time the "time" verb counts down to (2006-01-02T15:04:05).
	CountdownTarget string `json:"countdown_target" yaml:"countdown_target" env:"COUNTDOWN_TARGET"`
	LeaderboardSize int    `json:"leaderboard_size" yaml:"leaderboard_size" env:"LEADERBOARD_SIZE"`
}

// NickServConfig holds optional identity-service credentials.
type NickServConfig struct {
	Service  string `json:"service" yaml:"service" env:"NICKSERV_SERVICE"`
	Account  string `json:"account,omitempty" yaml:"account" env:"NICKSERV_ACCOUNT"`
	Password string `json:"password,omitempty" yaml:"password" env:"NICKSERV_PASSWORD"`
	Email    string `json:"email,omitempty" yaml:"email" env:"NICKSERV_EMAIL"`
	Register bool   `json:"register" yaml:"register" env:"NICKSERV_REGISTER"`
	DelaySec int    `json:"delay_sec" yaml:"delay_sec" env:"NICKSERV_DELAY_SEC"`
}

type StateConfig struct {
	Backend     string `json:"backend" yaml:"backend" env:"STATE_BACKEND"`
	File        string `json:"file" yaml:"file" env:"STATE_FILE"`
	RedisURL    string `json:"redis_url,omitempty" yaml:"redis_url" env:"REDIS_URL"`
	RedisKey    string `json:"redis_key,omitempty" yaml:"redis_key" env:"REDIS_KEY"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type WebConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" env:"WEB_ENABLED"`
	Addr    string `json:"addr" yaml:"addr" env:"WEB_ADDR"`
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Format  string `json:"format" yaml:"format" env:"LOG_FORMAT"`
	File    string `json:"file" yaml:"file" env:"LOG_FILE"`
	Console bool   `json:"console" yaml:"console" env:"LOG_TO_CONSOLE"`
}

type AnnouncerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" env:"ANNOUNCER_ENABLED"`
}

type GamesConfig struct {
	DigitChunk     int `json:"digit_chunk" yaml:"digit_chunk" env:"DIGIT_CHUNK"`
	DigitMilestone int `json:"digit_milestone" yaml:"digit_milestone" env:"DIGIT_MILESTONE"`
}

// Default returns the documented default configuration written when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{
		Server:        "irc.libera.chat",
		Port:          6667,
		Nickname:      "Chr0n-bot",
		Username:      "Chr0n-bot",
		Realname:      "Chr0n-bot",
		Channels:      []string{"#gentoo-weed"},
		CommandPrefix: "!",
		Web:           WebConfig{Enabled: true},
		Log:           LogConfig{Console: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads path (JSON or YAML), materialising Default() there when the file does not exist,
// then applies environment overrides and validates. created reports whether the default was written.
func Load(path string) (cfg *AppConfig, created bool, err error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = Default()
		if werr := Save(path, cfg); werr != nil {
			return nil, false, fmt.Errorf("write default config: %w", werr)
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("read config: %w", err)
	default:
		cfg = &AppConfig{Web: WebConfig{Enabled: true}, Log: LogConfig{Console: true}}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, false, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, false, fmt.Errorf("parse config from environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, created, nil
}

// Save writes cfg as indented JSON.
func Save(path string, cfg *AppConfig) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 6667
	}
	if c.Transport == "" {
		c.Transport = "tcp"
	}
	if c.Username == "" {
		c.Username = c.Nickname
	}
	if c.Realname == "" {
		c.Realname = c.Nickname
	}
	if c.NickServ.Service == "" {
		c.NickServ.Service = "NickServ"
	}
	if c.NickServ.DelaySec <= 0 {
		c.NickServ.DelaySec = 2
	}
	if c.State.Backend == "" {
		c.State.Backend = "file"
	}
	if c.State.File == "" {
		c.State.File = "toke_data.json"
	}
	if c.State.SQLitePath == "" && c.State.Backend == "sqlite" {
		c.State.SQLitePath = "data/chronbot.db"
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "legacy"
	}
	if c.Log.File == "" {
		c.Log.File = "ircbot.log"
	}
	if c.CountdownTarget == "" {
		c.CountdownTarget = "2025-12-04T00:00:00"
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = 5
	}
	if c.Games.DigitChunk <= 0 {
		c.Games.DigitChunk = 5
	}
	if c.Games.DigitMilestone <= 0 {
		c.Games.DigitMilestone = 50
	}
	for i, ch := range c.Channels {
		c.Channels[i] = strings.TrimSpace(ch)
	}
}

// Validate checks required fields and enumerations.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Nickname) == "" || strings.ContainsAny(c.Nickname, " \r\n") {
		return errors.New("nickname is required and cannot contain spaces")
	}
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return errors.New("command_prefix is required")
	}
	switch c.Transport {
	case "tcp":
		if strings.TrimSpace(c.Server) == "" {
			return errors.New("server is required")
		}
		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
		}
	case "ws":
		if strings.TrimSpace(c.WebSocketURL) == "" {
			return errors.New("websocket_url is required for the ws transport")
		}
	default:
		return fmt.Errorf("unknown transport %q (tcp|ws)", c.Transport)
	}
	switch c.State.Backend {
	case "file", "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	if _, err := c.Countdown(); err != nil {
		return fmt.Errorf("invalid countdown_target: %w", err)
	}
	return nil
}

// Addr is the host:port dialled by the tcp transport.
func (c *AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Server, c.Port) }

// Countdown parses CountdownTarget in process-local time.
func (c *AppConfig) Countdown() (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04:05", c.CountdownTarget, time.Local)
}

// NickServDelay is the fixed pause after each identity-service line.
func (c *AppConfig) NickServDelay() time.Duration { return time.Duration(c.NickServ.DelaySec) * time.Second }

// IdleTimeout is zero when disabled.
func (c *AppConfig) IdleTimeout() time.Duration { return time.Duration(c.IdleTimeoutSec) * time.Second }
