// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/coordinator"
)

type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	RedisAddr      string
	RedisChannel   string
	DiscordToken   string
	DiscordGuildID string
	DiscordBaseURL string
	DDragonRefresh bool
	LogLevel       string

	AcceptTimeout       time.Duration
	BotThinkMin         time.Duration
	BotThinkMax         time.Duration
	ReconcileInterval   time.Duration
	MatchmakingInterval time.Duration
	DefaultRating       int
}

// Load reads files (default ".env") into the environment without overriding
// variables that are already set, then parses the environment. Missing files
// are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv parses settings through getenv. Every malformed value is reported.
func FromEnv(getenv func(string) string) (Config, error) {
	def := coordinator.DefaultConfig()
	p := parser{getenv: getenv}
	cfg := Config{
		HTTPAddr:       p.str("HTTP_ADDR", ":8080"),
		DatabaseURL:    p.str("DATABASE_URL", ""),
		RedisAddr:      p.str("REDIS_ADDR", ""),
		RedisChannel:   p.str("REDIS_CHANNEL", "inhouse:events"),
		DiscordToken:   p.str("DISCORD_TOKEN", ""),
		DiscordGuildID: p.str("DISCORD_GUILD_ID", ""),
		DiscordBaseURL: p.str("DISCORD_API_URL", "https://discord.com/api/v10"),
		DDragonRefresh: p.boolean("DDRAGON_REFRESH", false),
		LogLevel:       strings.ToLower(p.str("LOG_LEVEL", "info")),

		AcceptTimeout:       p.duration("ACCEPT_TIMEOUT", def.AcceptTimeout),
		BotThinkMin:         p.duration("BOT_THINK_MIN", def.BotThinkMin),
		BotThinkMax:         p.duration("BOT_THINK_MAX", def.BotThinkMax),
		ReconcileInterval:   p.duration("RECONCILE_INTERVAL", def.ReconcileInterval),
		MatchmakingInterval: p.duration("MATCHMAKING_INTERVAL", def.MatchmakingInterval),
		DefaultRating:       p.integer("DEFAULT_RATING", def.DefaultRating),
	}
	if cfg.BotThinkMax < cfg.BotThinkMin {
		p.err = multierr.Append(p.err, fmt.Errorf("BOT_THINK_MAX %s is below BOT_THINK_MIN %s", cfg.BotThinkMax, cfg.BotThinkMin))
	}
	if cfg.DiscordToken != "" && cfg.DiscordGuildID == "" {
		p.err = multierr.Append(p.err, errors.New("DISCORD_GUILD_ID is required with DISCORD_TOKEN"))
	}
	return cfg, p.err
}

// Coordinator maps the settings onto the coordinator's timing knobs.
func (c Config) Coordinator() coordinator.Config {
	out := coordinator.DefaultConfig()
	out.AcceptTimeout = c.AcceptTimeout
	out.BotThinkMin = c.BotThinkMin
	out.BotThinkMax = c.BotThinkMax
	out.ReconcileInterval = c.ReconcileInterval
	out.MatchmakingInterval = c.MatchmakingInterval
	out.DefaultRating = c.DefaultRating
	return out
}

// Logger builds a production logger, or a development one at LOG_LEVEL=debug.
func (c Config) Logger() (*zap.Logger, error) {
	if c.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	if err := zc.Level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return zc.Build()
}

type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}
