// Package config loads the server settings from flags and CHESS_* environment variables.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrInvalidConfig is wrapped around every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the server configuration.
type Config struct {
	Addr                string
	AllowOrigins        []string
	ClockTime           time.Duration
	MatchmakingInterval time.Duration
	LogLevel            string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Addr:                ":3000",
		AllowOrigins:        []string{"http://localhost:5173"},
		ClockTime:           10 * time.Minute,
		MatchmakingInterval: time.Second,
		LogLevel:            "info",
	}
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load parses args over the defaults. An environment variable named CHESS_<FLAG>
// (upper case, dashes as underscores) supplies the value of a flag that is not
// given on the command line.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	origins := strings.Join(cfg.AllowOrigins, ",")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&origins, "allow-origins", origins, "comma separated CORS and WebSocket origins")
	fs.DurationVar(&cfg.ClockTime, "clock", cfg.ClockTime, "thinking time per side")
	fs.DurationVar(&cfg.MatchmakingInterval, "match-interval", cfg.MatchmakingInterval, "how often queued players are paired")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "parse flags")
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var envErr error
	fs.VisitAll(func(f *flag.Flag) {
		if set[f.Name] {
			return
		}
		name := "CHESS_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v := getenv(name); v != "" {
			if err := fs.Set(f.Name, v); err != nil {
				envErr = multierror.Append(envErr, fmt.Errorf("%s: %w", name, err))
			}
		}
	})
	if envErr != nil {
		return nil, errors.Wrap(envErr, "read environment")
	}

	cfg.AllowOrigins = splitList(origins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result error
	if c.Addr == "" {
		result = multierror.Append(result, errors.Wrap(ErrInvalidConfig, "addr must not be empty"))
	}
	// The server sends credentials cross-origin, which CORS forbids for "*".
	if len(c.AllowOrigins) == 0 {
		result = multierror.Append(result, errors.Wrap(ErrInvalidConfig, "allow-origins must name at least one origin"))
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			result = multierror.Append(result, errors.Wrap(ErrInvalidConfig, "allow-origins must list explicit origins, not \"*\""))
		}
	}
	if c.ClockTime <= 0 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "clock must be positive, got %s", c.ClockTime))
	}
	if c.MatchmakingInterval <= 0 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "match-interval must be positive, got %s", c.MatchmakingInterval))
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "unknown log level %q", c.LogLevel))
	}
	return result
}

// Level returns the fiber log level named by LogLevel, defaulting to info.
func (c *Config) Level() log.Level {
	if lvl, ok := logLevels[c.LogLevel]; ok {
		return lvl
	}
	return log.LevelInfo
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
