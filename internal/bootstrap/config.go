package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/botivate/systems-dashboard/config"
)

// InitLogger initializes the structured logger and installs it as the default.
// Development mode logs human-readable text; everything else logs JSON.
func InitLogger(level string, isDev bool) *slog.Logger {
	logger := newLogger(os.Stdout, level, isDev)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, level string, isDev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if isDev {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
