// Package logging configures the process-wide slog handler. Interactive runs
// get colored output via tint; set LOG_FORMAT=json for log collectors.
//
// Environment variables:
//
//	LOG_LEVEL:  debug, info, warn, error (default: info)
//	LOG_FORMAT: text, json (default: text)
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default handler at the level and format taken from the
// environment.
func Setup() {
	SetupWithLevel(levelFromEnv())
}

// SetupWithLevel installs the default handler at an explicit level.
func SetupWithLevel(level slog.Level) {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		slog.SetDefault(slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		))
		return
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}),
	))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
