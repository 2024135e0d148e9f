// Package logging builds the slog loggers used by the builder, the inspector
// and wirectl.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/km-arc/go-autowire/framework/errors"
)

const (
	HandlerText = "text"
	HandlerJSON = "json"
	HandlerTint = "tint"
)

// ToLevel maps a level name to a slog.Level. Unknown names are info.
func ToLevel(level string) slog.Level {
	switch level {
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

// NewLogger returns a logger writing to w with the named handler.
func NewLogger(level, handler string, w io.Writer) (*slog.Logger, error) {
	lvl := ToLevel(level)

	var h slog.Handler
	switch handler {
	case HandlerJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: lvl})
	case HandlerText:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	case HandlerTint, "":
		h = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		})
	default:
		return nil, &errors.ConfigurationError{Reason: "unknown log handler " + handler}
	}
	return slog.New(h), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
