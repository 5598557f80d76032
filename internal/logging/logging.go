// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Setup installs the default slog logger from config strings: a tinted
// human-readable handler when stderr is a terminal (or format is "text"),
// JSON otherwise. Unknown values fall back to "auto" and Info.
func Setup(format, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	var tty bool
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		tty = true
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = newTintHandler(lvl)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	default:
		if tty {
			h = newTintHandler(lvl)
		} else {
			h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
		}
	}
	slog.SetDefault(slog.New(h))
}

func newTintHandler(lvl slog.Level) slog.Handler {
	return tinter.NewHandler(os.Stderr, &tinter.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
	})
}
