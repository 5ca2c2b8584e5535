package internal

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// NewLogger builds the process logger. JSON records go to out; text records
// always go to stderr, coloured when it is a terminal.
func NewLogger(cfg ApplicationConfig, out io.Writer) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: "15:04:05.000",
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		}))
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}
