package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/curaious/tasky/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the process wide slog logger. When LOG_FILE is set, records are written to
// stdout and to a size-rotated file.
func Setup(conf *config.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if conf.LOG_FILE != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   conf.LOG_FILE,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	l := slog.New(newHandler(w, conf.LOG_FORMAT, parseLevel(conf.LOG_LEVEL)))
	slog.SetDefault(l)

	return l
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
