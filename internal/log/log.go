package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
	DefaultLogLevel = slog.LevelInfo
)

type Opts struct {
	ServiceName string
	Version     string
	Level       slog.Level
	AddSource   bool
	JSON        bool
	Output      io.Writer
}

// Setup builds the process logger and installs it as the slog default.
func Setup(o Opts) *slog.Logger {
	var handler slog.Handler

	out := o.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     o.Level,
		AddSource: o.AddSource,
	}

	if o.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	attrs := []slog.Attr{slog.String("service", o.ServiceName)}
	if o.Version != "" {
		attrs = append(attrs, slog.String("version", o.Version))
	}
	handler = handler.WithAttrs(attrs)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func SetupFromEnv(serviceName, version string) *slog.Logger {
	level := GetLogLevelFromEnv()
	return Setup(Opts{
		ServiceName: serviceName,
		Version:     version,
		Level:       level,
		AddSource:   level <= slog.LevelDebug,
		JSON:        !strings.EqualFold(os.Getenv(EnvLogFormat), "text"),
	})
}

func GetLogLevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv(EnvLogLevel))
}

// ParseLevel maps a level name to a slog level, falling back to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return DefaultLogLevel
	}
}
