package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName tags every log record, span and trace resource from the API.
const ServiceName = "roleboard-api"

// NewLogger returns a JSON logger on stdout whose records carry the service
// and env, plus trace, request and user ids when logged with a request context.
// level ("debug", "info", "warn", "error") overrides the env default.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel(env, level),
	})

	return slog.New(NewContextHandler(handler)).With(
		slog.String("service", ServiceName),
		slog.String("env", env),
	)
}

func logLevel(env, level string) slog.Level {
	if level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
			return l
		}
	}
	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
