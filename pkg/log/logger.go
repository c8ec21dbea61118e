package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/cardiolab/ctgml/pkg/errors"
)

// SetupLogger installs the process-wide slog logger used by ctgml commands
// and routes pipeline warnings to a structured sink on the same stream.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	slog.SetDefault(slog.New(WithStacktraces(handler)))
	InstallWarningSink(os.Stderr)
}

// InstallWarningSink routes pipeline warnings (non-convergence, undefined
// metrics, failed grid candidates) to a zerolog JSON logger writing to w.
// Warnings implementing zerolog.LogObjectMarshaler keep their structured
// fields.
func InstallWarningSink(w io.Writer) {
	sink := zerolog.New(w).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			sink.Warn().Object("warning", obj).Msg(warning.Error())
			return
		}
		sink.Warn().Err(warning).Msg(warning.Error())
	})
}

// ToLogLevel converts a level name into a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
