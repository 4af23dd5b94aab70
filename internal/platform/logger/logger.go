package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	zerolog.TimestampFieldName = "timestamp"
	base = newLogger(os.Stdout, "product-dashboard")
}

func newLogger(w io.Writer, service string) zerolog.Logger {
	return zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// SetOutput redirects all log output; used by main and by tests that assert on log lines.
func SetOutput(w io.Writer, service string) {
	base = newLogger(w, service)
}

// SetLevel accepts zerolog level names (debug, info, warn, error). Unknown names keep info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func Info(msg string, v ...interface{}) {
	base.Info().Msg(format(msg, v...))
}

func Warn(msg string, v ...interface{}) {
	base.Warn().Msg(format(msg, v...))
}

func Debug(msg string, v ...interface{}) {
	base.Debug().Msg(format(msg, v...))
}

func Error(msg string, err error, v ...interface{}) {
	event := base.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(format(msg, v...))
}

// Fields logs msg at info level with structured key/value pairs.
func Fields(msg string, fields map[string]interface{}) {
	event := base.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// format keeps the printf-style call sites working; nil args ("no extra context") are dropped.
func format(msg string, v ...interface{}) string {
	args := make([]interface{}, 0, len(v))
	for _, a := range v {
		if a != nil {
			args = append(args, a)
		}
	}
	if len(args) == 0 {
		return msg
	}
	if strings.Contains(msg, "%") {
		return fmt.Sprintf(msg, args...)
	}
	return msg + " " + strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
