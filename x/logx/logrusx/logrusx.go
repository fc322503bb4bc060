// Package logrusx adapts logrus to logx.Logger for host builds.
package logrusx

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"tpmsbridge-go/x/logx"
)

type Logger struct {
	entry *logrus.Entry
}

// New creates a text logger at the given level ("debug", "info", "warn", "error").
func New(level string) (*Logger, error) {
	lvl := logrus.InfoLevel
	if level != "" {
		var err error
		lvl, err = logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
		}
	}
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return Wrap(l), nil
}

// Wrap adapts an existing logrus logger.
func Wrap(l *logrus.Logger) *Logger { return &Logger{entry: logrus.NewEntry(l)} }

func (l *Logger) Debug(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Debug(msg) }
func (l *Logger) Info(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Info(msg) }
func (l *Logger) Warn(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Warn(msg) }
func (l *Logger) Error(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Error(msg) }

func (l *Logger) With(component string) logx.Logger {
	return &Logger{entry: l.entry.WithField("component", component)}
}

func (l *Logger) Flush() {
	if f, ok := l.entry.Logger.Out.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
}

func fields(kv []any) logrus.Fields {
	if len(kv) == 0 {
		return nil
	}
	f := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		f[logx.FormatValue(kv[i])] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		f["extra"] = kv[len(kv)-1]
	}
	return f
}
