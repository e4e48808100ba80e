// Package logx wraps logrus behind a small capability interface so the
// rest of mancer never imports logrus directly or reaches for its
// package-level standard logger. Every component that logs takes a Log
// as a constructor argument instead of pulling a singleton off the
// package, per spec.md §9's note against process-wide mutable state.
package logx

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Log is the logging capability every orchestrator-owned component
// depends on. Fields attaches structured key/value pairs to the next
// call; component tags ("backend", "cache", "chain", ...) are the
// conventional first field set by New's caller.
type Log interface {
	WithFields(fields map[string]any) Log
	WithError(err error) Log
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	// Critical logs at error severity with a critical:true field
	// rather than calling logrus's Fatal, which would os.Exit the
	// process out from under a library caller.
	Critical(msg string)
}

// Level mirrors the five severities spec.md §6 names.
type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError, LevelCritical:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type logrusLog struct {
	entry *logrus.Entry
}

// New builds a Log backed by a fresh logrus.Logger at the given level,
// tagged with a correlation id so log lines from one execution can be
// grepped together across a pipe or chain.
func New(level Level) Log {
	base := logrus.New()
	base.SetLevel(level.logrusLevel())
	base.SetFormatter(&logrus.JSONFormatter{})
	return &logrusLog{entry: logrus.NewEntry(base).WithField("correlation_id", uuid.NewString())}
}

func (l *logrusLog) WithFields(fields map[string]any) Log {
	return &logrusLog{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLog) WithError(err error) Log {
	return &logrusLog{entry: l.entry.WithError(err)}
}

func (l *logrusLog) Debug(msg string) { l.entry.Debug(msg) }
func (l *logrusLog) Info(msg string)  { l.entry.Info(msg) }
func (l *logrusLog) Warn(msg string)  { l.entry.Warn(msg) }
func (l *logrusLog) Error(msg string) { l.entry.Error(msg) }

func (l *logrusLog) Critical(msg string) {
	l.entry.WithField("critical", true).Error(msg)
}
