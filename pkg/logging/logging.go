// Package logging exposes a minimal leveled logger backed by logrus.
// The embedding application can swap the backend through SetFactory.
package logging

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used throughout the pipeline.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
}

// Factory builds a Logger bound to a request context.
type Factory interface {
	CreateLogger(ctx context.Context) Logger
}

var (
	factoryMu sync.RWMutex
	factory   Factory
)

// SetFactory installs an application-provided logger backend. Passing
// nil restores the default logrus backend.
func SetFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factory = f
}

// NewLogger returns the logger for a request context.
func NewLogger(ctx context.Context) Logger {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()

	if f != nil {
		return f.CreateLogger(ctx)
	}
	return &logrusLogger{entry: logrus.StandardLogger().WithContext(ctx)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}
