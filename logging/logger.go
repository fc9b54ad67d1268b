package logging

import (
	"time"

	"go.uber.org/zap"
)

// Logger wraps zap.SugaredLogger and adds an interval for periodic logging, i.e. logging
// recurring events every x time units instead of every time they happen.
type Logger struct {
	*zap.SugaredLogger

	interval time.Duration
}

// NewLogger returns a new Logger that wraps the given zap.SugaredLogger and configures
// interval for periodic logging.
func NewLogger(log *zap.SugaredLogger, interval time.Duration) *Logger {
	return &Logger{SugaredLogger: log, interval: interval}
}

// Interval returns the configured interval for periodic logging.
func (l *Logger) Interval() time.Duration {
	return l.interval
}
