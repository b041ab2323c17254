// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging provides the leveled logger used throughout the node.
// Consensus and engine code logs through the Logger interface rather than
// calling logrus directly, so call sites read the same way the teacher's
// snow/engine packages do (Verbo for per-vote chatter, Debug for per-round
// state transitions, Warn/Error/Fatal for conditions an operator cares
// about) while the concrete backend stays swappable.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled logging surface every TimeCoin package depends on.
// Verbo is one notch below Debug: it's for the kind of per-message tracing
// that would otherwise drown out everything else (every chit received,
// every prepare vote forwarded).
type Logger interface {
	Verbo(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})

	// With returns a Logger that tags every subsequent line with the given
	// fields, without mutating the receiver.
	With(fields Fields) Logger
}

// Fields is a structured key/value attachment for a log line.
type Fields map[string]interface{}

type logrusLogger struct {
	entry *logrus.Entry
	verbo bool
}

// Config controls how New builds the root logger.
type Config struct {
	// Level is one of "verbo", "debug", "info", "warn", "error", "fatal".
	Level string
	// JSON selects the structured JSON formatter instead of the default
	// text formatter; operators scraping logs into an aggregator want this.
	JSON bool
}

// New builds a root Logger writing to stderr per cfg.
func New(cfg Config) Logger {
	l := logrus.New()
	l.Out = os.Stderr
	if cfg.JSON {
		l.Formatter = &logrus.JSONFormatter{}
	} else {
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}

	verbo := cfg.Level == "verbo"
	level := logrus.InfoLevel
	switch cfg.Level {
	case "verbo", "debug":
		level = logrus.DebugLevel
	case "info":
		level = logrus.InfoLevel
	case "warn":
		level = logrus.WarnLevel
	case "error":
		level = logrus.ErrorLevel
	case "fatal":
		level = logrus.FatalLevel
	}
	l.SetLevel(level)

	return &logrusLogger{entry: logrus.NewEntry(l), verbo: verbo}
}

func (l *logrusLogger) Verbo(format string, args ...interface{}) {
	if l.verbo {
		l.entry.Debugf("[verbo] "+format, args...)
	}
}
func (l *logrusLogger) Debug(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatal(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) With(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields)), verbo: l.verbo}
}

// NoLog is a Logger that discards everything, for tests that don't care
// about log output but still need something satisfying the interface.
var NoLog Logger = &noopLogger{}

type noopLogger struct{}

func (*noopLogger) Verbo(string, ...interface{}) {}
func (*noopLogger) Debug(string, ...interface{}) {}
func (*noopLogger) Info(string, ...interface{})  {}
func (*noopLogger) Warn(string, ...interface{})  {}
func (*noopLogger) Error(string, ...interface{}) {}
func (*noopLogger) Fatal(string, ...interface{}) {}
func (n *noopLogger) With(Fields) Logger         { return n }
