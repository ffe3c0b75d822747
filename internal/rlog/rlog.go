// Package rlog provides the daemon's structured logging: timestamped,
// greppable lines for the long-running components (State Store
// flushes, certificate renewals, health transitions, deployment
// stages), as distinct from internal/output's colored CLI prose.
package rlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Logger so call sites can stay loosely coupled
// to the underlying library and attach component scoping via With.
type Logger struct {
	*logrus.Logger
}

// New builds a daemon logger writing to w (os.Stdout in production)
// with full timestamps, matching the teacher's CLI coloring density
// philosophy applied to structured fields instead of ANSI color.
func New(w io.Writer, debug bool) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &Logger{Logger: l}
}

// Default is the package-level logger used by components that don't
// receive one through constructor injection (primarily main packages
// wiring everything else up).
var Default = New(os.Stdout, false)

// Component returns a logger scoped with a "component" field, the
// convention every daemon package uses to identify its log lines.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}
