// Package logger carries a logrus entry through context.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	ctxKeyLog ctxKey = iota
)

// Entry returns the entry stored in ctx, or a fresh entry on the standard
// logger when there is none.
func Entry(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKeyLog).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// WithLogEntry returns a copy of ctx carrying e.
func WithLogEntry(ctx context.Context, e *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKeyLog, e)
}

// WithFields adds fields to the entry in ctx and stores the result.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return WithLogEntry(ctx, Entry(ctx).WithFields(fields))
}

// New builds a logger at the named level. Unknown levels fall back to info.
func New(level string, json bool) *logrus.Logger {
	l := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
