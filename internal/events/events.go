// Package events gives the matchmaking core one narrow way to report what
// happened: a named event plus key-value fields. The core never formats
// strings or decides severity beyond error/info; whatever collector sits
// behind the logger does the rest.
package events

import (
	"github.com/charmbracelet/log"
)

type Emitter struct {
	l *log.Logger
}

func New(l *log.Logger) *Emitter {
	return &Emitter{l: l}
}

// Emit reports a named event with key-value fields.
func (e *Emitter) Emit(event string, kv ...any) {
	e.l.Info(event, kv...)
}

// Fail reports a named failure event. The error rides along as a field so
// collectors can index it.
func (e *Emitter) Fail(event string, err error, kv ...any) {
	e.l.Error(event, append(kv, "err", err)...)
}
