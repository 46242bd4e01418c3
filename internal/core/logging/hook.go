package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// scope is the set of identifiers a context carries into log events.
type scope struct {
	runID    string
	recordID string
	op       string
}

func scopeOf(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(ctxKey{}).(scope)
	return s
}

func withScope(ctx context.Context, edit func(*scope)) context.Context {
	s := scopeOf(ctx)
	edit(&s)
	return context.WithValue(ctx, ctxKey{}, s)
}

// WithRunID tags ctx with the scrape run being viewed.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withScope(ctx, func(s *scope) { s.runID = runID })
}

// WithRecordID tags ctx with the active record.
func WithRecordID(ctx context.Context, recordID string) context.Context {
	return withScope(ctx, func(s *scope) { s.recordID = recordID })
}

// WithOp names the user operation (search, export, chat) ctx belongs to.
func WithOp(ctx context.Context, op string) context.Context {
	return withScope(ctx, func(s *scope) { s.op = op })
}

// GetRunID returns the run ID carried by ctx, or "".
func GetRunID(ctx context.Context) string { return scopeOf(ctx).runID }

// GetRecordID returns the record ID carried by ctx, or "".
func GetRecordID(ctx context.Context) string { return scopeOf(ctx).recordID }

// ContextHook copies the run, record and operation tags of an event's
// context onto the event.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	s := scopeOf(e.GetCtx())
	if s == (scope{}) {
		return
	}
	if s.runID != "" {
		e.Str("run_id", s.runID)
	}
	if s.recordID != "" {
		e.Str("record_id", s.recordID)
	}
	if s.op != "" {
		e.Str("op", s.op)
	}
}
