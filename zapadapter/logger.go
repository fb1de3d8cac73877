// Package zapadapter bridges go.uber.org/zap to the dependency-free logging
// contracts used by the core and the engines.
package zapadapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// Logger adapts a zap.SugaredLogger to the personoversikt.Logger contract.
// The variadic args are alternating key/value pairs, matching zap's
// loosely-typed "w" methods.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger wraps the given sugared logger.
func NewLogger(sugar *zap.SugaredLogger) *Logger {
	return &Logger{sugar: sugar}
}

func (l *Logger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

// ContextualLogger adapts a zap.SugaredLogger to the
// personoversikt.ContextualLogger contract. zap carries no per-call context,
// so the context is accepted for interface compatibility and ignored.
type ContextualLogger struct {
	sugar *zap.SugaredLogger
}

// NewContextualLogger wraps the given sugared logger.
func NewContextualLogger(sugar *zap.SugaredLogger) *ContextualLogger {
	return &ContextualLogger{sugar: sugar}
}

func (l *ContextualLogger) DebugContext(_ context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *ContextualLogger) InfoContext(_ context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *ContextualLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *ContextualLogger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

var (
	_ personoversikt.Logger           = (*Logger)(nil)
	_ personoversikt.ContextualLogger = (*ContextualLogger)(nil)
)
