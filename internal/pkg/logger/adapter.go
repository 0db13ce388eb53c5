package logger

import (
	"chainfund/internal/app/port"

	"go.uber.org/zap"
)

// zapAdapter implements port.Logger on top of a zap sugared logger, so
// services depend on the narrow logging port instead of zap directly.
type zapAdapter struct {
	s *zap.SugaredLogger
}

// NewAdapter wraps a zap logger in the port.Logger interface.
func NewAdapter(l *zap.Logger) port.Logger {
	return &zapAdapter{s: l.Sugar()}
}

func (a *zapAdapter) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }
func (a *zapAdapter) Info(msg string, args ...any)  { a.s.Infow(msg, args...) }
func (a *zapAdapter) Warn(msg string, args ...any)  { a.s.Warnw(msg, args...) }
func (a *zapAdapter) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }
