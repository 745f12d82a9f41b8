package device

import (
	"context"
	"log/slog"
	"time"

	"smart-hub/internal/domain"
)

// Logging is a transparent decorator: it forwards both Device
// operations to the wrapped instance unchanged and emits one structured
// log record per call. Decorators compose; wrapping order only affects
// the order of log records.
type Logging struct {
	next   domain.Device
	logger *slog.Logger
}

func NewLogging(next domain.Device, logger *slog.Logger) *Logging {
	return &Logging{next: next, logger: logger}
}

func (l *Logging) ID() string              { return l.next.ID() }
func (l *Logging) Type() domain.DeviceType { return l.next.Type() }
func (l *Logging) Connection() string      { return l.next.Connection() }

func (l *Logging) Status(ctx context.Context) (domain.Status, error) {
	start := time.Now()
	status, err := l.next.Status(ctx)

	attrs := []any{
		"device", l.next.ID(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		l.logger.Warn("device status failed", append(attrs, "error", err)...)
	} else {
		l.logger.Info("device status", attrs...)
	}
	return status, err
}

func (l *Logging) Apply(ctx context.Context, action domain.Action) error {
	start := time.Now()
	err := l.next.Apply(ctx, action)

	attrs := []any{
		"device", l.next.ID(),
		"action", string(action.Kind()),
		"applied", err == nil,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		l.logger.Warn("device action rejected", append(attrs, "error", err)...)
	} else {
		l.logger.Info("device action", attrs...)
	}
	return err
}
