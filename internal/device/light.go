package device

import (
	"context"
	"fmt"
	"sync"

	"smart-hub/internal/domain"
)

// LightState is the full state of a light.
type LightState struct {
	IsOn       bool `json:"is_on"`
	Brightness int  `json:"brightness"`
}

// Light holds the authoritative state of one smart light.
type Light struct {
	id   string
	host string
	port int

	mu    sync.Mutex
	state LightState
}

func NewLight(id, host string, port int) *Light {
	return &Light{
		id:    id,
		host:  host,
		port:  port,
		state: LightState{Brightness: 100},
	}
}

func (l *Light) ID() string              { return l.id }
func (l *Light) Type() domain.DeviceType { return domain.TypeLight }
func (l *Light) Connection() string      { return fmt.Sprintf("%s:%d", l.host, l.port) }

func (l *Light) Status(_ context.Context) (domain.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return domain.Status{
		DeviceID:   l.id,
		Type:       domain.TypeLight,
		Connection: l.Connection(),
		State: map[string]any{
			"is_on":      l.state.IsOn,
			"brightness": l.state.Brightness,
		},
	}, nil
}

func (l *Light) Apply(_ context.Context, action domain.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch a := action.(type) {
	case domain.Power:
		l.state.IsOn = a.On
		return nil
	case domain.SetBrightness:
		l.state.Brightness = a.Level()
		return nil
	}
	return fmt.Errorf("%w: light does not support %q", domain.ErrInvalidAction, action.Kind())
}

// UpdateSettings applies a bulk partial update, all-or-nothing.
func (l *Light) UpdateSettings(fields map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state
	for key, raw := range fields {
		switch key {
		case "is_on":
			v, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("%w: is_on must be a boolean", domain.ErrInvalidAction)
			}
			next.IsOn = v
		case "brightness":
			v, err := settingsInt(raw)
			if err != nil || v < 0 || v > 100 {
				return fmt.Errorf("%w: brightness must be an integer in [0,100]", domain.ErrInvalidAction)
			}
			next.Brightness = v
		default:
			return fmt.Errorf("%w: unknown light setting %q", domain.ErrInvalidAction, key)
		}
	}

	l.state = next
	return nil
}
