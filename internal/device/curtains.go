package device

import (
	"context"
	"fmt"
	"sync"

	"smart-hub/internal/domain"
)

// CurtainState is the full state of a set of curtains. Invariant:
// IsOpen is true exactly when Position > 0.
type CurtainState struct {
	IsOpen   bool `json:"is_open"`
	Position int  `json:"position"`
}

// Curtains holds the authoritative state of one set of smart curtains.
type Curtains struct {
	id   string
	host string
	port int

	mu    sync.Mutex
	state CurtainState
}

func NewCurtains(id, host string, port int) *Curtains {
	return &Curtains{id: id, host: host, port: port}
}

func (c *Curtains) ID() string              { return c.id }
func (c *Curtains) Type() domain.DeviceType { return domain.TypeCurtains }
func (c *Curtains) Connection() string      { return fmt.Sprintf("%s:%d", c.host, c.port) }

func (c *Curtains) Status(_ context.Context) (domain.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.Status{
		DeviceID:   c.id,
		Type:       domain.TypeCurtains,
		Connection: c.Connection(),
		State: map[string]any{
			"is_open":  c.state.IsOpen,
			"position": c.state.Position,
		},
	}, nil
}

func (c *Curtains) Apply(_ context.Context, action domain.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch a := action.(type) {
	case domain.Power:
		if a.On {
			c.state = CurtainState{IsOpen: true, Position: 100}
		} else {
			c.state = CurtainState{IsOpen: false, Position: 0}
		}
		return nil
	case domain.SetPosition:
		c.state = CurtainState{IsOpen: a.Value() > 0, Position: a.Value()}
		return nil
	}
	return fmt.Errorf("%w: curtains do not support %q", domain.ErrInvalidAction, action.Kind())
}

// UpdateSettings applies a bulk partial update. IsOpen is derived from
// Position; an explicit is_open that contradicts the final position is
// rejected.
func (c *Curtains) UpdateSettings(fields map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state
	var isOpen, isOpenSet bool

	for key, raw := range fields {
		switch key {
		case "position":
			v, err := settingsInt(raw)
			if err != nil || v < 0 || v > 100 {
				return fmt.Errorf("%w: position must be an integer in [0,100]", domain.ErrInvalidAction)
			}
			next.Position = v
			next.IsOpen = v > 0
		case "is_open":
			v, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("%w: is_open must be a boolean", domain.ErrInvalidAction)
			}
			isOpen, isOpenSet = v, true
		default:
			return fmt.Errorf("%w: unknown curtain setting %q", domain.ErrInvalidAction, key)
		}
	}

	if isOpenSet && isOpen != next.IsOpen {
		return fmt.Errorf("%w: is_open must match position", domain.ErrInvalidAction)
	}

	c.state = next
	return nil
}
