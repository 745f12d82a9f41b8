package hub

import (
	"context"
	"fmt"
	"log/slog"

	"smart-hub/internal/domain"
)

// Controller composes Hub calls into the higher-level operations the
// boundary layer is allowed to use. It has no transport knowledge and
// never touches device internals.
type Controller struct {
	hub    *Hub
	logger *slog.Logger
}

func NewController(hub *Hub, logger *slog.Logger) *Controller {
	return &Controller{hub: hub, logger: logger}
}

func (c *Controller) Register(d domain.Device) string {
	return c.hub.Register(d)
}

func (c *Controller) Status(ctx context.Context, id string) (domain.Status, error) {
	return c.hub.Status(ctx, id)
}

func (c *Controller) DeviceType(id string) (domain.DeviceType, error) {
	return c.hub.DeviceType(id)
}

func (c *Controller) AllStatus(ctx context.Context) []StatusReport {
	return c.hub.AllStatus(ctx)
}

func (c *Controller) PerformAction(ctx context.Context, id string, action domain.Action) error {
	return c.hub.PerformAction(ctx, id, action)
}

// Toggle reads the device's primary on/off state and issues the
// opposite power action, then re-fetches the result. Read and write are
// two separate round trips; the hub's per-device lock makes concurrent
// toggles through this process observe each other. Writers in other
// processes still race (last write wins); the device itself offers no
// compare-and-swap.
func (c *Controller) Toggle(ctx context.Context, id string) (domain.Status, error) {
	unlock := c.hub.LockDevice(id)
	defer unlock()

	current, err := c.hub.Status(ctx, id)
	if err != nil {
		return domain.Status{}, fmt.Errorf("toggle %q: %w", id, err)
	}

	target := !primaryOn(current)
	if err := c.hub.PerformAction(ctx, id, domain.Power{On: target}); err != nil {
		return domain.Status{}, fmt.Errorf("toggle %q: %w", id, err)
	}

	c.logger.Info("device toggled", "device", id, "on", target)

	after, err := c.hub.Status(ctx, id)
	if err != nil {
		return domain.Status{}, fmt.Errorf("toggle %q: re-fetching status: %w", id, err)
	}
	return after, nil
}

// SetNumericProperty maps a named numeric property onto the matching
// typed action. Range validation happens in the action constructor.
func (c *Controller) SetNumericProperty(ctx context.Context, id, property string, value int) error {
	var (
		action domain.Action
		err    error
	)
	switch property {
	case "volume":
		action, err = domain.NewSetVolume(value)
	case "brightness":
		action, err = domain.NewSetBrightness(value)
	case "position":
		action, err = domain.NewSetPosition(value)
	default:
		return fmt.Errorf("%w: unknown property %q", domain.ErrInvalidAction, property)
	}
	if err != nil {
		return err
	}
	return c.hub.PerformAction(ctx, id, action)
}

// primaryOn picks the field the toggle flips: is_open for curtains,
// is_on for everything else.
func primaryOn(st domain.Status) bool {
	if st.Type == domain.TypeCurtains {
		return st.Bool("is_open")
	}
	return st.Bool("is_on")
}
