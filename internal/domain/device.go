package domain

import "context"

type DeviceType string

const (
	TypeSpeaker  DeviceType = "smart_speaker"
	TypeLight    DeviceType = "smart_light"
	TypeCurtains DeviceType = "smart_curtains"
)

// Known reports whether t is a device type this hub understands.
func (t DeviceType) Known() bool {
	switch t {
	case TypeSpeaker, TypeLight, TypeCurtains:
		return true
	}
	return false
}

// Device is the capability contract implemented by every variant,
// whether it holds the authoritative state in-process or proxies a
// remote device over the network. New variants implement this
// interface; nothing else in the hub changes.
type Device interface {
	ID() string
	Type() DeviceType

	// Connection is the host:port of the process that owns the
	// authoritative state.
	Connection() string

	// Status returns a snapshot of the full current state. It fails
	// only when the authority cannot be reached; it never returns a
	// partial snapshot.
	Status(ctx context.Context) (Status, error)

	// Apply requests a state transition. A nil return means the
	// transition was applied. ErrInvalidAction means the action is
	// unknown or not applicable to this variant and no state changed.
	// Remote-backed devices return ErrUnreachable on transport failure.
	Apply(ctx context.Context, action Action) error
}
