package domain

import "fmt"

type ActionKind string

const (
	ActionPower         ActionKind = "power"
	ActionSetVolume     ActionKind = "set_volume"
	ActionSetBrightness ActionKind = "set_brightness"
	ActionSetPosition   ActionKind = "position"
)

// Action is a typed state-transition request. The set of variants is
// closed and every numeric payload is validated at construction, so a
// value of this type is always within its legal range. Devices reject
// kinds they do not support with ErrInvalidAction.
type Action interface {
	Kind() ActionKind
}

// Power switches a device's primary state. For curtains On means fully
// open, for speakers and lights it means powered on.
type Power struct {
	On bool
}

func (Power) Kind() ActionKind { return ActionPower }

// SetVolume adjusts a speaker's volume. Construct via NewSetVolume.
type SetVolume struct {
	level int
}

func NewSetVolume(level int) (SetVolume, error) {
	if level < 0 || level > 100 {
		return SetVolume{}, fmt.Errorf("%w: volume %d outside [0,100]", ErrInvalidAction, level)
	}
	return SetVolume{level: level}, nil
}

func (SetVolume) Kind() ActionKind { return ActionSetVolume }
func (a SetVolume) Level() int     { return a.level }

// SetBrightness adjusts a light's brightness. Construct via
// NewSetBrightness.
type SetBrightness struct {
	level int
}

func NewSetBrightness(level int) (SetBrightness, error) {
	if level < 0 || level > 100 {
		return SetBrightness{}, fmt.Errorf("%w: brightness %d outside [0,100]", ErrInvalidAction, level)
	}
	return SetBrightness{level: level}, nil
}

func (SetBrightness) Kind() ActionKind { return ActionSetBrightness }
func (a SetBrightness) Level() int     { return a.level }

// SetPosition moves curtains to an absolute position, 0 closed to 100
// fully open. Construct via NewSetPosition.
type SetPosition struct {
	value int
}

func NewSetPosition(value int) (SetPosition, error) {
	if value < 0 || value > 100 {
		return SetPosition{}, fmt.Errorf("%w: position %d outside [0,100]", ErrInvalidAction, value)
	}
	return SetPosition{value: value}, nil
}

func (SetPosition) Kind() ActionKind { return ActionSetPosition }
func (a SetPosition) Value() int     { return a.value }

// ParseAction converts the loose wire form (action name plus parameter
// bag) into a typed Action for a device of the given type. It is used
// only at process boundaries; everything inside the hub passes typed
// values.
func ParseAction(typ DeviceType, name string, params map[string]any) (Action, error) {
	switch ActionKind(name) {
	case ActionPower:
		state, _ := params["state"].(string)
		on, err := powerState(typ, state)
		if err != nil {
			return nil, err
		}
		return Power{On: on}, nil

	case ActionSetVolume:
		level, err := intParam(params, "level")
		if err != nil {
			return nil, err
		}
		return NewSetVolume(level)

	case ActionSetBrightness:
		level, err := intParam(params, "level")
		if err != nil {
			return nil, err
		}
		return NewSetBrightness(level)

	case ActionSetPosition:
		value, err := intParam(params, "value")
		if err != nil {
			return nil, err
		}
		return NewSetPosition(value)
	}

	return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, name)
}

// powerState maps the wire word onto the power target. Each variant
// has its own vocabulary: curtains speak open/close, speakers and
// lights on/off. A word from the wrong vocabulary is rejected, not
// translated.
func powerState(typ DeviceType, state string) (bool, error) {
	if typ == TypeCurtains {
		switch state {
		case "open":
			return true, nil
		case "close":
			return false, nil
		}
	} else {
		switch state {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: power state %q for %s", ErrInvalidAction, state, typ)
}

func intParam(params map[string]any, key string) (int, error) {
	switch v := params[key].(type) {
	case int:
		return v, nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %s %v is not an integer", ErrInvalidAction, key, v)
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("%w: missing integer parameter %q", ErrInvalidAction, key)
}
