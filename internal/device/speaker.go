package device

import (
	"context"
	"fmt"
	"sync"

	"smart-hub/internal/domain"
)

// SpeakerState is the full state of a speaker. Invariant: Playing is
// never true while IsOn is false.
type SpeakerState struct {
	IsOn         bool   `json:"is_on"`
	Volume       int    `json:"volume"`
	Playing      bool   `json:"playing"`
	CurrentTrack string `json:"current_track"`
}

// Speaker holds the authoritative state of one smart speaker. All
// mutations go through Apply or UpdateSettings and are serialized by a
// single mutex, so this process is the only writer.
type Speaker struct {
	id   string
	host string
	port int

	mu    sync.Mutex
	state SpeakerState
}

func NewSpeaker(id, host string, port int) *Speaker {
	return &Speaker{
		id:    id,
		host:  host,
		port:  port,
		state: SpeakerState{Volume: 50},
	}
}

func (s *Speaker) ID() string              { return s.id }
func (s *Speaker) Type() domain.DeviceType { return domain.TypeSpeaker }
func (s *Speaker) Connection() string      { return fmt.Sprintf("%s:%d", s.host, s.port) }

func (s *Speaker) Status(_ context.Context) (domain.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.Status{
		DeviceID:   s.id,
		Type:       domain.TypeSpeaker,
		Connection: s.Connection(),
		State: map[string]any{
			"is_on":         s.state.IsOn,
			"volume":        s.state.Volume,
			"playing":       s.state.Playing,
			"current_track": s.state.CurrentTrack,
		},
	}, nil
}

func (s *Speaker) Apply(_ context.Context, action domain.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a := action.(type) {
	case domain.Power:
		s.state.IsOn = a.On
		if !a.On {
			s.state.Playing = false
		}
		return nil
	case domain.SetVolume:
		s.state.Volume = a.Level()
		return nil
	}
	return fmt.Errorf("%w: speaker does not support %q", domain.ErrInvalidAction, action.Kind())
}

// UpdateSettings applies a bulk partial update. Either every field is
// applied or none: out-of-range values, unknown fields, and updates
// that would leave the speaker playing while off are all rejected.
func (s *Speaker) UpdateSettings(fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	for key, raw := range fields {
		switch key {
		case "is_on":
			v, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("%w: is_on must be a boolean", domain.ErrInvalidAction)
			}
			next.IsOn = v
		case "volume":
			v, err := settingsInt(raw)
			if err != nil || v < 0 || v > 100 {
				return fmt.Errorf("%w: volume must be an integer in [0,100]", domain.ErrInvalidAction)
			}
			next.Volume = v
		case "playing":
			v, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("%w: playing must be a boolean", domain.ErrInvalidAction)
			}
			next.Playing = v
		case "current_track":
			v, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: current_track must be a string", domain.ErrInvalidAction)
			}
			next.CurrentTrack = v
		default:
			return fmt.Errorf("%w: unknown speaker setting %q", domain.ErrInvalidAction, key)
		}
	}

	if next.Playing && !next.IsOn {
		return fmt.Errorf("%w: speaker cannot play while powered off", domain.ErrInvalidAction)
	}

	s.state = next
	return nil
}

func settingsInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("not an integer")
}
