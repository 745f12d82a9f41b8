package domain_test

import (
	"errors"
	"testing"

	"smart-hub/internal/domain"
)

func TestNewSetVolume_Range(t *testing.T) {
	for _, level := range []int{0, 1, 50, 99, 100} {
		a, err := domain.NewSetVolume(level)
		if err != nil {
			t.Errorf("NewSetVolume(%d): unexpected error %v", level, err)
		}
		if a.Level() != level {
			t.Errorf("Level: got %d, want %d", a.Level(), level)
		}
	}

	for _, level := range []int{-1, 101, 1000} {
		_, err := domain.NewSetVolume(level)
		if !errors.Is(err, domain.ErrInvalidAction) {
			t.Errorf("NewSetVolume(%d): got %v, want ErrInvalidAction", level, err)
		}
	}
}

func TestNewSetBrightness_Range(t *testing.T) {
	if _, err := domain.NewSetBrightness(100); err != nil {
		t.Errorf("NewSetBrightness(100): unexpected error %v", err)
	}
	if _, err := domain.NewSetBrightness(-5); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("NewSetBrightness(-5): got %v, want ErrInvalidAction", err)
	}
}

func TestNewSetPosition_Range(t *testing.T) {
	if _, err := domain.NewSetPosition(0); err != nil {
		t.Errorf("NewSetPosition(0): unexpected error %v", err)
	}
	if _, err := domain.NewSetPosition(101); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("NewSetPosition(101): got %v, want ErrInvalidAction", err)
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		typ    domain.DeviceType
		action string
		params map[string]any
		want   domain.Action
	}{
		{"speaker power on", domain.TypeSpeaker, "power", map[string]any{"state": "on"}, domain.Power{On: true}},
		{"speaker power off", domain.TypeSpeaker, "power", map[string]any{"state": "off"}, domain.Power{On: false}},
		{"light power on", domain.TypeLight, "power", map[string]any{"state": "on"}, domain.Power{On: true}},
		{"curtains power open", domain.TypeCurtains, "power", map[string]any{"state": "open"}, domain.Power{On: true}},
		{"curtains power close", domain.TypeCurtains, "power", map[string]any{"state": "close"}, domain.Power{On: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseAction(tt.typ, tt.action, tt.params)
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAction: got %#v, want %#v", got, tt.want)
			}
		})
	}

	// JSON decoding hands numbers over as float64.
	a, err := domain.ParseAction(domain.TypeSpeaker, "set_volume", map[string]any{"level": float64(30)})
	if err != nil {
		t.Fatalf("ParseAction set_volume: %v", err)
	}
	if v, ok := a.(domain.SetVolume); !ok || v.Level() != 30 {
		t.Errorf("ParseAction set_volume: got %#v, want level 30", a)
	}

	for _, tt := range []struct {
		typ    domain.DeviceType
		action string
		params map[string]any
	}{
		{domain.TypeLight, "blink", nil},
		{domain.TypeSpeaker, "power", map[string]any{"state": "sideways"}},
		// Each variant owns its power vocabulary; open/close belongs to
		// curtains, on/off to everything else.
		{domain.TypeSpeaker, "power", map[string]any{"state": "open"}},
		{domain.TypeLight, "power", map[string]any{"state": "close"}},
		{domain.TypeCurtains, "power", map[string]any{"state": "on"}},
		{domain.TypeCurtains, "power", map[string]any{"state": "off"}},
		{domain.TypeSpeaker, "set_volume", map[string]any{"level": "loud"}},
		{domain.TypeSpeaker, "set_volume", map[string]any{"level": 30.5}},
		{domain.TypeCurtains, "position", map[string]any{}},
	} {
		if _, err := domain.ParseAction(tt.typ, tt.action, tt.params); !errors.Is(err, domain.ErrInvalidAction) {
			t.Errorf("ParseAction(%s, %q, %v): got %v, want ErrInvalidAction", tt.typ, tt.action, tt.params, err)
		}
	}
}
