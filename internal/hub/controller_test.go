package hub_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smart-hub/internal/device"
	"smart-hub/internal/domain"
	"smart-hub/internal/hub"
)

func newController() (*hub.Hub, *hub.Controller) {
	h := hub.New(discardLogger())
	return h, hub.NewController(h, discardLogger())
}

func TestController_ToggleSpeaker(t *testing.T) {
	ctx := context.Background()
	h, c := newController()
	h.Register(device.NewSpeaker("s1", "127.0.0.1", 8101))

	st, err := c.Toggle(ctx, "s1")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !st.Bool("is_on") {
		t.Error("after first toggle: want is_on=true")
	}

	st, err = c.Toggle(ctx, "s1")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if st.Bool("is_on") {
		t.Error("after second toggle: want is_on=false")
	}
}

func TestController_ToggleCurtainsUsesIsOpen(t *testing.T) {
	ctx := context.Background()
	h, c := newController()
	h.Register(device.NewCurtains("c1", "127.0.0.1", 8103))

	st, err := c.Toggle(ctx, "c1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !st.Bool("is_open") || st.Int("position") != 100 {
		t.Errorf("after toggle: got %v, want open at 100", st.State)
	}
}

func TestController_ToggleUnknownDevice(t *testing.T) {
	_, c := newController()

	if _, err := c.Toggle(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("toggle: got %v, want ErrNotFound", err)
	}
}

func TestController_SetNumericProperty(t *testing.T) {
	ctx := context.Background()
	h, c := newController()
	h.Register(device.NewSpeaker("s1", "127.0.0.1", 8101))
	h.Register(device.NewLight("l1", "127.0.0.1", 8102))

	if err := c.SetNumericProperty(ctx, "s1", "volume", 65); err != nil {
		t.Fatalf("volume: %v", err)
	}
	st, _ := c.Status(ctx, "s1")
	if st.Int("volume") != 65 {
		t.Errorf("volume: got %d, want 65", st.Int("volume"))
	}

	// Out of range is rejected before anything is dispatched.
	if err := c.SetNumericProperty(ctx, "s1", "volume", 101); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("volume 101: got %v, want ErrInvalidAction", err)
	}
	st, _ = c.Status(ctx, "s1")
	if st.Int("volume") != 65 {
		t.Errorf("volume changed by rejected set: got %d", st.Int("volume"))
	}

	// Property applicable to another variant only.
	if err := c.SetNumericProperty(ctx, "l1", "volume", 10); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("volume on light: got %v, want ErrInvalidAction", err)
	}

	if err := c.SetNumericProperty(ctx, "s1", "warp", 1); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("unknown property: got %v, want ErrInvalidAction", err)
	}
}

// Concurrent toggles through one hub are serialized per device: each
// toggle observes the previous one, so an even number of toggles lands
// back on the initial state.
func TestController_ConcurrentTogglesSerialize(t *testing.T) {
	ctx := context.Background()
	h, c := newController()
	h.Register(&fakeDevice{id: "s1", typ: domain.TypeSpeaker, delay: 2 * time.Millisecond})

	const toggles = 8
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Toggle(ctx, "s1"); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	st, err := c.Status(ctx, "s1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Bool("is_on") {
		t.Errorf("after %d toggles: want is_on=false, got %v", toggles, st.State)
	}
}
