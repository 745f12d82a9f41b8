package deviceapi_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"smart-hub/internal/device"
	"smart-hub/internal/domain"
	"smart-hub/internal/infra"
	"smart-hub/internal/infra/deviceapi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startSpeaker(t *testing.T) (*deviceapi.Client, *device.Speaker) {
	t.Helper()

	speaker := device.NewSpeaker("s1", "127.0.0.1", 0)
	server := httptest.NewServer(deviceapi.NewServer(speaker, discardLogger()).Handler())
	t.Cleanup(server.Close)

	client := deviceapi.NewClient(deviceapi.ClientConfig{
		ID:      "s1",
		Type:    domain.TypeSpeaker,
		BaseURL: server.URL,
	})
	return client, speaker
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, _ := startSpeaker(t)

	if err := client.Apply(ctx, domain.Power{On: true}); err != nil {
		t.Fatalf("Apply power on: %v", err)
	}
	vol, _ := domain.NewSetVolume(70)
	if err := client.Apply(ctx, vol); err != nil {
		t.Fatalf("Apply set_volume: %v", err)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.DeviceID != "s1" || st.Type != domain.TypeSpeaker {
		t.Errorf("identity: got %s/%s", st.DeviceID, st.Type)
	}
	if !st.Bool("is_on") || st.Int("volume") != 70 {
		t.Errorf("state: got %v", st.State)
	}
}

func TestClient_InvalidActionIsDistinguished(t *testing.T) {
	ctx := context.Background()
	client, speaker := startSpeaker(t)

	before, _ := speaker.Status(ctx)

	// The speaker's server has no /position route; the 404 must come
	// back as an invalid action, not as unreachable.
	pos, _ := domain.NewSetPosition(10)
	if err := client.Apply(ctx, pos); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("position on speaker: got %v, want ErrInvalidAction", err)
	}

	after, _ := speaker.Status(ctx)
	if before.Int("volume") != after.Int("volume") || before.Bool("is_on") != after.Bool("is_on") {
		t.Errorf("rejected action changed state: %v -> %v", before.State, after.State)
	}
}

func TestClient_BadPowerStateRejected(t *testing.T) {
	handler := deviceapi.NewServer(device.NewCurtains("c1", "127.0.0.1", 0), discardLogger()).Handler()
	server := httptest.NewServer(handler)
	defer server.Close()

	// Curtains speak open/close; "on" is a client-error on the wire.
	resp, err := http.Post(server.URL+"/power/on", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestClient_UnreachableDevice(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close() // nothing is listening anymore

	client := deviceapi.NewClient(deviceapi.ClientConfig{
		ID:          "gone",
		Type:        domain.TypeLight,
		BaseURL:     url,
		StatusRetry: infra.RetryConfig{Attempts: 1},
	})

	if _, err := client.Status(context.Background()); !errors.Is(err, domain.ErrUnreachable) {
		t.Errorf("Status: got %v, want ErrUnreachable", err)
	}
	if err := client.Apply(context.Background(), domain.Power{On: true}); !errors.Is(err, domain.ErrUnreachable) {
		t.Errorf("Apply: got %v, want ErrUnreachable", err)
	}
}

func TestClient_ActionsAreNeverRetried(t *testing.T) {
	var posts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := deviceapi.NewClient(deviceapi.ClientConfig{
		ID:          "flaky",
		Type:        domain.TypeLight,
		BaseURL:     server.URL,
		StatusRetry: infra.RetryConfig{Attempts: 3},
	})

	err := client.Apply(context.Background(), domain.Power{On: true})
	if !errors.Is(err, domain.ErrUnreachable) {
		t.Errorf("Apply: got %v, want ErrUnreachable", err)
	}
	if got := posts.Load(); got != 1 {
		t.Errorf("POST count: got %d, want exactly 1 (no silent retries)", got)
	}
}

func TestServer_Settings(t *testing.T) {
	client, speaker := startSpeaker(t)
	server := httptest.NewServer(deviceapi.NewServer(speaker, discardLogger()).Handler())
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/settings",
		strings.NewReader(`{"is_on": true, "playing": true, "volume": 70}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /settings: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /settings: got %d, want 200", resp.StatusCode)
	}

	st, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Bool("playing") || st.Int("volume") != 70 {
		t.Errorf("state after settings: got %v", st.State)
	}
}

func TestServer_SettingsRejectsEmptyBody(t *testing.T) {
	_, speaker := startSpeaker(t)
	server := httptest.NewServer(deviceapi.NewServer(speaker, discardLogger()).Handler())
	defer server.Close()

	for _, body := range []string{`null`, `{}`} {
		req, _ := http.NewRequest(http.MethodPut, server.URL+"/settings", strings.NewReader(body))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PUT /settings %s: %v", body, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("PUT /settings %s: got %d, want 400", body, resp.StatusCode)
		}
	}
}
