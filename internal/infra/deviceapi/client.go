package deviceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smart-hub/internal/domain"
	"smart-hub/internal/infra"
)

const defaultTimeout = 5 * time.Second

// ClientConfig describes one remote device endpoint.
type ClientConfig struct {
	ID      string
	Type    domain.DeviceType
	BaseURL string // http://host:port

	// Timeout bounds every request; an unresponsive device resolves to
	// ErrUnreachable, never an indefinite block.
	Timeout time.Duration

	// StatusRetry applies to GET /status only. Actions are never
	// retried: a POST that timed out may still have been applied.
	StatusRetry infra.RetryConfig
}

// Client is a Device backed by a remote authority: every Status and
// Apply call is exactly one outbound HTTP request to the device's own
// process.
type Client struct {
	id      string
	typ     domain.DeviceType
	baseURL string

	httpClient *http.Client
	retry      infra.RetryConfig
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retry := cfg.StatusRetry
	if retry.Attempts == 0 {
		retry = infra.DefaultRetryConfig()
	}

	return &Client{
		id:         cfg.ID,
		typ:        cfg.Type,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

func (c *Client) ID() string              { return c.id }
func (c *Client) Type() domain.DeviceType { return c.typ }

func (c *Client) Connection() string {
	conn := strings.TrimPrefix(c.baseURL, "https://")
	return strings.TrimPrefix(conn, "http://")
}

func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	var status domain.Status

	err := infra.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: reading response: %v", domain.ErrUnreachable, err)
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("%w: status endpoint returned %d", domain.ErrUnreachable, resp.StatusCode)
			if !infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return infra.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(body, &status); err != nil {
			return fmt.Errorf("%w: malformed status: %v", domain.ErrUnreachable, err)
		}
		return nil
	})
	if err != nil {
		return domain.Status{}, fmt.Errorf("status of %q: %w", c.id, err)
	}

	if status.Connection == "" {
		status.Connection = c.Connection()
	}
	return status, nil
}

func (c *Client) Apply(ctx context.Context, action domain.Action) error {
	path, err := c.actionPath(action)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: device %q rejected %s: %s",
			domain.ErrInvalidAction, c.id, path, errorDetail(body))
	default:
		return fmt.Errorf("%w: device %q returned %d for %s",
			domain.ErrUnreachable, c.id, resp.StatusCode, path)
	}
}

func (c *Client) actionPath(action domain.Action) (string, error) {
	switch a := action.(type) {
	case domain.Power:
		return "/power/" + powerSegment(c.typ, a.On), nil
	case domain.SetVolume:
		return fmt.Sprintf("/volume/%d", a.Level()), nil
	case domain.SetBrightness:
		return fmt.Sprintf("/brightness/%d", a.Level()), nil
	case domain.SetPosition:
		return fmt.Sprintf("/position/%d", a.Value()), nil
	}
	return "", fmt.Errorf("%w: no route for action %q", domain.ErrInvalidAction, action.Kind())
}

// Curtains speak open/close on the wire, everything else on/off.
func powerSegment(typ domain.DeviceType, on bool) string {
	if typ == domain.TypeCurtains {
		if on {
			return "open"
		}
		return "close"
	}
	if on {
		return "on"
	}
	return "off"
}

func errorDetail(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
