package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"smart-hub/internal/domain"
)

// Hub is the single point through which callers read device status or
// dispatch actions. It owns the id → Device registry and hides whether
// a Device is an in-process authority or a proxy for a remote one.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	order   []string
	devices map[string]domain.Device
	locks   map[string]*sync.Mutex
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		devices: make(map[string]domain.Device),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Register inserts the device under its id and returns the id.
// Re-registering an id replaces the previous device (last write wins)
// and keeps its original position in the registration order. The
// device is not contacted; connections are lazy.
func (h *Hub) Register(d domain.Device) string {
	id := d.ID()

	h.mu.Lock()
	if _, exists := h.devices[id]; !exists {
		h.order = append(h.order, id)
		h.locks[id] = &sync.Mutex{}
	}
	h.devices[id] = d
	h.mu.Unlock()

	h.logger.Info("device registered",
		"device", id,
		"type", d.Type(),
		"connection", d.Connection(),
	)
	return id
}

func (h *Hub) device(id string) (domain.Device, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	d, ok := h.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNotFound, id)
	}
	return d, nil
}

// DeviceType reports the registered device's type without contacting
// it.
func (h *Hub) DeviceType(id string) (domain.DeviceType, error) {
	d, err := h.device(id)
	if err != nil {
		return "", err
	}
	return d.Type(), nil
}

// Status returns the device's current snapshot, or ErrNotFound /
// ErrUnreachable per the failure taxonomy.
func (h *Hub) Status(ctx context.Context, id string) (domain.Status, error) {
	d, err := h.device(id)
	if err != nil {
		return domain.Status{}, err
	}
	return d.Status(ctx)
}

// PerformAction dispatches a typed action to the device. A nil return
// means the transition was applied; otherwise the error carries the
// taxonomy (ErrNotFound, ErrInvalidAction, ErrUnreachable).
func (h *Hub) PerformAction(ctx context.Context, id string, action domain.Action) error {
	d, err := h.device(id)
	if err != nil {
		return err
	}
	return d.Apply(ctx, action)
}

// StatusReport is one entry of AllStatus. A device that failed to
// respond is reported with Err set and a nil Status; it is never
// silently omitted.
type StatusReport struct {
	DeviceID string
	Status   *domain.Status
	Err      error
}

// AllStatus collects every device's status. Devices are queried
// concurrently but the result order is the registration order,
// whatever the individual response latencies.
func (h *Hub) AllStatus(ctx context.Context) []StatusReport {
	h.mu.RLock()
	ids := make([]string, len(h.order))
	copy(ids, h.order)
	devices := make([]domain.Device, len(ids))
	for i, id := range ids {
		devices[i] = h.devices[id]
	}
	h.mu.RUnlock()

	reports := make([]StatusReport, len(ids))

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := devices[i].Status(ctx)
			if err != nil {
				reports[i] = StatusReport{DeviceID: ids[i], Err: err}
				return
			}
			reports[i] = StatusReport{DeviceID: ids[i], Status: &st}
		}(i)
	}
	wg.Wait()

	return reports
}

// LockDevice serializes composite read-modify-write operations against
// one device within this process. The caller must invoke the returned
// unlock. Single status reads and single actions do not need the lock;
// the device's own process serializes those.
func (h *Hub) LockDevice(id string) (unlock func()) {
	h.mu.Lock()
	l, ok := h.locks[id]
	if !ok {
		l = &sync.Mutex{}
		h.locks[id] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}
