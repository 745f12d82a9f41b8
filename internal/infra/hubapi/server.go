package hubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"smart-hub/internal/device"
	"smart-hub/internal/domain"
	"smart-hub/internal/hub"
	"smart-hub/internal/infra"
	"smart-hub/internal/infra/deviceapi"
)

// Options tunes the hub API server.
type Options struct {
	// RateLimit is the allowed requests per minute per client IP;
	// zero disables limiting.
	RateLimit int

	// DeviceTimeout and StatusRetry configure the proxies built for
	// devices registered through the API.
	DeviceTimeout time.Duration
	StatusRetry   infra.RetryConfig
}

// Server is the hub's JSON boundary. Everything it does goes through
// the Controller; it never reaches into device internals.
type Server struct {
	controller *hub.Controller
	logger     *slog.Logger
	opts       Options
	events     *eventHub
	router     chi.Router

	mu      sync.Mutex
	httpSrv *http.Server
}

func NewServer(controller *hub.Controller, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		controller: controller,
		logger:     logger,
		opts:       opts,
		events:     newEventHub(logger),
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if opts.RateLimit > 0 {
		r.Use(newRateLimiter(opts.RateLimit, time.Minute).middleware)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ws", s.handleWS)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleRegister)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Post("/actions", s.handleAction)
				r.Post("/toggle", s.handleToggle)
				r.Put("/{property}", s.handleSetProperty)
			})
		})
	})

	s.router = r
	return s
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves the API in the background.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv != nil {
		return nil
	}

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("hub API starting", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("hub API server error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the API down gracefully and disconnects stream clients.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv == nil {
		return nil
	}

	s.events.closeAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.httpSrv.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	s.httpSrv = nil
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// statusReportJSON is the wire form of one AllStatus entry: either a
// snapshot or an error marker, never neither.
type statusReportJSON struct {
	DeviceID string         `json:"device_id"`
	Status   *domain.Status `json:"status,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	reports := s.controller.AllStatus(r.Context())

	out := make([]statusReportJSON, len(reports))
	for i, rep := range reports {
		out[i] = statusReportJSON{DeviceID: rep.DeviceID, Status: rep.Status}
		if rep.Err != nil {
			out[i].Error = rep.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type registerRequest struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	LogActions bool   `json:"log_actions"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON device description")
		return
	}

	typ := domain.DeviceType(req.Type)
	switch {
	case req.ID == "":
		writeError(w, http.StatusBadRequest, "id is required")
		return
	case !typ.Known():
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown device type %q", req.Type))
		return
	case req.Host == "" || req.Port <= 0:
		writeError(w, http.StatusBadRequest, "host and port are required")
		return
	}

	var d domain.Device = deviceapi.NewClient(deviceapi.ClientConfig{
		ID:          req.ID,
		Type:        typ,
		BaseURL:     fmt.Sprintf("http://%s:%d", req.Host, req.Port),
		Timeout:     s.opts.DeviceTimeout,
		StatusRetry: s.opts.StatusRetry,
	})
	if req.LogActions {
		d = device.NewLogging(d, s.logger)
	}

	id := s.controller.Register(d)
	writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "id": id})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.controller.Status(r.Context(), id)
	if err != nil {
		writeError(w, statusCodeFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type actionRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON action")
		return
	}

	// The power vocabulary depends on the variant, so the target's
	// type is needed before the request can be parsed.
	typ, err := s.controller.DeviceType(id)
	if err != nil {
		writeError(w, statusCodeFor(err), err.Error())
		return
	}

	action, err := domain.ParseAction(typ, req.Action, req.Params)
	if err != nil {
		writeError(w, statusCodeFor(err), err.Error())
		return
	}

	if err := s.controller.PerformAction(r.Context(), id, action); err != nil {
		writeError(w, statusCodeFor(err), err.Error())
		return
	}

	s.broadcastState(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "action": req.Action})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.controller.Toggle(r.Context(), id)
	if err != nil {
		writeError(w, statusCodeFor(err), err.Error())
		return
	}

	s.events.broadcast("device_state", status)
	writeJSON(w, http.StatusOK, status)
}

type setPropertyRequest struct {
	Value int `json:"value"`
}

func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	property := chi.URLParam(r, "property")

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, `body must be {"value": n}`)
		return
	}

	if err := s.controller.SetNumericProperty(r.Context(), id, property, req.Value); err != nil {
		writeError(w, statusCodeFor(err), err.Error())
		return
	}

	s.broadcastState(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "property": property, "value": req.Value})
}

// broadcastState pushes the device's fresh snapshot to stream
// subscribers; a failed re-read only costs the event.
func (s *Server) broadcastState(ctx context.Context, id string) {
	status, err := s.controller.Status(ctx, id)
	if err != nil {
		s.logger.Warn("skipping state broadcast", "device", id, "error", err)
		return
	}
	s.events.broadcast("device_state", status)
}

// statusCodeFor maps the failure taxonomy onto HTTP status codes so the
// boundary can tell "unknown", "rejected" and "unreachable" apart.
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnreachable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"status": "error", "error": msg})
}
