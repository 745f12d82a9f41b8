package deviceapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"smart-hub/internal/domain"
)

// SettingsUpdater is implemented by device authorities that support the
// bulk PUT /settings update.
type SettingsUpdater interface {
	UpdateSettings(fields map[string]any) error
}

// Server exposes one device authority over HTTP. Routes depend on the
// variant: every device serves /status, /power/{state} and /health;
// each variant adds its own numeric endpoint.
type Server struct {
	device domain.Device
	logger *slog.Logger
	router chi.Router

	mu      sync.Mutex
	httpSrv *http.Server
}

func NewServer(d domain.Device, logger *slog.Logger) *Server {
	s := &Server{device: d, logger: logger}

	r := chi.NewRouter()
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Post("/power/{state}", s.handlePower)
	r.Put("/settings", s.handleSettings)

	switch d.Type() {
	case domain.TypeSpeaker:
		r.Post("/volume/{level}", s.handleNumeric("level", func(v int) (domain.Action, error) {
			return domain.NewSetVolume(v)
		}))
	case domain.TypeLight:
		r.Post("/brightness/{level}", s.handleNumeric("level", func(v int) (domain.Action, error) {
			return domain.NewSetBrightness(v)
		}))
	case domain.TypeCurtains:
		r.Post("/position/{value}", s.handleNumeric("value", func(v int) (domain.Action, error) {
			return domain.NewSetPosition(v)
		}))
	}

	s.router = r
	return s
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves the device API in the background.
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
		s.logger.Info("device server starting",
			"device", s.device.ID(),
			"type", s.device.Type(),
			"addr", addr,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("device server error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully, falling back to a hard close.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv == nil {
		return nil
	}

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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.device.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"device": s.device.ID(),
	})
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")

	var on bool
	switch {
	case s.device.Type() == domain.TypeCurtains && state == "open":
		on = true
	case s.device.Type() == domain.TypeCurtains && state == "close":
		on = false
	case s.device.Type() != domain.TypeCurtains && state == "on":
		on = true
	case s.device.Type() != domain.TypeCurtains && state == "off":
		on = false
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid power state %q", state))
		return
	}

	s.apply(w, r, domain.Power{On: on})
}

func (s *Server) handleNumeric(param string, build func(int) (domain.Action, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, param)
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer, got %q", param, raw))
			return
		}

		action, err := build(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.apply(w, r, action)
	}
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, action domain.Action) {
	if err := s.device.Apply(r.Context(), action); err != nil {
		if errors.Is(err, domain.ErrInvalidAction) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"action": string(action.Kind()),
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	updater, ok := s.device.(SettingsUpdater)
	if !ok {
		writeError(w, http.StatusBadRequest, "device does not support bulk settings")
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "settings body must be a JSON object")
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "settings body must name at least one field")
		return
	}

	if err := updater.UpdateSettings(fields); err != nil {
		if errors.Is(err, domain.ErrInvalidAction) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"settings": fields,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"status": "error",
		"error":  msg,
	})
}
