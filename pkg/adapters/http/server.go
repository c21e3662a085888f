package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/vignette/internal/runtime"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is the slice of the vignette engine the HTTP adapter drives.
type Engine interface {
	Submit(entityID string, trigger domain.Trigger, done func()) string
	Drain(ctx context.Context)
	Acknowledge(signal string, value any) error
	CompleteStep(ctx context.Context, next string) error
	Snapshot() runtime.Snapshot
	Flags() domain.FlagStore
	Entities() ([]string, error)
	Inspect() ([]domain.DefinitionSpec, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server exposes an Engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Version string
	Logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose presenter and hooks are wired into the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// ActivationRequest is the body of POST /activations.
type ActivationRequest struct {
	Entity  string `json:"entity"`
	Trigger string `json:"trigger"`
}

// ActivationResponse echoes the ID assigned to an accepted activation.
type ActivationResponse struct {
	RequestID string `json:"request_id"`
}

// SignalRequest is the body of POST /signals/{name}.
type SignalRequest struct {
	Value any `json:"value"`
}

// CompleteRequest is the body of POST /complete.
type CompleteRequest struct {
	Next string `json:"next"`
}

// FlagValue is the body of PUT /flags/{name} and the response of GET.
type FlagValue struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Post("/activations", s.PostActivation)
	r.Post("/signals/{name}", s.PostSignal)
	r.Post("/complete", s.PostComplete)
	r.Get("/flags", s.ListFlags)
	r.Get("/flags/{name}", s.GetFlag)
	r.Put("/flags/{name}", s.PutFlag)
	r.Get("/entities", s.ListEntities)
	r.Get("/entities/{id}", s.GetEntity)
	r.Get("/events", s.SubscribeEvents)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	version := s.Version
	if version == "" {
		version = "unknown"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "vignette-http",
		"version": strings.TrimSpace(version),
	})
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Snapshot())
}

// PostActivation handles POST /activations. The request is queued and the queue drained;
// completion is announced on the engine topic when the streams hooks are installed.
func (s *Server) PostActivation(w http.ResponseWriter, r *http.Request) {
	var body ActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("PostActivation: invalid request body", "error", err)
		return
	}
	if body.Entity == "" {
		http.Error(w, "entity is required", http.StatusBadRequest)
		return
	}
	trigger := domain.TriggerConfirm
	if body.Trigger != "" {
		t, err := domain.ParseTrigger(body.Trigger)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		trigger = t
	}

	id := s.Engine.Submit(body.Entity, trigger, nil)
	s.Engine.Drain(r.Context())
	s.writeJSON(w, http.StatusAccepted, ActivationResponse{RequestID: id})
}

// PostSignal handles POST /signals/{name}. An empty body acknowledges without a value.
func (s *Server) PostSignal(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body SignalRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if err := s.Engine.Acknowledge(name, body.Value); err != nil {
		s.writeEngineError(w, "acknowledge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostComplete handles POST /complete for steps waiting on the host.
func (s *Server) PostComplete(w http.ResponseWriter, r *http.Request) {
	var body CompleteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if err := s.Engine.CompleteStep(r.Context(), body.Next); err != nil {
		s.writeEngineError(w, "complete", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.Snapshot())
}

// ListFlags handles GET /flags when the store can enumerate itself.
func (s *Server) ListFlags(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.Engine.Flags().(ports.FlagLister)
	if !ok {
		http.Error(w, "flag store cannot list flags", http.StatusNotImplemented)
		return
	}
	flags, err := lister.ListFlags()
	if err != nil {
		http.Error(w, fmt.Sprintf("list flags: %v", err), http.StatusInternalServerError)
		s.Logger.Error("ListFlags failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, flags)
}

// GetFlag handles GET /flags/{name}. Unknown flags read as false.
func (s *Server) GetFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.writeJSON(w, http.StatusOK, FlagValue{Name: name, Value: s.Engine.Flags().GetFlagState(name)})
}

// PutFlag handles PUT /flags/{name}.
func (s *Server) PutFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body FlagValue
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.Engine.Flags().SetFlagState(name, body.Value)
	s.writeJSON(w, http.StatusOK, FlagValue{Name: name, Value: body.Value})
}

// ListEntities handles GET /entities.
func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Entities()
	if err != nil {
		http.Error(w, fmt.Sprintf("list entities: %v", err), http.StatusInternalServerError)
		s.Logger.Error("ListEntities failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetEntity handles GET /entities/{id}, returning the authored content.
func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	specs, err := s.Engine.Inspect()
	if err != nil {
		http.Error(w, fmt.Sprintf("inspect: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Inspect failed", "error", err)
		return
	}
	for _, spec := range specs {
		if spec.ID == id {
			s.writeJSON(w, http.StatusOK, spec)
			return
		}
	}
	http.Error(w, "entity not found", http.StatusNotFound)
}

// SubscribeEvents handles GET /events (SSE). With ?topic=engine it streams presentations
// and activation results; otherwise it streams content reloads.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var source <-chan string
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		events, err := s.Engine.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		source = events
	} else {
		ch, cancel := s.Streams.Subscribe(topic)
		defer cancel()
		source = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected", "topic", topic)
			return
		case msg, ok := <-source:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, runtime.ErrNoActivation), errors.Is(err, runtime.ErrNotAwaitingExternal):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusInternalServerError)
		s.Logger.Error("engine call failed", "op", op, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
