package run

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the run trigger and run history endpoints.
type Handler struct {
	service  Service
	defaults Options
	protect  func(http.Handler) http.Handler
}

// NewHandler creates a run handler. defaults seed every triggered run's options;
// protect guards every run endpoint.
func NewHandler(service Service, defaults Options, protect func(http.Handler) http.Handler) *Handler {
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{service: service, defaults: defaults, protect: protect}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/runs", func(r chi.Router) {
		r.Use(h.protect)
		r.Post("/", h.trigger)
		r.Get("/", h.list) // ?limit=20
		r.Get("/{id}", h.get)
	})
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	opts := h.defaults
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// Detach from the request so a dropped client does not cancel the run.
	run, err := h.service.Execute(context.WithoutCancel(r.Context()), opts)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
			"run":   run,
		})
		return
	}
	respond(w, http.StatusOK, run)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, runs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, run)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
