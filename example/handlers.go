package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tasks"
)

// jobsHandler exposes the service over HTTP. Routes take the queue name from
// the path; "/jobs" without a queue works when only one queue is registered.
type jobsHandler struct {
	svc *tasks.Service
	log *slog.Logger
}

func (h *jobsHandler) Routes(r chi.Router) {
	r.Route("/queues/{queue}/jobs", func(r chi.Router) {
		r.Get("/", h.find)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.remove)
	})
	r.Get("/events", h.events)
}

type createRequest struct {
	Data    json.RawMessage   `json:"data"`
	Options *tasks.JobOptions `json:"options"`
	JobID   string            `json:"jobId"`
}

func (h *jobsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, &tasks.FieldError{Field: "body", Reason: "must be a JSON object", Err: err})
		return
	}

	var payload any
	if len(req.Data) > 0 {
		payload = req.Data
	}
	j, err := h.svc.Create(r.Context(), payload, tasks.CreateParams{
		Queue: chi.URLParam(r, "queue"),
		JobID: req.JobID,
		Job:   req.Options,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (h *jobsHandler) get(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), tasks.GetParams{Queue: chi.URLParam(r, "queue")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *jobsHandler) remove(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), tasks.RemoveParams{Queue: chi.URLParam(r, "queue")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *jobsHandler) find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := tasks.FindParams{
		Queue:      chi.URLParam(r, "queue"),
		Type:       q.Get("type"),
		NoPaginate: q.Get("paginate") == "false",
	}

	var err error
	if params.Query.Skip, err = intParam(q.Get("skip"), "skip"); err != nil {
		h.fail(w, r, err)
		return
	}
	if params.Query.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.svc.Find(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// events streams service events as server-sent events until the client leaves.
func (h *jobsHandler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.svc.Subscribe(64)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("event: " + string(ev.Name) + "\ndata: "))
			_, _ = w.Write(data)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

type errorResponse struct {
	Fields  map[string]any `json:"fields,omitempty"`
	Message string         `json:"message"`
}

func (h *jobsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tasks.ErrValidation), errors.Is(err, tasks.ErrResolution):
		status = http.StatusBadRequest
	case errors.Is(err, tasks.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSON(w, status, errorResponse{Message: http.StatusText(status)})
		return
	}

	se := tasks.SerializeError(err)
	writeJSON(w, status, errorResponse{Message: se.Message, Fields: se.Fields})
}

func intParam(raw, field string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &tasks.FieldError{Field: field, Reason: "must be an integer", Err: err}
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
