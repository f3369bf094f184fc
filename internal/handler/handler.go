package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
	"todo-planner/internal/telemetry"
)

var tracer = otel.Tracer("todo-planner/internal/handler")

// TaskHandler serves the JSON API over the task service.
type TaskHandler struct {
	svc     *service.TaskService
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewTaskHandler(svc *service.TaskService, logger *slog.Logger, metrics *telemetry.Metrics) *TaskHandler {
	return &TaskHandler{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes returns the chi router with all API routes.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Post("/reorder", h.ReorderTasks)
		r.Post("/undo", h.UndoDelete)
		r.Delete("/completed", h.ClearCompleted)
		r.Get("/{id}", h.GetTask)
		r.Patch("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
		r.Post("/{id}/toggle", h.ToggleTask)
	})

	r.Get("/stats", h.Stats)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Patch("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})

	r.Get("/settings", h.GetSettings)
	r.Patch("/settings", h.UpdateSettings)
	r.Get("/export", h.Export)
	r.Post("/reset", h.Reset)

	return r
}

// Health returns a health check response.
func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var taskErr model.TaskError
	switch {
	case model.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNothingToUndo), errors.Is(err, model.ErrFallbackCategory):
		return http.StatusConflict
	case errors.As(err, &taskErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err, marks the span and writes the mapped error response.
func (h *TaskHandler) fail(ctx context.Context, w http.ResponseWriter, method, route string, err error, start time.Time) {
	status := statusFor(err)
	span := trace.SpanFromContext(ctx)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", slog.String("route", route), slog.Any("error", err))
		span.SetStatus(codes.Error, err.Error())
		message = "internal error"
	} else {
		h.logger.WarnContext(ctx, "request rejected", slog.String("route", route), slog.Any("error", err))
	}

	h.respondError(w, status, message)
	h.recordMetrics(ctx, method, route, status, start)
}

func (h *TaskHandler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

var errInvalidBody = model.TaskError{Message: "invalid request body"}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *TaskHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *TaskHandler) recordMetrics(ctx context.Context, method, route string, status int, start time.Time) {
	if h.metrics == nil {
		return
	}
	duration := time.Since(start).Seconds()

	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)

	h.metrics.RequestCounter.Add(ctx, 1, attrs)
	h.metrics.RequestDuration.Record(ctx, duration, attrs)
}
