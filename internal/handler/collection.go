package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"todo-planner/internal/aggregate"
	"todo-planner/internal/model"
)

type statsResponse struct {
	model.Stats
	Motivation string `json:"motivation"`
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	const route = "/stats"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Stats")
	defer span.End()

	stats := h.svc.Stats()
	span.SetAttributes(
		attribute.Int("stats.total", stats.TotalTodos),
		attribute.Int("stats.current_streak", stats.CurrentStreak),
	)

	h.respondJSON(w, http.StatusOK, statsResponse{
		Stats:      stats,
		Motivation: aggregate.Motivation(stats.CompletionRate),
	})
	h.recordMetrics(ctx, http.MethodGet, route, http.StatusOK, start)
}

func (h *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	const route = "/categories"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.ListCategories")
	defer span.End()

	h.respondJSON(w, http.StatusOK, h.svc.Categories())
	h.recordMetrics(ctx, http.MethodGet, route, http.StatusOK, start)
}

func (h *TaskHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	const route = "/categories"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.CreateCategory")
	defer span.End()

	var draft model.CategoryDraft
	if err := h.decode(r, &draft); err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}
	if err := draft.Validate(); err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}

	category := h.svc.AddCategory(draft)
	span.SetAttributes(attribute.String("category.id", category.ID))
	h.logger.InfoContext(ctx, "category created", slog.String("id", category.ID))

	h.respondJSON(w, http.StatusCreated, category)
	h.recordMetrics(ctx, http.MethodPost, route, http.StatusCreated, start)
}

func (h *TaskHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	const route = "/categories/{id}"
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.UpdateCategory",
		trace.WithAttributes(attribute.String("category.id", id)),
	)
	defer span.End()

	var patch model.CategoryPatch
	if err := h.decode(r, &patch); err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}

	category, err := h.svc.UpdateCategory(id, patch)
	if err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}

	h.respondJSON(w, http.StatusOK, category)
	h.recordMetrics(ctx, http.MethodPatch, route, http.StatusOK, start)
}

func (h *TaskHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	const route = "/categories/{id}"
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.DeleteCategory",
		trace.WithAttributes(attribute.String("category.id", id)),
	)
	defer span.End()

	if err := h.svc.DeleteCategory(id); err != nil {
		h.fail(ctx, w, http.MethodDelete, route, err, start)
		return
	}
	h.logger.InfoContext(ctx, "category deleted", slog.String("id", id))

	w.WriteHeader(http.StatusNoContent)
	h.recordMetrics(ctx, http.MethodDelete, route, http.StatusNoContent, start)
}

func (h *TaskHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	const route = "/settings"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.GetSettings")
	defer span.End()

	h.respondJSON(w, http.StatusOK, h.svc.Settings())
	h.recordMetrics(ctx, http.MethodGet, route, http.StatusOK, start)
}

func (h *TaskHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	const route = "/settings"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.UpdateSettings")
	defer span.End()

	var patch model.SettingsPatch
	if err := h.decode(r, &patch); err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}

	settings, err := h.svc.UpdateSettings(patch)
	if err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}

	h.respondJSON(w, http.StatusOK, settings)
	h.recordMetrics(ctx, http.MethodPatch, route, http.StatusOK, start)
}

// Export returns the whole collection as a downloadable JSON document.
func (h *TaskHandler) Export(w http.ResponseWriter, r *http.Request) {
	const route = "/export"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Export")
	defer span.End()

	snap := h.svc.Snapshot()
	span.SetAttributes(attribute.Int("task.count", len(snap.Tasks)))

	w.Header().Set("Content-Disposition", `attachment; filename="todo-planner-export.json"`)
	h.respondJSON(w, http.StatusOK, snap)
	h.recordMetrics(ctx, http.MethodGet, route, http.StatusOK, start)
}

func (h *TaskHandler) Reset(w http.ResponseWriter, r *http.Request) {
	const route = "/reset"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Reset")
	defer span.End()

	h.svc.Reset()
	h.logger.WarnContext(ctx, "collection reset to defaults")

	w.WriteHeader(http.StatusNoContent)
	h.recordMetrics(ctx, http.MethodPost, route, http.StatusNoContent, start)
}
