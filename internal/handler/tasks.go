package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"todo-planner/internal/model"
)

// ListTasks returns the tasks of a view. Without ?view= the configured
// default view is used.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	const route = "/todos"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.ListTasks")
	defer span.End()

	raw := r.URL.Query().Get("view")
	if raw == "" {
		raw = string(h.svc.Settings().DefaultView)
	}
	view, err := model.ParseView(raw)
	if err != nil {
		h.fail(ctx, w, http.MethodGet, route, err, start)
		return
	}

	tasks := h.svc.View(view)
	span.SetAttributes(attribute.String("todo.view", string(view)), attribute.Int("task.count", len(tasks)))

	h.respondJSON(w, http.StatusOK, tasks)
	h.recordMetrics(ctx, http.MethodGet, route, http.StatusOK, start)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	const route = "/todos"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.CreateTask")
	defer span.End()

	var draft model.TaskDraft
	if err := h.decode(r, &draft); err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}
	if err := draft.Validate(); err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}

	task := h.svc.Add(draft)
	span.SetAttributes(attribute.String("task.id", task.ID))
	h.logger.InfoContext(ctx, "task created", slog.String("id", task.ID))

	h.respondJSON(w, http.StatusCreated, task)
	h.recordMetrics(ctx, http.MethodPost, route, http.StatusCreated, start)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/{id}"
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.GetTask",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	task, err := h.svc.Get(id)
	if err != nil {
		h.fail(ctx, w, http.MethodGet, route, err, start)
		return
	}

	h.respondJSON(w, http.StatusOK, task)
	h.recordMetrics(ctx, http.MethodGet, route, http.StatusOK, start)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/{id}"
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.UpdateTask",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	var patch model.TaskPatch
	if err := h.decode(r, &patch); err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}
	if err := patch.Validate(); err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}

	task, err := h.svc.Update(id, patch)
	if err != nil {
		h.fail(ctx, w, http.MethodPatch, route, err, start)
		return
	}
	h.logger.InfoContext(ctx, "task updated", slog.String("id", id))

	h.respondJSON(w, http.StatusOK, task)
	h.recordMetrics(ctx, http.MethodPatch, route, http.StatusOK, start)
}

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/{id}/toggle"
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.ToggleTask",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	task, err := h.svc.ToggleComplete(id)
	if err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}
	span.SetAttributes(attribute.Bool("task.completed", task.Completed))
	h.logger.InfoContext(ctx, "task toggled", slog.String("id", id), slog.Bool("completed", task.Completed))

	h.respondJSON(w, http.StatusOK, task)
	h.recordMetrics(ctx, http.MethodPost, route, http.StatusOK, start)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/{id}"
	start := time.Now()
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(r.Context(), "TaskHandler.DeleteTask",
		trace.WithAttributes(attribute.String("task.id", id)),
	)
	defer span.End()

	if err := h.svc.Delete(id); err != nil {
		h.fail(ctx, w, http.MethodDelete, route, err, start)
		return
	}
	h.logger.InfoContext(ctx, "task deleted", slog.String("id", id))

	w.WriteHeader(http.StatusNoContent)
	h.recordMetrics(ctx, http.MethodDelete, route, http.StatusNoContent, start)
}

func (h *TaskHandler) UndoDelete(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/undo"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.UndoDelete")
	defer span.End()

	task, err := h.svc.UndoDelete()
	if err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}
	h.logger.InfoContext(ctx, "task restored", slog.String("id", task.ID))

	h.respondJSON(w, http.StatusOK, task)
	h.recordMetrics(ctx, http.MethodPost, route, http.StatusOK, start)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (h *TaskHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/reorder"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.ReorderTasks")
	defer span.End()

	var req reorderRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}
	span.SetAttributes(attribute.Int("task.count", len(req.IDs)))

	if err := h.svc.Reorder(req.IDs); err != nil {
		h.fail(ctx, w, http.MethodPost, route, err, start)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	h.recordMetrics(ctx, http.MethodPost, route, http.StatusNoContent, start)
}

func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	const route = "/todos/completed"
	start := time.Now()

	ctx, span := tracer.Start(r.Context(), "TaskHandler.ClearCompleted")
	defer span.End()

	removed := h.svc.ClearCompleted()
	span.SetAttributes(attribute.Int("task.removed", removed))
	h.logger.InfoContext(ctx, "completed tasks cleared", slog.Int("removed", removed))

	h.respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
	h.recordMetrics(ctx, http.MethodDelete, route, http.StatusOK, start)
}
