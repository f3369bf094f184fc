package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-planner/internal/aggregate"
	"todo-planner/internal/clock"
	"todo-planner/internal/model"
)

// undoLimit bounds the number of deleted tasks kept for UndoDelete.
const undoLimit = 20

// Notifier receives the collection after every successful mutation.
type Notifier interface {
	Notify(model.Snapshot)
}

// SnapshotLoader reads the persisted collection. found is false when
// nothing has been saved yet.
type SnapshotLoader interface {
	Load(ctx context.Context) (snap model.Snapshot, found bool, err error)
}

type noopNotifier struct{}

func (noopNotifier) Notify(model.Snapshot) {}

// TaskService owns the canonical task, category and settings state.
// Mutations are serialized and replace whole records, so readers never see
// a half-applied change.
type TaskService struct {
	mu         sync.Mutex
	clock      clock.Clock
	notifier   Notifier
	logger     *slog.Logger
	newID      func() string
	tasks      []model.Task
	categories []model.Category
	settings   model.Settings
	deleted    []model.Task
}

type Option func(*TaskService)

// WithIDGenerator replaces the uuid generator used for new records.
func WithIDGenerator(fn func() string) Option {
	return func(s *TaskService) { s.newID = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *TaskService) { s.logger = logger }
}

func NewTaskService(clk clock.Clock, notifier Notifier, opts ...Option) *TaskService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	s := &TaskService{
		clock:    clk,
		notifier: notifier,
		logger:   slog.Default(),
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.replaceLocked(model.DefaultSnapshot())
	return s
}

// Hydrate replaces the in-memory state with the persisted collection. On a
// load failure the state falls back to defaults and the error is returned
// wrapped in model.PersistenceError. Hydrate does not trigger a save.
func (s *TaskService) Hydrate(ctx context.Context, loader SnapshotLoader) error {
	snap, found, err := loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.replaceLocked(model.DefaultSnapshot())
		return &model.PersistenceError{Op: "load", Err: err}
	}
	if !found {
		s.replaceLocked(model.DefaultSnapshot())
		return nil
	}

	if len(snap.Categories) == 0 {
		snap.Categories = model.DefaultCategories()
	}
	defaults := model.DefaultSettings()
	if snap.Settings.Theme == "" {
		snap.Settings.Theme = defaults.Theme
	}
	if snap.Settings.DefaultView == "" {
		snap.Settings.DefaultView = defaults.DefaultView
	}
	s.replaceLocked(snap)

	s.logger.Info("collection hydrated",
		slog.Int("tasks", len(s.tasks)),
		slog.Int("categories", len(s.categories)),
	)
	return nil
}

// Add creates a task from draft. Validation is the caller's job.
func (s *TaskService) Add(draft model.TaskDraft) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	task := model.Task{
		ID:          s.newID(),
		Title:       draft.Title,
		Description: draft.Description,
		Completed:   draft.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
		Priority:    draft.Priority,
		Category:    draft.Category,
		Order:       len(s.tasks),
	}
	if draft.DueDate != nil {
		due := *draft.DueDate
		task.DueDate = &due
	}
	if draft.Tags != nil {
		task.Tags = append([]string(nil), draft.Tags...)
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Category == "" {
		task.Category = model.FallbackCategoryID
	}
	if task.Completed {
		completedAt := now
		task.CompletedAt = &completedAt
	}

	s.tasks = append(s.tasks, task)
	s.commitLocked()
	return task.Clone()
}

// Update merges patch into the task with the given id.
func (s *TaskService) Update(id string, patch model.TaskPatch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, model.ErrTaskNotFound
	}

	updated := s.tasks[i].Clone()
	patch.Apply(&updated)
	updated.UpdatedAt = s.clock.Now()
	s.tasks[i] = updated

	s.commitLocked()
	return updated.Clone(), nil
}

// ToggleComplete flips the completion flag and stamps or clears CompletedAt.
func (s *TaskService) ToggleComplete(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, model.ErrTaskNotFound
	}

	now := s.clock.Now()
	updated := s.tasks[i].Clone()
	updated.Completed = !updated.Completed
	if updated.Completed {
		completedAt := now
		updated.CompletedAt = &completedAt
	} else {
		updated.CompletedAt = nil
	}
	updated.UpdatedAt = now
	s.tasks[i] = updated

	s.commitLocked()
	return updated.Clone(), nil
}

// Delete removes the task permanently. The removed task is kept in a bounded
// undo buffer that is not part of the persisted collection.
func (s *TaskService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.ErrTaskNotFound
	}

	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)

	s.deleted = append(s.deleted, removed)
	if len(s.deleted) > undoLimit {
		s.deleted = s.deleted[len(s.deleted)-undoLimit:]
	}

	s.commitLocked()
	return nil
}

// UndoDelete restores the most recently deleted task. A task whose category
// was deleted in the meantime comes back in the fallback category.
func (s *TaskService) UndoDelete() (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.deleted) == 0 {
		return model.Task{}, model.ErrNothingToUndo
	}
	last := s.deleted[len(s.deleted)-1]
	s.deleted = s.deleted[:len(s.deleted)-1]

	if s.indexLocked(last.ID) >= 0 {
		return model.Task{}, model.ErrDuplicateID
	}
	if s.categoryIndexLocked(last.Category) < 0 {
		last = last.Clone()
		last.Category = model.FallbackCategoryID
		last.UpdatedAt = s.clock.Now()
	}
	s.tasks = append(s.tasks, last)

	s.commitLocked()
	return last.Clone(), nil
}

// Reorder assigns each listed task its position in ids as the new order.
// Tasks not listed keep their order. Nothing changes when ids names an
// unknown task or repeats one.
func (s *TaskService) Reorder(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := make(map[string]int, len(ids))
	for pos, id := range ids {
		if _, dup := positions[id]; dup {
			return model.ErrDuplicateID
		}
		if s.indexLocked(id) < 0 {
			return model.ErrTaskNotFound
		}
		positions[id] = pos
	}

	now := s.clock.Now()
	for i := range s.tasks {
		pos, ok := positions[s.tasks[i].ID]
		if !ok {
			continue
		}
		updated := s.tasks[i].Clone()
		updated.Order = pos
		updated.UpdatedAt = now
		s.tasks[i] = updated
	}

	s.commitLocked()
	return nil
}

// ClearCompleted removes every completed task and returns how many were removed.
func (s *TaskService) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(func(t model.Task) bool { return t.Completed })
}

// PurgeExpired applies the auto-delete setting: completed tasks older than
// the configured number of days are removed.
func (s *TaskService) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := aggregate.Expired(s.tasks, s.settings.AutoDeleteCompleted, s.clock.Now())
	if len(expired) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(expired))
	for _, id := range expired {
		drop[id] = struct{}{}
	}
	return s.removeLocked(func(t model.Task) bool {
		_, ok := drop[t.ID]
		return ok
	})
}

// Reset drops all tasks and restores default categories and settings.
func (s *TaskService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceLocked(model.DefaultSnapshot())
	s.deleted = nil
	s.commitLocked()
}

func (s *TaskService) UpdateSettings(patch model.SettingsPatch) (model.Settings, error) {
	if err := patch.Validate(); err != nil {
		return model.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	patch.Apply(&s.settings)
	s.commitLocked()
	return s.settings, nil
}

func (s *TaskService) Get(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, model.ErrTaskNotFound
	}
	return s.tasks[i].Clone(), nil
}

// Tasks returns a copy of the collection in insertion order.
func (s *TaskService) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *TaskService) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *TaskService) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *TaskService) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.tasks))
}

// View returns the filtered and sorted tasks for view at the current time.
func (s *TaskService) View(view model.View) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return aggregate.View(s.tasks, view, s.clock.Now())
}

func (s *TaskService) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return aggregate.Compute(s.tasks, s.clock.Now())
}

// Now exposes the injected clock to collaborators that render dates.
func (s *TaskService) Now() time.Time {
	return s.clock.Now()
}

func (s *TaskService) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskService) removeLocked(match func(model.Task) bool) int {
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !match(t) {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	if removed == 0 {
		return 0
	}
	s.tasks = kept
	s.commitLocked()
	return removed
}

func (s *TaskService) replaceLocked(snap model.Snapshot) {
	snap = snap.Clone()
	s.tasks = snap.Tasks
	s.categories = snap.Categories
	s.settings = snap.Settings
}

func (s *TaskService) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Tasks:      s.tasks,
		Categories: s.categories,
		Settings:   s.settings,
	}.Clone()
}

// commitLocked hands the new state to the notifier while the lock is held,
// so snapshots reach the persister in mutation order.
func (s *TaskService) commitLocked() {
	s.notifier.Notify(s.snapshotLocked())
}
