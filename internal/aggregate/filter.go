// Package aggregate derives filtered views and statistics from a task
// collection. Every function is pure: inputs are never modified and results
// are fresh copies.
package aggregate

import (
	"sort"
	"time"

	"todo-planner/internal/model"
)

// Matches reports whether t belongs to view at time now. Calendar days are
// taken in now's location.
func Matches(t model.Task, view model.View, now time.Time) bool {
	switch view {
	case model.ViewToday:
		return !t.Completed && t.DueDate != nil && sameDay(*t.DueDate, now)
	case model.ViewUpcoming:
		return !t.Completed && t.DueDate != nil && t.DueDate.After(endOfDay(now))
	case model.ViewCompleted:
		return t.Completed
	default:
		return !t.Completed
	}
}

// Filter returns copies of the tasks that belong to view, in collection order.
func Filter(tasks []model.Task, view model.View, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, view, now) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// View filters tasks for view and applies the view's ordering.
func View(tasks []model.Task, view model.View, now time.Time) []model.Task {
	out := Filter(tasks, view, now)
	if view == model.ViewCompleted {
		sortCompleted(out)
	} else {
		sortTasks(out, now.Location())
	}
	return out
}

// Sort orders a copy of tasks: incomplete first, then dated before undated
// with the earlier calendar day first, then priority (urgent first), then
// the higher order value. Remaining ties keep collection order.
func Sort(tasks []model.Task, loc *time.Location) []model.Task {
	out := cloneAll(tasks)
	sortTasks(out, loc)
	return out
}

// SortCompleted orders a copy of tasks by completion time, most recent
// first. Tasks without a completion time go last.
func SortCompleted(tasks []model.Task) []model.Task {
	out := cloneAll(tasks)
	sortCompleted(out)
	return out
}

func sortTasks(tasks []model.Task, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j], loc)
	})
}

func less(a, b model.Task, loc *time.Location) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}

	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate != nil:
		da, db := dayKey(*a.DueDate, loc), dayKey(*b.DueDate, loc)
		if !da.Equal(db) {
			return da.Before(db)
		}
	}

	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra < rb
	}
	return a.Order > b.Order
}

func sortCompleted(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].CompletedAt, tasks[j].CompletedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

func cloneAll(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
