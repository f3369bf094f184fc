package aggregate

import (
	"time"

	jnow "github.com/jinzhu/now"

	"todo-planner/internal/model"
)

// DueLabel renders a due date relative to now: "Today", "Tomorrow", the
// weekday name within the current week, otherwise "Jan 2".
func DueLabel(due, now time.Time) string {
	due = due.In(now.Location())
	switch {
	case sameDay(due, now):
		return "Today"
	case sameDay(due, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	}

	week := jnow.With(now)
	if !due.Before(week.BeginningOfWeek()) && !due.After(week.EndOfWeek()) {
		return due.Weekday().String()
	}
	return due.Format("Jan 2")
}

// IsOverdue reports whether due fell on a calendar day before today.
func IsOverdue(due, now time.Time) bool {
	loc := now.Location()
	return dayKey(due, loc).Before(dayKey(now, loc))
}

// IsDueSoon reports whether due is today or within the next three days.
func IsDueSoon(due, now time.Time) bool {
	loc := now.Location()
	gap := daysBetween(dayKey(now, loc), dayKey(due, loc))
	return gap >= 0 && gap <= 3
}

// Motivation picks the stats screen message for a completion rate.
func Motivation(rate float64) string {
	switch {
	case rate >= 90:
		return "🎉 Amazing! You're crushing it!"
	case rate >= 70:
		return "💪 Great work! Keep it up!"
	case rate >= 50:
		return "👍 You're making progress!"
	case rate > 0:
		return "🌱 Every task completed is a step forward!"
	default:
		return "✨ Start your journey by completing a task!"
	}
}

// Expired returns the ids of completed tasks whose completion is older than
// days. Zero or negative days disables expiry.
func Expired(tasks []model.Task, days int, now time.Time) []string {
	if days <= 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -days)

	var ids []string
	for _, t := range tasks {
		if t.Completed && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
