package aggregate

import (
	"sort"
	"time"

	"todo-planner/internal/model"
)

// Compute builds the statistics snapshot for tasks at time now.
//
// A completed task without a completion time only counts toward the
// completion rate. The daily and weekly counters are half-open at now:
// completion times at or after now are ignored.
func Compute(tasks []model.Task, now time.Time) model.Stats {
	stats := model.Stats{TotalTodos: len(tasks)}

	today := startOfDay(now)
	weekAgo := now.Add(-7 * day)

	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		stats.CompletedTotal++
		if t.CompletedAt == nil || !t.CompletedAt.Before(now) {
			continue
		}
		if !t.CompletedAt.Before(today) {
			stats.CompletedToday++
		}
		if !t.CompletedAt.Before(weekAgo) {
			stats.CompletedThisWeek++
		}
	}

	if stats.TotalTodos > 0 {
		stats.CompletionRate = 100 * float64(stats.CompletedTotal) / float64(stats.TotalTodos)
	}

	stats.CurrentStreak, stats.LongestStreak = Streaks(tasks, now)
	return stats
}

// Streaks counts runs of consecutive calendar days with at least one
// completion. The current run only counts when its latest day is today or
// yesterday; longest is never less than current.
func Streaks(tasks []model.Task, now time.Time) (current, longest int) {
	days := completionDays(tasks, now.Location())
	if len(days) == 0 {
		return 0, 0
	}

	if gap := daysBetween(days[0], dayKey(now, now.Location())); gap == 0 || gap == 1 {
		current = 1
		for i := 1; i < len(days); i++ {
			if daysBetween(days[i], days[i-1]) != 1 {
				break
			}
			current++
		}
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	if current > longest {
		longest = current
	}
	return current, longest
}

// completionDays returns the distinct completion dates, most recent first.
func completionDays(tasks []model.Task, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{})
	var days []time.Time
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		k := dayKey(*t.CompletedAt, loc)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		days = append(days, k)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}
