package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"todo-planner/internal/aggregate"
	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func viewTitle(view model.View) string {
	switch view {
	case model.ViewToday:
		return "Today"
	case model.ViewUpcoming:
		return "Upcoming"
	case model.ViewCompleted:
		return "Completed"
	default:
		return "Tasks"
	}
}

// formatListing renders a numbered task list. The numbers are what /done
// and /delete accept.
func formatListing(tasks []model.Task, view model.View, catNames map[string]string, now time.Time) string {
	if len(tasks) == 0 {
		if view == model.ViewCompleted {
			return "Nothing completed yet."
		}
		return "No tasks here. Add one with /new."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>%s</b> (%d)\n\n", viewTitle(view), len(tasks)))
	for i, task := range tasks {
		b.WriteString(fmt.Sprintf("<b>%d.</b> ", i+1))
		b.WriteString(service.FormatTask(task, catNames, now))
	}
	return strings.TrimSpace(b.String())
}

func formatStats(stats model.Stats) string {
	var b strings.Builder
	b.WriteString("📊 <b>Your progress</b>\n")
	b.WriteString(fmt.Sprintf("• Tasks: <b>%d</b>, completed <b>%d</b> (%.0f%%)\n", stats.TotalTodos, stats.CompletedTotal, stats.CompletionRate))
	b.WriteString(fmt.Sprintf("• Today: <b>%d</b> · last 7 days: <b>%d</b>\n", stats.CompletedToday, stats.CompletedThisWeek))
	b.WriteString(fmt.Sprintf("• 🔥 Streak: <b>%d</b> %s (best %d)\n", stats.CurrentStreak, plural(stats.CurrentStreak, "day", "days"), stats.LongestStreak))
	b.WriteString("\n")
	b.WriteString(aggregate.Motivation(stats.CompletionRate))
	return b.String()
}

// formatCategories lists categories with their open task counts.
func formatCategories(categories []model.Category, tasks []model.Task) string {
	open := make(map[string]int)
	for _, t := range tasks {
		if !t.Completed {
			open[t.Category]++
		}
	}

	var b strings.Builder
	b.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		b.WriteString(fmt.Sprintf("• %s — %d open\n", escape(strings.TrimSpace(c.Name)), open[c.ID]))
	}
	return strings.TrimSpace(b.String())
}

// stripIcon drops a leading emoji and spaces from keyboard input.
func stripIcon(text string) string {
	return strings.TrimLeftFunc(strings.TrimSpace(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func isSkipInput(text string) bool {
	value := strings.ToLower(stripIcon(text))
	return strings.TrimSpace(text) == "-" || value == "skip"
}

func isCancelInput(text string) bool {
	return strings.ToLower(stripIcon(text)) == "cancel"
}
