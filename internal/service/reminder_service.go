package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"todo-planner/internal/aggregate"
	"todo-planner/internal/model"
)

// upcomingLimit caps the upcoming section of the daily summary.
const upcomingLimit = 5

// ReminderService builds human-readable summaries for scheduled reports.
type ReminderService struct {
	tasks *TaskService
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{tasks: tasks}
}

// DailySummary renders the report for now as Telegram HTML.
func (s *ReminderService) DailySummary(now time.Time) string {
	all := s.tasks.Tasks()
	stats := aggregate.Compute(all, now)

	catNames := make(map[string]string)
	for _, cat := range s.tasks.Categories() {
		catNames[cat.ID] = cat.Name
	}

	var overdue []model.Task
	for _, task := range aggregate.View(all, model.ViewAll, now) {
		if task.DueDate != nil && aggregate.IsOverdue(*task.DueDate, now) {
			overdue = append(overdue, task)
		}
	}
	today := aggregate.View(all, model.ViewToday, now)
	upcoming := aggregate.View(all, model.ViewUpcoming, now)
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString(fmt.Sprintf("✅ Done today: <b>%d</b> · this week: <b>%d</b>\n", stats.CompletedToday, stats.CompletedThisWeek))
	builder.WriteString(fmt.Sprintf("🔥 Streak: <b>%d</b> (best %d) · completion %.0f%%\n", stats.CurrentStreak, stats.LongestStreak, stats.CompletionRate))
	builder.WriteString(aggregate.Motivation(stats.CompletionRate))
	builder.WriteString("\n")

	writeSection(&builder, "\n⚠️ <b>Overdue</b>\n", overdue, catNames, now)
	writeSection(&builder, "\n📌 <b>Due today</b>\n", today, catNames, now)
	writeSection(&builder, "\n🗓 <b>Upcoming</b>\n", upcoming, catNames, now)

	if len(overdue) == 0 && len(today) == 0 && len(upcoming) == 0 {
		builder.WriteString("\n— nothing scheduled\n")
	}

	return strings.TrimSpace(builder.String())
}

func writeSection(b *strings.Builder, header string, tasks []model.Task, catNames map[string]string, now time.Time) {
	if len(tasks) == 0 {
		return
	}
	b.WriteString(header)
	for _, task := range tasks {
		b.WriteString(FormatTask(task, catNames, now))
	}
}

// FormatTask renders one task line with its category, due label and priority.
func FormatTask(task model.Task, catNames map[string]string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s", PriorityIcon(task.Priority), html.EscapeString(strings.TrimSpace(task.Title))))

	if name := strings.TrimSpace(catNames[task.Category]); name != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
	}

	if task.DueDate != nil {
		due := task.DueDate.In(now.Location())
		if !task.Completed && aggregate.IsOverdue(due, now) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>overdue</b>", due.Format("2006-01-02")))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s", aggregate.DueLabel(due, now)))
		}
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// PriorityIcon marks a task line by urgency.
func PriorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "🔴"
	case model.PriorityHigh:
		return "🟠"
	case model.PriorityLow:
		return "⚪"
	default:
		return "🟢"
	}
}
