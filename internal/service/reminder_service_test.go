package service

import (
	"strings"
	"testing"
	"time"

	"todo-planner/internal/model"
)

func TestDailySummary_Sections(t *testing.T) {
	svc, clk, _ := newTestService()
	now := clk.Now()

	yesterday := now.Add(-24 * time.Hour)
	later := now.Add(2 * time.Hour)
	nextWeek := now.Add(6 * 24 * time.Hour)

	svc.Add(model.TaskDraft{Title: "pay <rent>", DueDate: &yesterday, Category: "personal"})
	svc.Add(model.TaskDraft{Title: "standup", DueDate: &later, Category: "work", Priority: model.PriorityUrgent})
	svc.Add(model.TaskDraft{Title: "dentist", DueDate: &nextWeek, Category: "health"})
	done := svc.Add(model.TaskDraft{Title: "stretch"})
	svc.ToggleComplete(done.ID)

	got := NewReminderService(svc).DailySummary(clk.Advance(time.Minute))

	for _, want := range []string{
		"<b>Daily report</b>",
		"Mon, 19 Oct 2026",
		"Done today: <b>1</b>",
		"Streak: <b>1</b>",
		"completion 25%",
		"⚠️ <b>Overdue</b>",
		"pay &lt;rent&gt; <i>(Personal)</i>",
		"overdue",
		"📌 <b>Due today</b>",
		"🔴 standup <i>(Work)</i>",
		"🗓 <b>Upcoming</b>",
		"dentist",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "stretch") {
		t.Fatalf("completed task listed in summary:\n%s", got)
	}
}

func TestDailySummary_Empty(t *testing.T) {
	svc, clk, _ := newTestService()
	got := NewReminderService(svc).DailySummary(clk.Now())
	if !strings.Contains(got, "nothing scheduled") {
		t.Fatalf("summary=%q, want nothing scheduled", got)
	}
	if !strings.Contains(got, "Start your journey") {
		t.Fatalf("summary missing motivation line:\n%s", got)
	}
}
