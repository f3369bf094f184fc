package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nested", "planner.db")
	db, err := NewDB(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewDB() err=%v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSnapshotRepository_LoadEmpty(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	_, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if found {
		t.Fatalf("Load() found=true on a fresh database")
	}
}

func TestSnapshotRepository_RoundTrip(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))
	ctx := context.Background()

	loc := time.FixedZone("UTC+2", 2*60*60)
	created := time.Date(2026, 10, 19, 9, 15, 30, 123456789, loc)
	due := time.Date(2026, 10, 21, 0, 0, 0, 0, loc)
	done := created.Add(90 * time.Minute)

	snap := model.Snapshot{
		Tasks: []model.Task{
			{
				ID: "b", Title: "write report", Description: "Q4 numbers",
				CreatedAt: created, UpdatedAt: created,
				DueDate: &due, Priority: model.PriorityHigh, Category: "work",
				Tags: []string{"q4", "finance"}, Order: 2,
			},
			{
				ID: "a", Title: "buy milk", Completed: true,
				CreatedAt: created, UpdatedAt: done, CompletedAt: &done,
				Priority: model.PriorityLow, Category: "shopping", Order: 1,
			},
		},
		Categories: model.DefaultCategories(),
		Settings: model.Settings{
			Theme: model.ThemeDark, DefaultView: model.ViewToday,
			EnableHaptics: false, EnableNotifications: true, AutoDeleteCompleted: 7,
		},
	}

	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("Save() err=%v", err)
	}

	got, found, err := repo.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load() found=%v err=%v", found, err)
	}

	if len(got.Tasks) != 2 {
		t.Fatalf("Load() tasks=%d, want 2", len(got.Tasks))
	}
	// Collection order survives even though ids sort the other way.
	if got.Tasks[0].ID != "b" || got.Tasks[1].ID != "a" {
		t.Fatalf("Load() order=%s,%s, want b,a", got.Tasks[0].ID, got.Tasks[1].ID)
	}

	first := got.Tasks[0]
	if !first.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt=%v, want %v", first.CreatedAt, created)
	}
	if first.DueDate == nil || !first.DueDate.Equal(due) {
		t.Errorf("DueDate=%v, want %v", first.DueDate, due)
	}
	if !reflect.DeepEqual(first.Tags, []string{"q4", "finance"}) {
		t.Errorf("Tags=%v", first.Tags)
	}
	if first.Priority != model.PriorityHigh || first.Order != 2 || first.Description != "Q4 numbers" {
		t.Errorf("task fields=%+v", first)
	}

	second := got.Tasks[1]
	if !second.Completed || second.CompletedAt == nil || !second.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt=%v completed=%v, want %v", second.CompletedAt, second.Completed, done)
	}
	if second.DueDate != nil {
		t.Errorf("DueDate=%v, want nil", second.DueDate)
	}
	if len(second.Tags) != 0 {
		t.Errorf("Tags=%v, want empty", second.Tags)
	}

	if !reflect.DeepEqual(got.Categories, snap.Categories) {
		t.Errorf("Categories=%+v, want %+v", got.Categories, snap.Categories)
	}
	if got.Settings != snap.Settings {
		t.Errorf("Settings=%+v, want %+v", got.Settings, snap.Settings)
	}
}

func TestSnapshotRepository_SaveReplaces(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	first := model.DefaultSnapshot()
	first.Tasks = []model.Task{
		{ID: "1", Title: "one", CreatedAt: now, UpdatedAt: now, Priority: model.PriorityMedium, Category: "work"},
		{ID: "2", Title: "two", CreatedAt: now, UpdatedAt: now, Priority: model.PriorityMedium, Category: "work"},
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() err=%v", err)
	}

	second := model.DefaultSnapshot()
	second.Categories = []model.Category{{ID: "personal", Name: "Personal", Color: "#8B5CF6"}}
	second.Tasks = []model.Task{
		{ID: "2", Title: "two renamed", CreatedAt: now, UpdatedAt: now, Priority: model.PriorityMedium, Category: "personal"},
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save() err=%v", err)
	}

	got, _, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "two renamed" {
		t.Fatalf("Load() tasks=%+v, want only the renamed task", got.Tasks)
	}
	if len(got.Categories) != 1 {
		t.Fatalf("Load() categories=%d, want 1", len(got.Categories))
	}

	if err := repo.Save(ctx, model.Snapshot{Settings: model.DefaultSettings()}); err != nil {
		t.Fatalf("Save(empty) err=%v", err)
	}
	got, found, err := repo.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load() found=%v err=%v", found, err)
	}
	if len(got.Tasks) != 0 || len(got.Categories) != 0 {
		t.Fatalf("Load() after empty save = %d tasks, %d categories", len(got.Tasks), len(got.Categories))
	}
}

func TestSubscriberRepository(t *testing.T) {
	repo := NewSubscriberRepository(newTestDB(t))
	ctx := context.Background()

	sub, err := repo.Upsert(ctx, 42, 1001, "Ada", "ada")
	if err != nil {
		t.Fatalf("Upsert() err=%v", err)
	}
	if sub.ID == 0 || sub.ChatID != 1001 {
		t.Fatalf("Upsert() = %+v", sub)
	}

	again, err := repo.Upsert(ctx, 42, 2002, "Ada L.", "ada")
	if err != nil {
		t.Fatalf("Upsert() err=%v", err)
	}
	if again.ID != sub.ID {
		t.Fatalf("Upsert() created a second row: id=%d, want %d", again.ID, sub.ID)
	}
	if _, err := repo.Upsert(ctx, 7, 3003, "Bob", ""); err != nil {
		t.Fatalf("Upsert() err=%v", err)
	}

	subs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() err=%v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("ListAll() = %d subscribers, want 2", len(subs))
	}
	if subs[0].ChatID != 2002 || subs[0].FirstName != "Ada L." {
		t.Fatalf("ListAll()[0] = %+v, want refreshed chat and name", subs[0])
	}

	removed, err := repo.Remove(ctx, 42)
	if err != nil || !removed {
		t.Fatalf("Remove() = %v, %v, want true, nil", removed, err)
	}
	removed, err = repo.Remove(ctx, 42)
	if err != nil || removed {
		t.Fatalf("Remove() again = %v, %v, want false, nil", removed, err)
	}

	subs, _ = repo.ListAll(ctx)
	if len(subs) != 1 || subs[0].TelegramID != 7 {
		t.Fatalf("ListAll() after remove = %+v", subs)
	}
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := t.TempDir()
	cases := []string{
		":memory:",
		"file::memory:?cache=shared",
		"planner.db",
		"file:" + filepath.Join(dir, "a", "b.db") + "?_busy_timeout=5000",
	}
	for _, dsn := range cases {
		if err := ensureDirForSQLite(dsn); err != nil {
			t.Errorf("ensureDirForSQLite(%q) err=%v", dsn, err)
		}
	}
}
