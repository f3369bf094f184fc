package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"todo-planner/internal/clock"
	"todo-planner/internal/model"
	"todo-planner/internal/service"
	"todo-planner/internal/telemetry"
)

type testServer struct {
	t     *testing.T
	clock *clock.Manual
	svc   *service.TaskService
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clk := clock.NewManual(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	n := 0
	svc := service.NewTaskService(clk, nil, service.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))

	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"), svc.Count)
	if err != nil {
		t.Fatalf("NewMetrics() err=%v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewTaskHandler(svc, logger, metrics)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &testServer{t: t, clock: clk, svc: svc, srv: srv}
}

func (ts *testServer) do(method, path, body string) *http.Response {
	ts.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	if err != nil {
		ts.t.Fatalf("NewRequest() err=%v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s err=%v", method, path, err)
	}
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s status=%d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body err=%v", err)
	}
}

func TestCreateTask(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodPost, "/todos", `{"title":"write report","dueDate":"2026-10-19T18:00:00Z"}`)
	expectStatus(t, resp, http.StatusCreated)

	var task model.Task
	decodeBody(t, resp, &task)
	if task.ID != "id-1" || task.Priority != model.PriorityMedium || task.Category != model.FallbackCategoryID {
		t.Fatalf("created task=%+v", task)
	}
	if ts.svc.Count() != 1 {
		t.Fatalf("Count()=%d, want 1", ts.svc.Count())
	}
}

func TestCreateTask_Rejected(t *testing.T) {
	ts := newTestServer(t)

	cases := map[string]string{
		"empty title":  `{"title":"   "}`,
		"bad priority": `{"title":"x","priority":"asap"}`,
		"not json":     `{"title":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, "/todos", body)
			expectStatus(t, resp, http.StatusBadRequest)
		})
	}
	if ts.svc.Count() != 0 {
		t.Fatalf("Count()=%d after rejected requests, want 0", ts.svc.Count())
	}
}

func TestListTasks_Views(t *testing.T) {
	ts := newTestServer(t)
	today := time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)
	later := time.Date(2026, 10, 24, 12, 0, 0, 0, time.UTC)
	ts.svc.Add(model.TaskDraft{Title: "today", DueDate: &today})
	ts.svc.Add(model.TaskDraft{Title: "later", DueDate: &later})
	ts.svc.Add(model.TaskDraft{Title: "someday"})

	var all []model.Task
	decodeBody(t, ts.do(http.MethodGet, "/todos", ""), &all)
	if len(all) != 3 {
		t.Fatalf("GET /todos returned %d tasks, want 3", len(all))
	}

	var todays []model.Task
	decodeBody(t, ts.do(http.MethodGet, "/todos?view=today", ""), &todays)
	if len(todays) != 1 || todays[0].Title != "today" {
		t.Fatalf("GET /todos?view=today = %+v", todays)
	}

	var upcoming []model.Task
	decodeBody(t, ts.do(http.MethodGet, "/todos?view=upcoming", ""), &upcoming)
	if len(upcoming) != 1 || upcoming[0].Title != "later" {
		t.Fatalf("GET /todos?view=upcoming = %+v", upcoming)
	}

	expectStatus(t, ts.do(http.MethodGet, "/todos?view=bogus", ""), http.StatusBadRequest)
}

func TestListTasks_DefaultViewFromSettings(t *testing.T) {
	ts := newTestServer(t)
	ts.svc.Add(model.TaskDraft{Title: "undated"})

	expectStatus(t, ts.do(http.MethodPatch, "/settings", `{"defaultView":"today"}`), http.StatusOK)

	var tasks []model.Task
	decodeBody(t, ts.do(http.MethodGet, "/todos", ""), &tasks)
	if len(tasks) != 0 {
		t.Fatalf("GET /todos with default view today = %+v, want none", tasks)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	task := ts.svc.Add(model.TaskDraft{Title: "stretch"})

	expectStatus(t, ts.do(http.MethodGet, "/todos/missing", ""), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPatch, "/todos/missing", `{"title":"x"}`), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPatch, "/todos/"+task.ID, `{"title":""}`), http.StatusBadRequest)

	var updated model.Task
	resp := ts.do(http.MethodPatch, "/todos/"+task.ID, `{"title":"long stretch","priority":"high"}`)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &updated)
	if updated.Title != "long stretch" || updated.Priority != model.PriorityHigh {
		t.Fatalf("PATCH result=%+v", updated)
	}

	var toggled model.Task
	resp = ts.do(http.MethodPost, "/todos/"+task.ID+"/toggle", "")
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &toggled)
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("toggle result=%+v", toggled)
	}
	ts.clock.Advance(time.Minute)

	var stats struct {
		model.Stats
		Motivation string `json:"motivation"`
	}
	decodeBody(t, ts.do(http.MethodGet, "/stats", ""), &stats)
	if stats.CompletedToday != 1 || stats.CurrentStreak != 1 || stats.CompletionRate != 100 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.Motivation == "" {
		t.Fatalf("stats motivation is empty")
	}

	expectStatus(t, ts.do(http.MethodDelete, "/todos/"+task.ID, ""), http.StatusNoContent)
	expectStatus(t, ts.do(http.MethodDelete, "/todos/"+task.ID, ""), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPost, "/todos/undo", ""), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPost, "/todos/undo", ""), http.StatusConflict)

	if _, err := ts.svc.Get(task.ID); err != nil {
		t.Fatalf("Get() after undo err=%v", err)
	}
}

func TestReorderTasks(t *testing.T) {
	ts := newTestServer(t)
	a := ts.svc.Add(model.TaskDraft{Title: "a"})
	b := ts.svc.Add(model.TaskDraft{Title: "b"})

	expectStatus(t, ts.do(http.MethodPost, "/todos/reorder", `{"ids":["`+b.ID+`","ghost"]}`), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPost, "/todos/reorder", `{"ids":["`+b.ID+`","`+b.ID+`"]}`), http.StatusBadRequest)
	expectStatus(t, ts.do(http.MethodPost, "/todos/reorder", `{"ids":["`+b.ID+`","`+a.ID+`"]}`), http.StatusNoContent)

	got, _ := ts.svc.Get(a.ID)
	if got.Order != 1 {
		t.Fatalf("order of a=%d, want 1", got.Order)
	}
}

func TestClearCompleted(t *testing.T) {
	ts := newTestServer(t)
	ts.svc.Add(model.TaskDraft{Title: "done", Completed: true})
	ts.svc.Add(model.TaskDraft{Title: "open"})

	var body map[string]int
	resp := ts.do(http.MethodDelete, "/todos/completed", "")
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &body)
	if body["removed"] != 1 || ts.svc.Count() != 1 {
		t.Fatalf("removed=%d count=%d, want 1 and 1", body["removed"], ts.svc.Count())
	}
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(http.MethodPost, "/categories", `{"name":""}`), http.StatusBadRequest)

	var created model.Category
	resp := ts.do(http.MethodPost, "/categories", `{"name":"Garden","color":"#22C55E"}`)
	expectStatus(t, resp, http.StatusCreated)
	decodeBody(t, resp, &created)

	garden := created.ID
	task := ts.svc.Add(model.TaskDraft{Title: "weed", Category: garden})

	expectStatus(t, ts.do(http.MethodPatch, "/categories/"+garden, `{"name":"Yard"}`), http.StatusOK)
	expectStatus(t, ts.do(http.MethodPatch, "/categories/nope", `{"name":"Yard"}`), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodDelete, "/categories/"+model.FallbackCategoryID, ""), http.StatusConflict)
	expectStatus(t, ts.do(http.MethodDelete, "/categories/"+garden, ""), http.StatusNoContent)

	got, _ := ts.svc.Get(task.ID)
	if got.Category != model.FallbackCategoryID {
		t.Fatalf("task category=%q after delete, want %q", got.Category, model.FallbackCategoryID)
	}

	var categories []model.Category
	decodeBody(t, ts.do(http.MethodGet, "/categories", ""), &categories)
	if len(categories) != len(model.DefaultCategories()) {
		t.Fatalf("GET /categories returned %d, want %d", len(categories), len(model.DefaultCategories()))
	}
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(http.MethodPatch, "/settings", `{"theme":"neon"}`), http.StatusBadRequest)
	expectStatus(t, ts.do(http.MethodPatch, "/settings", `{"autoDeleteCompleted":-1}`), http.StatusBadRequest)

	var settings model.Settings
	resp := ts.do(http.MethodPatch, "/settings", `{"theme":"dark","autoDeleteCompleted":7}`)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &settings)
	if settings.Theme != model.ThemeDark || settings.AutoDeleteCompleted != 7 || !settings.EnableHaptics {
		t.Fatalf("settings=%+v", settings)
	}
}

func TestExportAndReset(t *testing.T) {
	ts := newTestServer(t)
	ts.svc.Add(model.TaskDraft{Title: "keep me"})

	resp := ts.do(http.MethodGet, "/export", "")
	expectStatus(t, resp, http.StatusOK)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("Content-Disposition=%q", cd)
	}
	var snap model.Snapshot
	decodeBody(t, resp, &snap)
	if len(snap.Tasks) != 1 || len(snap.Categories) == 0 {
		t.Fatalf("export=%+v", snap)
	}

	expectStatus(t, ts.do(http.MethodPost, "/reset", ""), http.StatusNoContent)
	if ts.svc.Count() != 0 {
		t.Fatalf("Count()=%d after reset, want 0", ts.svc.Count())
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrTaskNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", model.ErrCategoryNotFound), http.StatusNotFound},
		{model.ErrTitleRequired, http.StatusBadRequest},
		{model.ErrInvalidView, http.StatusBadRequest},
		{model.ErrNothingToUndo, http.StatusConflict},
		{&model.PersistenceError{Op: "save", Err: io.EOF}, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Errorf("statusFor(%v)=%d, want %d", c.err, got, c.want)
		}
	}
}
