package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"todo-planner/internal/model"
)

type fakeSaver struct {
	saveFn func(context.Context, model.Snapshot) error
}

func (s *fakeSaver) Save(ctx context.Context, snap model.Snapshot) error {
	return s.saveFn(ctx, snap)
}

func snapWith(n int) model.Snapshot {
	s := model.DefaultSnapshot()
	for i := 0; i < n; i++ {
		s.Tasks = append(s.Tasks, model.Task{ID: string(rune('a' + i))})
	}
	return s
}

func TestPersister_FlushWritesLatestOnly(t *testing.T) {
	var saved []int
	p := NewPersister(&fakeSaver{saveFn: func(_ context.Context, s model.Snapshot) error {
		saved = append(saved, len(s.Tasks))
		return nil
	}}, nil, nil)

	p.Notify(snapWith(1))
	p.Notify(snapWith(2))
	p.Notify(snapWith(3))

	if !p.Pending() {
		t.Fatalf("Pending()=false, want true")
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() err=%v, want nil", err)
	}
	if len(saved) != 1 || saved[0] != 3 {
		t.Fatalf("saved=%v, want [3]", saved)
	}
	if p.Pending() {
		t.Fatalf("Pending()=true after Flush")
	}
	if err := p.Flush(context.Background()); err != nil || len(saved) != 1 {
		t.Fatalf("empty Flush saved again: %v err=%v", saved, err)
	}
}

func TestPersister_FailureIsReportedNotRetried(t *testing.T) {
	boom := errors.New("disk full")
	var calls int
	var reported error
	p := NewPersister(&fakeSaver{saveFn: func(context.Context, model.Snapshot) error {
		calls++
		return boom
	}}, nil, func(err error) { reported = err })

	p.Notify(snapWith(1))
	err := p.Flush(context.Background())

	var perr *model.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "save" || !errors.Is(err, boom) {
		t.Fatalf("Flush() err=%v, want save PersistenceError", err)
	}
	if !errors.Is(reported, boom) {
		t.Fatalf("onError got %v, want %v", reported, boom)
	}
	if err := p.Flush(context.Background()); err != nil || calls != 1 {
		t.Fatalf("failed save retried: calls=%d err=%v", calls, err)
	}
}

func TestPersister_MutationSurvivesFailedSave(t *testing.T) {
	failures := make(chan error, 1)
	p := NewPersister(&fakeSaver{saveFn: func(context.Context, model.Snapshot) error {
		return errors.New("read-only filesystem")
	}}, nil, func(err error) { failures <- err })

	svc, _, _ := newTestService()
	svc.notifier = p

	task := svc.Add(model.TaskDraft{Title: "keep me"})
	if err := p.Flush(context.Background()); err == nil {
		t.Fatalf("Flush() err=nil, want failure")
	}

	select {
	case err := <-failures:
		var perr *model.PersistenceError
		if !errors.As(err, &perr) {
			t.Fatalf("side channel got %T, want *model.PersistenceError", err)
		}
	default:
		t.Fatalf("failure not reported on side channel")
	}
	if _, err := svc.Get(task.ID); err != nil {
		t.Fatalf("in-memory task lost after failed save: %v", err)
	}
}

func TestPersister_RunSavesInBackground(t *testing.T) {
	saved := make(chan int, 10)
	p := NewPersister(&fakeSaver{saveFn: func(_ context.Context, s model.Snapshot) error {
		saved <- len(s.Tasks)
		return nil
	}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Notify(snapWith(2))

	select {
	case n := <-saved:
		if n != 2 {
			t.Fatalf("saved %d tasks, want 2", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not save within 2s")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not return after cancel")
	}
}

func TestPersister_SavesNeverOverlap(t *testing.T) {
	var inFlight, maxInFlight int32
	var mu sync.Mutex
	var last int
	p := NewPersister(&fakeSaver{saveFn: func(_ context.Context, s model.Snapshot) error {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		mu.Lock()
		last = len(s.Tasks)
		mu.Unlock()
		atomic.AddInt32(&inFlight, -1)
		return nil
	}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Flush(context.Background())
		}()
		p.Notify(snapWith(i))
	}
	wg.Wait()
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Fatalf("max concurrent saves=%d, want 1", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != 20 {
		t.Fatalf("last saved snapshot has %d tasks, want 20", last)
	}
}
