package service

import (
	"context"
	"log/slog"
	"sync"

	"todo-planner/internal/model"
)

// Saver durably stores a snapshot of the collection.
type Saver interface {
	Save(ctx context.Context, snap model.Snapshot) error
}

// Persister writes snapshots in the background, one save at a time. Notify
// never blocks; snapshots that arrive while a save is running are coalesced
// so only the newest one is written next.
type Persister struct {
	saver   Saver
	logger  *slog.Logger
	onError func(error)

	mu      sync.Mutex
	pending *model.Snapshot
	wake    chan struct{}

	saveMu sync.Mutex
}

// NewPersister creates a persister. onError is called with a
// *model.PersistenceError for every failed save; it may be nil.
func NewPersister(saver Saver, logger *slog.Logger, onError func(error)) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		saver:   saver,
		logger:  logger,
		onError: onError,
		wake:    make(chan struct{}, 1),
	}
}

// Notify records snap as the latest state to save.
func (p *Persister) Notify(snap model.Snapshot) {
	p.mu.Lock()
	p.pending = &snap
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run saves pending snapshots until ctx is done. A save that is already
// running when ctx is cancelled is allowed to finish. Call Flush afterwards
// to write anything still pending.
func (p *Persister) Run(ctx context.Context) {
	saveCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			_ = p.Flush(saveCtx)
		}
	}
}

// Flush synchronously saves the pending snapshot, if any. Failed saves are
// reported, not retried.
func (p *Persister) Flush(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	p.mu.Unlock()

	if snap == nil {
		return nil
	}

	if err := p.saver.Save(ctx, *snap); err != nil {
		perr := &model.PersistenceError{Op: "save", Err: err}
		p.logger.ErrorContext(ctx, "failed to save collection", slog.Any("error", err))
		if p.onError != nil {
			p.onError(perr)
		}
		return perr
	}

	p.logger.DebugContext(ctx, "collection saved", slog.Int("tasks", len(snap.Tasks)))
	return nil
}

// Pending reports whether a snapshot is waiting to be saved.
func (p *Persister) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}
