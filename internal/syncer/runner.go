package syncer

import (
	"context"

	"golang.org/x/sync/singleflight"

	"tasksync/internal/store"
	"tasksync/pkg/logger"
)

// Runner ties the processor to the store: it snapshots the pending queue,
// runs a pass under the store's syncing guard and feeds outcomes back through
// the store's queue callbacks. Concurrent triggers are coalesced, so a
// reachability flap or an impatient retry button cannot start overlapping
// passes.
type Runner struct {
	store *store.Store
	proc  *Processor
	group singleflight.Group
}

// NewRunner builds a runner around the store and processor.
func NewRunner(st *store.Store, proc *Processor) *Runner {
	return &Runner{store: st, proc: proc}
}

// Trigger runs one sync pass. It is a silent no-op when a pass is already
// running or the pending queue is empty.
func (r *Runner) Trigger(ctx context.Context) {
	_, _, _ = r.group.Do("sync", func() (interface{}, error) {
		r.run(ctx)
		return nil, nil
	})
}

func (r *Runner) run(ctx context.Context) {
	ops := r.store.PendingSync()
	if len(ops) == 0 {
		return
	}
	if !r.store.TryBeginSync() {
		logger.Debug(ctx, "Sync already running, trigger ignored")
		return
	}
	logger.Info(ctx, "Sync pass started", "pending", len(ops))

	err := r.proc.SyncAll(ctx, ops, Callbacks{
		OnSuccess:   func(ctx context.Context, opID string) { r.store.MarkSynced(ctx, opID) },
		OnRetryable: func(ctx context.Context, opID string) { r.store.BumpRetry(ctx, opID) },
		OnPermanent: func(ctx context.Context, opID string, cause error) {
			r.store.DeadLetterOp(ctx, opID, cause)
		},
	})
	r.store.FinishSync(ctx, err)
	logger.Info(ctx, "Sync pass finished",
		"remaining", r.store.PendingCount(), "status", string(r.store.SyncStatus()))
}
