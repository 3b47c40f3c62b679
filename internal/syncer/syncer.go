package syncer

import (
	"context"
	"errors"

	"tasksync/internal/models"
	"tasksync/internal/remote"
	"tasksync/pkg/logger"
)

// Client is the remote surface the processor replays against.
type Client interface {
	Probe(ctx context.Context) error
	CreateTask(ctx context.Context, t models.Task) error
	UpdateTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Callbacks report per-operation outcomes back to the queue owner. The
// processor itself never touches persisted state: success means "remove from
// the queue", retryable means "bump the counter and keep it queued",
// permanent means "drop it" (the owner dead-letters it).
type Callbacks struct {
	OnSuccess   func(ctx context.Context, opID string)
	OnRetryable func(ctx context.Context, opID string)
	OnPermanent func(ctx context.Context, opID string, err error)
}

// Processor replays queued sync operations strictly sequentially. Order
// matters: a create for task X must reach the server before any later
// update/delete for X.
type Processor struct {
	client     Client
	maxRetries int
}

// New builds a processor with the given retry ceiling.
func New(client Client, maxRetries int) *Processor {
	return &Processor{client: client, maxRetries: maxRetries}
}

// SyncAll replays ops in enqueue order. An empty batch is a no-op. If the
// reachability probe fails the whole pass aborts with remote.ErrUnreachable
// before any operation is attempted: no callbacks fire and no retry counters
// move, so the next trigger retries the same set. An individual operation's
// failure never stops the rest of the batch, and a failed operation is not
// retried within the same pass.
func (p *Processor) SyncAll(ctx context.Context, ops []models.SyncOperation, cb Callbacks) error {
	if len(ops) == 0 {
		return nil
	}
	if err := p.client.Probe(ctx); err != nil {
		logger.Info(ctx, "Sync pass aborted, remote unreachable", "pending", len(ops))
		return remote.ErrUnreachable
	}

	var firstErr error
	for _, op := range ops {
		err := p.replay(ctx, op)
		if err == nil {
			logger.Debug(ctx, "Sync operation replayed",
				"op_id", op.ID, "type", string(op.Type), "task_id", op.TaskID)
			if cb.OnSuccess != nil {
				cb.OnSuccess(ctx, op.ID)
			}
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if op.Retries < p.maxRetries {
			logger.Warn(ctx, "Sync operation failed, will retry",
				"op_id", op.ID, "type", string(op.Type), "retries", op.Retries, "error", err)
			if cb.OnRetryable != nil {
				cb.OnRetryable(ctx, op.ID)
			}
			continue
		}
		logger.Error(ctx, "Sync operation failed permanently",
			"op_id", op.ID, "type", string(op.Type), "retries", op.Retries, "error", err)
		if cb.OnPermanent != nil {
			cb.OnPermanent(ctx, op.ID, err)
		}
	}
	return firstErr
}

var errMissingSnapshot = errors.New("sync operation missing task snapshot")

func (p *Processor) replay(ctx context.Context, op models.SyncOperation) error {
	switch op.Type {
	case models.OpCreate:
		if op.TaskData == nil {
			return errMissingSnapshot
		}
		return p.client.CreateTask(ctx, *op.TaskData)
	case models.OpUpdate:
		if op.TaskData == nil {
			return errMissingSnapshot
		}
		return p.client.UpdateTask(ctx, *op.TaskData)
	case models.OpDelete:
		return p.client.DeleteTask(ctx, op.TaskID)
	}
	return nil
}
