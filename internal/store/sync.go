package store

import (
	"context"
	"time"

	"tasksync/internal/models"
	"tasksync/pkg/logger"
)

// PendingSync returns a copy of the not-yet-replicated operation queue in
// enqueue order.
func (s *Store) PendingSync() []models.SyncOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOps(s.doc.PendingSync)
}

// PendingCount returns the size of the pending queue.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.PendingSync)
}

// MarkSynced removes a successfully replayed operation from the queue.
func (s *Store) MarkSynced(ctx context.Context, opID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.PendingSync {
		if s.doc.PendingSync[i].ID == opID {
			s.doc.PendingSync = append(s.doc.PendingSync[:i], s.doc.PendingSync[i+1:]...)
			break
		}
	}
	s.persistLocked(ctx)
}

// BumpRetry increments the retry counter of a failed operation that stays
// queued for the next pass.
func (s *Store) BumpRetry(ctx context.Context, opID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.PendingSync {
		if s.doc.PendingSync[i].ID == opID {
			s.doc.PendingSync[i].Retries++
			break
		}
	}
	s.persistLocked(ctx)
}

// DeadLetterOp moves an operation that exhausted its retries from the pending
// queue to the dead-letter list, recording the last error. The local mutation
// stays applied; the dead letter is the user-visible record that the remote
// never saw it.
func (s *Store) DeadLetterOp(ctx context.Context, opID string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.PendingSync {
		if s.doc.PendingSync[i].ID == opID {
			op := s.doc.PendingSync[i]
			if cause != nil {
				op.LastError = cause.Error()
			}
			s.doc.PendingSync = append(s.doc.PendingSync[:i], s.doc.PendingSync[i+1:]...)
			s.doc.DeadLetter = append(s.doc.DeadLetter, op)
			logger.Warn(ctx, "Sync operation dead-lettered",
				"op_id", op.ID, "type", string(op.Type), "task_id", op.TaskID)
			break
		}
	}
	s.persistLocked(ctx)
}

// DeadLetters returns a copy of the dropped-operation list.
func (s *Store) DeadLetters() []models.SyncOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOps(s.doc.DeadLetter)
}

// ClearDeadLetters empties the dropped-operation list.
func (s *Store) ClearDeadLetters(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DeadLetter = nil
	s.persistLocked(ctx)
}

// TryBeginSync flips the sync status to syncing. It returns false if a pass
// is already running, which makes a concurrent sync request a silent no-op.
func (s *Store) TryBeginSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == models.SyncRunning {
		return false
	}
	s.status = models.SyncRunning
	return true
}

// FinishSync records the pass outcome and schedules the revert to idle after
// the cooldown window, so callers can flash the result before steady state.
func (s *Store) FinishSync(ctx context.Context, err error) {
	s.mu.Lock()
	final := models.SyncSuccess
	if err != nil {
		final = models.SyncError
	}
	s.status = final
	s.mu.Unlock()

	time.AfterFunc(s.cooldown, func() {
		s.mu.Lock()
		if s.status == final {
			s.status = models.SyncIdle
		}
		s.mu.Unlock()
	})
}

// SyncStatus returns the coarse sync state surfaced to the UI.
func (s *Store) SyncStatus() models.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
