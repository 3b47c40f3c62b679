package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tasksync/internal/models"
	"tasksync/pkg/logger"
)

// Sink delivers a fired reminder. The scheduler does not care how: the
// default sink just logs, a real deployment plugs in push delivery.
type Sink interface {
	Deliver(ctx context.Context, taskID, title string, due time.Time) error
}

// LogSink writes fired reminders to the application log.
type LogSink struct{}

// Deliver implements Sink.
func (LogSink) Deliver(ctx context.Context, taskID, title string, due time.Time) error {
	logger.Info(ctx, "Reminder fired", "task_id", taskID, "title", title, "due", due)
	return nil
}

// Scheduler keeps at most one pending one-shot reminder per task id, firing a
// fixed lead time before the task's due timestamp. Reminder state is derived:
// it can always be rebuilt from the task collection, so nothing here is
// persisted.
type Scheduler struct {
	mu     sync.Mutex
	lead   time.Duration
	sink   Sink
	timers map[string]*time.Timer
	fireAt map[string]time.Time
	now    func() time.Time
}

// NewScheduler builds a scheduler firing lead before each due time.
func NewScheduler(lead time.Duration, sink Sink) *Scheduler {
	if sink == nil {
		sink = LogSink{}
	}
	return &Scheduler{
		lead:   lead,
		sink:   sink,
		timers: map[string]*time.Timer{},
		fireAt: map[string]time.Time{},
		now:    time.Now,
	}
}

// WithClock overrides the time source (tests).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// ScheduleReminder schedules the task's due reminder, replacing any existing
// one for the same id. Completed/cancelled tasks and reminder times already
// in the past are a no-op.
func (s *Scheduler) ScheduleReminder(ctx context.Context, t models.Task) error {
	if t.Status.Done() {
		return nil
	}
	due, err := t.DueTime()
	if err != nil {
		return fmt.Errorf("parse due time for task %s: %w", t.ID, err)
	}
	at := due.Add(-s.lead)
	now := s.now()
	if !at.After(now) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(t.ID)

	taskID, title := t.ID, t.Title
	s.timers[taskID] = time.AfterFunc(at.Sub(now), func() {
		s.mu.Lock()
		delete(s.timers, taskID)
		delete(s.fireAt, taskID)
		s.mu.Unlock()
		if err := s.sink.Deliver(context.Background(), taskID, title, due); err != nil {
			logger.Warn(context.Background(), "Reminder delivery failed",
				"error", err, "task_id", taskID)
		}
	})
	s.fireAt[taskID] = at
	logger.Debug(ctx, "Reminder scheduled", "task_id", taskID, "at", at)
	return nil
}

// CancelReminder removes any pending reminder for the task id. Idempotent.
func (s *Scheduler) CancelReminder(ctx context.Context, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(taskID)
}

func (s *Scheduler) cancelLocked(taskID string) {
	if t, ok := s.timers[taskID]; ok {
		t.Stop()
		delete(s.timers, taskID)
		delete(s.fireAt, taskID)
	}
}

// RescheduleAll rebuilds the reminder set from the task collection. Run once
// at process start; scheduled reminders do not survive a restart.
func (s *Scheduler) RescheduleAll(ctx context.Context, tasks []models.Task) {
	n := 0
	for _, t := range tasks {
		if t.Status.Done() {
			continue
		}
		if err := s.ScheduleReminder(ctx, t); err != nil {
			logger.Warn(ctx, "Reminder reschedule failed", "error", err, "task_id", t.ID)
			continue
		}
		n++
	}
	logger.Info(ctx, "Reminders rescheduled", "count", n)
}

// PendingAt reports the pending fire time for a task id, if any.
func (s *Scheduler) PendingAt(taskID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.fireAt[taskID]
	return at, ok
}
