package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"tasksync/internal/models"
	"tasksync/pkg/logger"
)

// ReminderScheduler is the notification subsystem seen from the store. Calls
// are best-effort: a scheduling failure never blocks a task mutation.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, t models.Task) error
	CancelReminder(ctx context.Context, taskID string)
}

// Store owns the task collection, the action log, the pending-sync queue and
// the dead-letter list. It is the single writer for all of them; every other
// component reads snapshots and reports outcomes back through Store methods.
// The whole state is persisted as one JSON document after each mutation.
type Store struct {
	mu       sync.Mutex
	path     string
	doc      models.Document
	logCap   int
	cooldown time.Duration
	sched    ReminderScheduler

	status models.SyncStatus

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithScheduler wires the reminder scheduler the store notifies on mutations.
func WithScheduler(s ReminderScheduler) Option {
	return func(st *Store) { st.sched = s }
}

// WithLogCap overrides the action-log size cap.
func WithLogCap(n int) Option {
	return func(st *Store) { st.logCap = n }
}

// WithCooldown overrides how long success/error sync status is held before
// reverting to idle.
func WithCooldown(d time.Duration) Option {
	return func(st *Store) { st.cooldown = d }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// WithIDFunc overrides id generation (tests).
func WithIDFunc(f func() string) Option {
	return func(st *Store) { st.newID = f }
}

// Open loads the persisted document at path, or starts empty if the file does
// not exist yet.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		logCap:   500,
		cooldown: 2 * time.Second,
		status:   models.SyncIdle,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		doc: models.Document{
			SortOrder: models.SortDateAddedDesc,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info(ctx, "Store starting empty", "path", path)
			return s, nil
		}
		return nil, err
	}
	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.SortOrder == "" {
		doc.SortOrder = models.SortDateAddedDesc
	}
	s.doc = doc
	logger.Info(ctx, "Store loaded", "path", path,
		"tasks", len(doc.Tasks), "pending", len(doc.PendingSync))
	return s, nil
}

// persistLocked writes the whole document to disk. Persistence failures are
// logged and swallowed: a mutation is never rolled back because the flush
// failed.
func (s *Store) persistLocked(ctx context.Context) {
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		logger.Error(ctx, "Store marshal failed", "error", err)
		return
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		logger.Error(ctx, "Store write failed", "error", err, "path", s.path)
	}
}

func cloneTask(t models.Task) models.Task {
	c := t
	if t.Coordinates != nil {
		coords := *t.Coordinates
		c.Coordinates = &coords
	}
	if t.Attachments != nil {
		c.Attachments = append([]models.Attachment(nil), t.Attachments...)
	}
	return c
}

func cloneTasks(ts []models.Task) []models.Task {
	out := make([]models.Task, 0, len(ts))
	for _, t := range ts {
		out = append(out, cloneTask(t))
	}
	return out
}

func cloneOps(ops []models.SyncOperation) []models.SyncOperation {
	out := make([]models.SyncOperation, 0, len(ops))
	for _, op := range ops {
		c := op
		if op.TaskData != nil {
			td := cloneTask(*op.TaskData)
			c.TaskData = &td
		}
		out = append(out, c)
	}
	return out
}
