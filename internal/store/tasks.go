package store

import (
	"context"
	"fmt"
	"sort"

	"tasksync/internal/models"
	"tasksync/pkg/logger"
)

// CreateTaskInput carries the caller-supplied fields for a new task. Field
// validation (title length, date format) belongs to the form layer, not here.
type CreateTaskInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Datetime    string              `json:"datetime"`
	Location    string              `json:"location"`
	Coordinates *models.Coordinates `json:"coordinates"`
	Attachments []models.Attachment `json:"attachments"`
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Datetime    *string             `json:"datetime"`
	Location    *string             `json:"location"`
	Coordinates *models.Coordinates `json:"coordinates"`
	Attachments []models.Attachment `json:"attachments"`
}

// AddTask creates a task from the input, logs the creation and queues a
// create operation for the remote. The due reminder is scheduled best-effort.
func (s *Store) AddTask(ctx context.Context, in CreateTaskInput) models.Task {
	s.mu.Lock()
	t := models.Task{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Datetime:    in.Datetime,
		Location:    in.Location,
		Coordinates: in.Coordinates,
		Attachments: in.Attachments,
		Status:      models.StatusTodo,
		CreatedAt:   s.now(),
	}
	s.doc.Tasks = append(s.doc.Tasks, t)
	s.prependLogLocked(t.ID, t.Title, models.ActionCreated, "")
	s.enqueueLocked(models.OpCreate, t.ID, &t)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleBestEffort(ctx, t)
	return cloneTask(t)
}

// UpdateTask merges the patch into an existing task. Unknown ids are a silent
// no-op (the item may have been deleted elsewhere). The queued update carries
// the post-merge snapshot and the due reminder is rescheduled against it.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	t := &s.doc.Tasks[idx]

	details := "details updated"
	if patch.Title != nil && *patch.Title != t.Title {
		details = fmt.Sprintf("Title %q → %q", t.Title, *patch.Title)
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Datetime != nil {
		t.Datetime = *patch.Datetime
	}
	if patch.Location != nil {
		t.Location = *patch.Location
	}
	if patch.Coordinates != nil {
		coords := *patch.Coordinates
		t.Coordinates = &coords
	}
	if patch.Attachments != nil {
		t.Attachments = append([]models.Attachment(nil), patch.Attachments...)
	}

	snap := cloneTask(*t)
	s.prependLogLocked(snap.ID, snap.Title, models.ActionUpdated, details)
	s.enqueueLocked(models.OpUpdate, snap.ID, &snap)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.scheduleBestEffort(ctx, snap)
}

// DeleteTask removes a task, logs the deletion under its pre-delete title and
// queues a delete operation. Unknown ids are a silent no-op.
func (s *Store) DeleteTask(ctx context.Context, id string) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	title := s.doc.Tasks[idx].Title
	s.prependLogLocked(id, title, models.ActionDeleted, "")
	s.doc.Tasks = append(s.doc.Tasks[:idx], s.doc.Tasks[idx+1:]...)
	s.enqueueLocked(models.OpDelete, id, nil)
	s.persistLocked(ctx)
	s.mu.Unlock()

	if s.sched != nil {
		s.sched.CancelReminder(ctx, id)
	}
}

// SetStatus records the old → new transition in the action log, queues an
// update so the server sees the new status, and cancels or reschedules the
// due reminder depending on whether the task is still active.
func (s *Store) SetStatus(ctx context.Context, id string, status models.Status) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	t := &s.doc.Tasks[idx]
	details := t.Status.Label() + " → " + status.Label()
	t.Status = status

	snap := cloneTask(*t)
	s.prependLogLocked(snap.ID, snap.Title, models.ActionStatusChanged, details)
	s.enqueueLocked(models.OpUpdate, snap.ID, &snap)
	s.persistLocked(ctx)
	s.mu.Unlock()

	if status.Done() {
		if s.sched != nil {
			s.sched.CancelReminder(ctx, id)
		}
	} else {
		s.scheduleBestEffort(ctx, snap)
	}
}

// SortedTasks returns a copy of the task collection in the active sort order.
func (s *Store) SortedTasks() []models.Task {
	s.mu.Lock()
	tasks := cloneTasks(s.doc.Tasks)
	order := s.doc.SortOrder
	s.mu.Unlock()

	switch order {
	case models.SortDateAddedAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		})
	case models.SortByStatus:
		sort.SliceStable(tasks, func(i, j int) bool {
			ri, rj := tasks[i].Status.Rank(), tasks[j].Status.Rank()
			if ri != rj {
				return ri < rj
			}
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	default: // dateAdded_desc
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
	return tasks
}

// ActionLogs returns the audit log, newest first. Insertion order already
// satisfies this; the re-sort is defensive.
func (s *Store) ActionLogs() []models.ActionLogEntry {
	s.mu.Lock()
	logs := append([]models.ActionLogEntry(nil), s.doc.ActionLogs...)
	s.mu.Unlock()

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs
}

// ClearActionLogs empties the audit log. Irreversible.
func (s *Store) ClearActionLogs(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ActionLogs = nil
	s.persistLocked(ctx)
}

// SetSortOrder stores the active sort key.
func (s *Store) SetSortOrder(ctx context.Context, order models.SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SortOrder = order
	s.persistLocked(ctx)
}

// SortOrder returns the active sort key.
func (s *Store) SortOrder() models.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.SortOrder
}

func (s *Store) indexLocked(id string) int {
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) prependLogLocked(taskID, title string, action models.ActionType, details string) {
	entry := models.ActionLogEntry{
		ID:         s.newID(),
		TaskID:     taskID,
		TaskTitle:  title,
		ActionType: action,
		Timestamp:  s.now(),
		Details:    details,
	}
	s.doc.ActionLogs = append([]models.ActionLogEntry{entry}, s.doc.ActionLogs...)
	if len(s.doc.ActionLogs) > s.logCap {
		s.doc.ActionLogs = s.doc.ActionLogs[:s.logCap]
	}
}

func (s *Store) enqueueLocked(op models.SyncOpType, taskID string, snapshot *models.Task) {
	s.doc.PendingSync = append(s.doc.PendingSync, models.SyncOperation{
		ID:        s.newID(),
		Type:      op,
		TaskID:    taskID,
		TaskData:  snapshot,
		Timestamp: s.now(),
	})
}

func (s *Store) scheduleBestEffort(ctx context.Context, t models.Task) {
	if s.sched == nil {
		return
	}
	if err := s.sched.ScheduleReminder(ctx, t); err != nil {
		logger.Warn(ctx, "Reminder scheduling failed", "error", err, "task_id", t.ID)
	}
}
