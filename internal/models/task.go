package models

import "time"

// Status is the lifecycle state of a task. Any status is reachable from any
// other; there is no enforced state machine beyond the four values.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Done reports whether the task no longer needs a reminder.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Label returns the human-readable form used in action-log details.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Rank is the sort rank used by the status sort order. Lower sorts first.
func (s Status) Rank() int {
	switch s {
	case StatusInProgress:
		return 0
	case StatusTodo:
		return 1
	case StatusCompleted:
		return 2
	case StatusCancelled:
		return 3
	}
	return 4
}

// Coordinates is an optional latitude/longitude pair attached to a task's
// free-text location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Attachment is an opaque file reference carried on a task. The engine never
// interprets the contents.
type Attachment struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size,omitempty"`
}

// Task represents a unit of work.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Datetime    string       `json:"datetime"` // due time, RFC 3339
	Location    string       `json:"location,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Status      Status       `json:"status"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// DueTime parses the task's due timestamp.
func (t Task) DueTime() (time.Time, error) {
	return time.Parse(time.RFC3339, t.Datetime)
}

// ActionType classifies an action-log entry.
type ActionType string

const (
	ActionCreated       ActionType = "created"
	ActionUpdated       ActionType = "updated"
	ActionDeleted       ActionType = "deleted"
	ActionStatusChanged ActionType = "status_changed"
)

// ActionLogEntry is an audit record of a single task mutation. TaskTitle is a
// snapshot taken at logging time so deleted tasks stay readable.
type ActionLogEntry struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	TaskTitle  string     `json:"task_title"`
	ActionType ActionType `json:"action_type"`
	Timestamp  time.Time  `json:"timestamp"`
	Details    string     `json:"details,omitempty"`
}

// SyncOpType is the kind of remote mutation a sync operation replays.
type SyncOpType string

const (
	OpCreate SyncOpType = "create"
	OpUpdate SyncOpType = "update"
	OpDelete SyncOpType = "delete"
)

// SyncOperation is a queued intent to replicate a local mutation to the
// remote API. TaskData carries the full task snapshot for create/update and
// is nil for delete.
type SyncOperation struct {
	ID        string     `json:"id"`
	Type      SyncOpType `json:"type"`
	TaskID    string     `json:"task_id"`
	TaskData  *Task      `json:"task_data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Retries   int        `json:"retries"`
	LastError string     `json:"last_error,omitempty"`
}

// SortOrder selects how SortedTasks orders the collection.
type SortOrder string

const (
	SortDateAddedDesc SortOrder = "dateAdded_desc"
	SortDateAddedAsc  SortOrder = "dateAdded_asc"
	SortByStatus      SortOrder = "status"
)

// SyncStatus is the coarse state of the sync engine surfaced to callers.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// Document is the single persisted local state blob: the task collection, the
// audit log, the active sort order, the not-yet-replicated operation queue,
// and operations dropped after exhausting their retries.
type Document struct {
	Tasks       []Task           `json:"tasks"`
	ActionLogs  []ActionLogEntry `json:"action_logs"`
	SortOrder   SortOrder        `json:"sort_order"`
	PendingSync []SyncOperation  `json:"pending_sync"`
	DeadLetter  []SyncOperation  `json:"dead_letter"`
}
