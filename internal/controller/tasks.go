package controller

import (
	"context"
	"net/http"
	"time"

	"tasksync/internal/models"
	"tasksync/internal/store"
	"tasksync/internal/syncer"

	"github.com/gin-gonic/gin"
)

// Controller exposes the store's public actions over the local HTTP surface.
// It holds no state of its own; everything is read from or dispatched to the
// injected store.
type Controller struct {
	store  *store.Store
	runner *syncer.Runner
	probe  func(ctx context.Context) error
}

// New builds a controller around the store and sync runner. probe reports
// remote reachability for the readiness endpoint.
func New(st *store.Store, runner *syncer.Runner, probe func(ctx context.Context) error) *Controller {
	return &Controller{store: st, runner: runner, probe: probe}
}

// GetTasks returns the task collection in the active sort order. An optional
// ?sort= query switches the stored sort key first.
func (h *Controller) GetTasks(c *gin.Context) {
	if sort := c.Query("sort"); sort != "" {
		h.store.SetSortOrder(c.Request.Context(), models.SortOrder(sort))
	}
	c.JSON(http.StatusOK, h.store.SortedTasks())
}

// CreateTask adds a task. Input validation is the form layer's job; anything
// that binds is accepted.
func (h *Controller) CreateTask(c *gin.Context) {
	var in store.CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	t := h.store.AddTask(c.Request.Context(), in)
	c.JSON(http.StatusCreated, t)
}

// UpdateTask merges a partial patch into a task. Unknown ids are absorbed as
// no-ops, so this always answers 202.
func (h *Controller) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing task id"})
		return
	}
	var patch store.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	h.store.UpdateTask(c.Request.Context(), id, patch)
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

// DeleteTask removes a task. Unknown ids are absorbed as no-ops.
func (h *Controller) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing task id"})
		return
	}
	h.store.DeleteTask(c.Request.Context(), id)
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

// SetStatus transitions a task's status.
func (h *Controller) SetStatus(c *gin.Context) {
	id := c.Param("id")
	var body struct {
		Status models.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	h.store.SetStatus(c.Request.Context(), id, body.Status)
	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": body.Status})
}

// GetLogs returns the action log, newest first.
func (h *Controller) GetLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.ActionLogs())
}

// ClearLogs empties the action log.
func (h *Controller) ClearLogs(c *gin.Context) {
	h.store.ClearActionLogs(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// SetSortOrder stores the active sort key.
func (h *Controller) SetSortOrder(c *gin.Context) {
	var body struct {
		Order models.SortOrder `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	h.store.SetSortOrder(c.Request.Context(), body.Order)
	c.JSON(http.StatusOK, gin.H{"order": body.Order})
}

// TriggerSync is the manual retry action: it starts a sync pass in the
// background and returns immediately. A pass already running makes this a
// silent no-op. The pass outlives the request, so it runs detached from the
// request context.
func (h *Controller) TriggerSync(c *gin.Context) {
	go h.runner.Trigger(context.Background())
	c.JSON(http.StatusAccepted, gin.H{
		"status":  h.store.SyncStatus(),
		"pending": h.store.PendingCount(),
	})
}

// SyncState reports the coarse sync status and queue depth the UI renders.
func (h *Controller) SyncState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       h.store.SyncStatus(),
		"pending":      h.store.PendingCount(),
		"dead_letters": len(h.store.DeadLetters()),
	})
}

// GetDeadLetters returns operations dropped after exhausting their retries.
func (h *Controller) GetDeadLetters(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.DeadLetters())
}

// ClearDeadLetters empties the dropped-operation list.
func (h *Controller) ClearDeadLetters(c *gin.Context) {
	h.store.ClearDeadLetters(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Health returns 200 if the process is alive.
func (h *Controller) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if the store is loaded and the remote is reachable.
// Offline is a normal operating mode for the engine itself, but readiness
// means a sync pass could run right now.
func (h *Controller) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unavailable"})
		return
	}
	if h.probe != nil {
		if err := h.probe(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "remote unreachable"})
			return
		}
	}
	c.String(http.StatusOK, "OK")
}
