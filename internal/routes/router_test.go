package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/controller"
	"tasksync/internal/models"
	"tasksync/internal/store"
	"tasksync/internal/syncer"
)

type okClient struct{}

func (okClient) Probe(ctx context.Context) error                     { return nil }
func (okClient) CreateTask(ctx context.Context, t models.Task) error { return nil }
func (okClient) UpdateTask(ctx context.Context, t models.Task) error { return nil }
func (okClient) DeleteTask(ctx context.Context, id string) error     { return nil }

func newTestRouter(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	return newTestRouterWithProbe(t, okClient{}.Probe)
}

func newTestRouterWithProbe(t *testing.T, probe func(ctx context.Context) error) (http.Handler, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "tasks.v2.json"))
	require.NoError(t, err)
	runner := syncer.NewRunner(st, syncer.New(okClient{}, 3))
	return Router(controller.New(st, runner, probe)), st
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	h, st := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/tasks", map[string]interface{}{
		"title":    "Ship release",
		"datetime": "2026-03-01T18:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusTodo, created.Status)

	w = do(t, h, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)

	w = do(t, h, http.MethodPost, "/tasks/"+created.ID+"/status",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, h, http.MethodGet, "/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.ActionLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionStatusChanged, logs[0].ActionType)
	assert.Equal(t, "To Do → Completed", logs[0].Details)

	w = do(t, h, http.MethodDelete, "/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, st.SortedTasks())
}

func TestUpdateUnknownTaskIsAbsorbed(t *testing.T) {
	h, st := newTestRouter(t)

	w := do(t, h, http.MethodPut, "/tasks/nope", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, st.PendingSync())
}

func TestSyncStatusEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	do(t, h, http.MethodPost, "/tasks", map[string]string{"title": "a"})

	w := do(t, h, http.MethodGet, "/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status  models.SyncStatus `json:"status"`
		Pending int               `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.SyncIdle, body.Status)
	assert.Equal(t, 1, body.Pending)
}

func TestManualSyncTrigger(t *testing.T) {
	h, st := newTestRouter(t)
	do(t, h, http.MethodPost, "/tasks", map[string]string{"title": "a"})

	w := do(t, h, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool { return st.PendingCount() == 0 },
		2*time.Second, 5*time.Millisecond, "queue drains after the manual trigger")
}

func TestSortQuerySwitchesOrder(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodPost, "/tasks", map[string]string{"title": "first"})
	do(t, h, http.MethodPost, "/tasks", map[string]string{"title": "second"})

	w := do(t, h, http.MethodGet, "/tasks?sort=dateAdded_asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "first", tasks[0].Title)

	w = do(t, h, http.MethodGet, "/tasks", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Equal(t, "first", tasks[0].Title, "sort key sticks")
}

func TestHealthAndReady(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyUnreachableRemote(t *testing.T) {
	h, _ := newTestRouterWithProbe(t, func(ctx context.Context) error {
		return errors.New("unreachable")
	})

	w := do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Liveness is independent of the remote.
	w = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClearLogs(t *testing.T) {
	h, st := newTestRouter(t)
	do(t, h, http.MethodPost, "/tasks", map[string]string{"title": "a"})
	require.NotEmpty(t, st.ActionLogs())

	w := do(t, h, http.MethodDelete, "/logs", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, st.ActionLogs())
}
