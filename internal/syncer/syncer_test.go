package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/models"
	"tasksync/internal/remote"
	"tasksync/internal/store"
)

type fakeClient struct {
	probeErr  error
	replayErr error
	calls     []string
}

func (f *fakeClient) Probe(ctx context.Context) error {
	f.calls = append(f.calls, "probe")
	return f.probeErr
}

func (f *fakeClient) CreateTask(ctx context.Context, t models.Task) error {
	f.calls = append(f.calls, "create:"+t.ID)
	return f.replayErr
}

func (f *fakeClient) UpdateTask(ctx context.Context, t models.Task) error {
	f.calls = append(f.calls, "update:"+t.ID)
	return f.replayErr
}

func (f *fakeClient) DeleteTask(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete:"+id)
	return f.replayErr
}

type recorder struct {
	success   []string
	retryable []string
	permanent []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSuccess:   func(ctx context.Context, id string) { r.success = append(r.success, id) },
		OnRetryable: func(ctx context.Context, id string) { r.retryable = append(r.retryable, id) },
		OnPermanent: func(ctx context.Context, id string, err error) { r.permanent = append(r.permanent, id) },
	}
}

func op(id string, typ models.SyncOpType, taskID string, retries int) models.SyncOperation {
	o := models.SyncOperation{ID: id, Type: typ, TaskID: taskID, Retries: retries}
	if typ != models.OpDelete {
		o.TaskData = &models.Task{ID: taskID, Title: "t"}
	}
	return o
}

func TestSyncAllEmptyBatchIsNoop(t *testing.T) {
	client := &fakeClient{}
	rec := &recorder{}

	err := New(client, 3).SyncAll(context.Background(), nil, rec.callbacks())

	assert.NoError(t, err)
	assert.Empty(t, client.calls, "no probe for an empty batch")
}

func TestSyncAllUnreachableAbortsBeforeAnyAttempt(t *testing.T) {
	client := &fakeClient{probeErr: errors.New("timeout")}
	rec := &recorder{}
	ops := []models.SyncOperation{op("1", models.OpCreate, "a", 0)}

	err := New(client, 3).SyncAll(context.Background(), ops, rec.callbacks())

	assert.ErrorIs(t, err, remote.ErrUnreachable)
	assert.Equal(t, []string{"probe"}, client.calls)
	assert.Empty(t, rec.success)
	assert.Empty(t, rec.retryable)
	assert.Empty(t, rec.permanent)
	assert.Equal(t, 0, ops[0].Retries, "no retry counters move on a connectivity failure")
}

func TestSyncAllReplaysSequentially(t *testing.T) {
	client := &fakeClient{}
	rec := &recorder{}
	ops := []models.SyncOperation{
		op("1", models.OpCreate, "x", 0),
		op("2", models.OpUpdate, "x", 0),
		op("3", models.OpDelete, "x", 0),
	}

	err := New(client, 3).SyncAll(context.Background(), ops, rec.callbacks())

	assert.NoError(t, err)
	assert.Equal(t, []string{"probe", "create:x", "update:x", "delete:x"}, client.calls,
		"strict enqueue order, create before later update/delete")
	assert.Equal(t, []string{"1", "2", "3"}, rec.success)
}

func TestSyncAllFailureDoesNotStopBatch(t *testing.T) {
	client := &fakeClient{replayErr: errors.New("500")}
	rec := &recorder{}
	ops := []models.SyncOperation{
		op("1", models.OpCreate, "a", 0),
		op("2", models.OpCreate, "b", 0),
	}

	err := New(client, 3).SyncAll(context.Background(), ops, rec.callbacks())

	assert.Error(t, err)
	assert.Equal(t, []string{"probe", "create:a", "create:b"}, client.calls)
	assert.Equal(t, []string{"1", "2"}, rec.retryable, "each failed op retried on a later pass, not in this one")
}

func TestSyncAllRetryCeiling(t *testing.T) {
	client := &fakeClient{replayErr: errors.New("500")}
	rec := &recorder{}

	below := []models.SyncOperation{op("1", models.OpCreate, "a", 2)}
	err := New(client, 3).SyncAll(context.Background(), below, rec.callbacks())
	assert.Error(t, err)
	assert.Equal(t, []string{"1"}, rec.retryable)
	assert.Empty(t, rec.permanent)

	at := []models.SyncOperation{op("2", models.OpCreate, "a", 3)}
	_ = New(client, 3).SyncAll(context.Background(), at, rec.callbacks())
	assert.Equal(t, []string{"2"}, rec.permanent, "retries at the ceiling fail permanently")
	assert.Equal(t, []string{"1"}, rec.retryable)
}

// Four consecutive failing passes drive one operation through its whole
// retry budget: retries reaches 3, then the fourth attempt drops it into the
// dead-letter list exactly once.
func TestRunnerPermanentFailureAfterFourPasses(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "tasks.v2.json"),
		store.WithCooldown(time.Millisecond))
	require.NoError(t, err)

	st.AddTask(ctx, store.CreateTaskInput{Title: "doomed"})
	require.Len(t, st.PendingSync(), 1)

	client := &fakeClient{replayErr: errors.New("500")}
	runner := NewRunner(st, New(client, 3))

	for pass := 1; pass <= 4; pass++ {
		waitIdle(t, st)
		runner.Trigger(ctx)
		if pass < 4 {
			pending := st.PendingSync()
			require.Len(t, pending, 1)
			assert.Equal(t, pass, pending[0].Retries)
			assert.LessOrEqual(t, pending[0].Retries, 3)
		}
	}

	assert.Empty(t, st.PendingSync(), "operation removed after the fourth attempt")
	dead := st.DeadLetters()
	require.Len(t, dead, 1, "dead-lettered exactly once")
	assert.Equal(t, 3, dead[0].Retries)
	assert.NotEmpty(t, dead[0].LastError)
}

func TestRunnerSuccessDrainsQueue(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "tasks.v2.json"),
		store.WithCooldown(time.Millisecond))
	require.NoError(t, err)

	st.AddTask(ctx, store.CreateTaskInput{Title: "a"})
	st.AddTask(ctx, store.CreateTaskInput{Title: "b"})
	require.Len(t, st.PendingSync(), 2)

	client := &fakeClient{}
	NewRunner(st, New(client, 3)).Trigger(ctx)

	assert.Empty(t, st.PendingSync())
	assert.Equal(t, models.SyncSuccess, st.SyncStatus())
}

func TestRunnerEmptyQueueIsNoop(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "tasks.v2.json"))
	require.NoError(t, err)

	client := &fakeClient{}
	NewRunner(st, New(client, 3)).Trigger(ctx)

	assert.Empty(t, client.calls)
	assert.Equal(t, models.SyncIdle, st.SyncStatus())
}

func waitIdle(t *testing.T, st *store.Store) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return st.SyncStatus() == models.SyncIdle
	}, time.Second, time.Millisecond)
}
