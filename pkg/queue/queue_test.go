package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwheel/pkg/redis"
)

func newTestQueue(t *testing.T) (*QueueService, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	q := NewQueueService(client, Config{Prefix: "test", RetryDelay: 10 * time.Second, MaxRetryDelay: time.Minute})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }
	return q, &now
}

func taskStatus(q *QueueService, id string) TaskStatus {
	return TaskStatus(q.client.Client.Get(context.Background(), q.statusKey(id)).Val())
}

func TestBackoff(t *testing.T) {
	q, _ := newTestQueue(t)

	want := []time.Duration{0, 10 * time.Second, 20 * time.Second, 40 * time.Second, time.Minute, time.Minute}
	for attempt, d := range want {
		assert.Equal(t, d, q.Backoff(attempt), "attempt %d", attempt)
	}
}

func TestEnqueueImmediate(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 42, 0))

	ready, delayed, err := q.Length(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ready)
	assert.EqualValues(t, 0, delayed)

	task, err := q.PopTask(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.EqualValues(t, 42, task.PayoutID)

	assert.Equal(t, TaskPending, taskStatus(q, task.ID))
}

func TestEnqueueDelayedUntilPromoted(t *testing.T) {
	q, now := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 7, 1))

	ready, delayed, err := q.Length(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, ready)
	assert.EqualValues(t, 1, delayed)

	n, err := q.Promote(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	*now = now.Add(11 * time.Second)
	n, err = q.Promote(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err := q.PopTask(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.EqualValues(t, 7, task.PayoutID)
	assert.Equal(t, 1, task.Attempt)
}

func TestPopTaskEmpty(t *testing.T) {
	q, _ := newTestQueue(t)

	task, err := q.PopTask(context.Background(), time.Second)
	assert.NoError(t, err)
	assert.Nil(t, task)
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []uint64
	fail map[uint64]bool
}

func (h *recordingHandler) Retry(_ context.Context, payoutID uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, payoutID)
	if h.fail[payoutID] {
		return errors.New("still failing")
	}
	return nil
}

func (h *recordingHandler) handled() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func TestWorkerHandlesTasks(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	h := &recordingHandler{fail: map[uint64]bool{2: true}}

	w := NewWorker(q, h, WorkerConfig{WorkerCount: 2, PollInterval: 50 * time.Millisecond, PopTimeout: time.Second})
	w.Start()
	defer w.Stop()

	ok := &PayoutTask{ID: "ok", PayoutID: 1}
	bad := &PayoutTask{ID: "bad", PayoutID: 2}
	require.NoError(t, q.PushTask(ctx, ok))
	require.NoError(t, q.PushTask(ctx, bad))

	assert.Eventually(t, func() bool { return h.handled() == 2 }, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return taskStatus(q, "ok") == TaskCompleted && taskStatus(q, "bad") == TaskFailed
	}, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return q.Metrics().Snapshot().Process.Count == 2
	}, 5*time.Second, 20*time.Millisecond)
}
