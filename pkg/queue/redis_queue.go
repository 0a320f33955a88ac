package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"spinwheel/pkg/redis"
)

// TaskStatus is the lifecycle state of a queued retry.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// PayoutTask asks a worker to submit a prize transfer again.
type PayoutTask struct {
	ID        string    `json:"id"`
	PayoutID  uint64    `json:"payout_id"`
	Attempt   int       `json:"attempt"`
	NotBefore time.Time `json:"not_before"`
	CreatedAt time.Time `json:"created_at"`
}

// Config tunes the queue.
type Config struct {
	Prefix        string
	StatusTTL     time.Duration
	RetryDelay    time.Duration // delay before the first retry, doubled per attempt
	MaxRetryDelay time.Duration
	RateLimit     int // pushes per second
	RateBurst     int
}

// promoteScript moves due tasks from the delayed set to the ready list.
var promoteScript = goredis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[2])
for _, task in ipairs(due) do
	redis.call("ZREM", KEYS[1], task)
	redis.call("LPUSH", KEYS[2], task)
end
return #due`)

// QueueService is a redis backed queue of payout retries. Tasks due later
// wait in a sorted set until Promote moves them to the ready list.
type QueueService struct {
	client      *redis.RedisClient
	prefix      string
	timeout     time.Duration
	retryDelay  time.Duration
	maxDelay    time.Duration
	rateLimiter *rate.Limiter
	metrics     *QueueMetrics
	now         func() time.Time
}

// NewQueueService creates a queue on client.
func NewQueueService(client *redis.RedisClient, cfg Config) *QueueService {
	if cfg.Prefix == "" {
		cfg.Prefix = "spinwheel:queue"
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 24 * time.Hour
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 30 * time.Minute
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = cfg.RateLimit
	}

	return &QueueService{
		client:      client,
		prefix:      cfg.Prefix,
		timeout:     cfg.StatusTTL,
		retryDelay:  cfg.RetryDelay,
		maxDelay:    cfg.MaxRetryDelay,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		metrics:     NewQueueMetrics(),
		now:         time.Now,
	}
}

func (q *QueueService) readyKey() string   { return fmt.Sprintf("%s:tasks", q.prefix) }
func (q *QueueService) delayedKey() string { return fmt.Sprintf("%s:delayed", q.prefix) }
func (q *QueueService) statusKey(id string) string {
	return fmt.Sprintf("%s:status:%s", q.prefix, id)
}

// Backoff is the wait before retry number attempt. Attempt 0 runs at once.
func (q *QueueService) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := q.retryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.maxDelay {
			return q.maxDelay
		}
	}
	return delay
}

// Enqueue schedules payoutID after its attempt-th failure.
func (q *QueueService) Enqueue(ctx context.Context, payoutID uint64, attempt int) error {
	now := q.now()
	return q.PushTask(ctx, &PayoutTask{
		ID:        uuid.NewString(),
		PayoutID:  payoutID,
		Attempt:   attempt,
		NotBefore: now.Add(q.Backoff(attempt)),
		CreatedAt: now,
	})
}

// PushTask adds task to the ready list, or to the delayed set when it is not
// due yet.
func (q *QueueService) PushTask(ctx context.Context, task *PayoutTask) error {
	if err := q.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	start := time.Now()
	defer func() {
		q.metrics.RecordPushLatency(time.Since(start))
	}()

	taskJSON, err := json.Marshal(task)
	if err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.Client.TxPipeline()
	if task.NotBefore.After(q.now()) {
		pipe.ZAdd(ctx, q.delayedKey(), goredis.Z{Score: float64(task.NotBefore.UnixMilli()), Member: taskJSON})
	} else {
		pipe.LPush(ctx, q.readyKey(), taskJSON)
	}
	pipe.Set(ctx, q.statusKey(task.ID), string(TaskPending), q.timeout)

	if _, err := pipe.Exec(ctx); err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to push task: %w", err)
	}

	q.metrics.RecordSuccess(OpPush)
	q.metrics.StartWaitTime(TaskID(task.ID))
	return nil
}

// Promote moves up to limit due tasks to the ready list.
func (q *QueueService) Promote(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	n, err := promoteScript.Run(ctx, q.client.Client,
		[]string{q.delayedKey(), q.readyKey()},
		q.now().UnixMilli(), limit,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to promote tasks: %w", err)
	}
	return n, nil
}

// PopTask waits up to timeout for a ready task. It returns nil, nil when
// none arrived.
func (q *QueueService) PopTask(ctx context.Context, timeout time.Duration) (*PayoutTask, error) {
	start := time.Now()
	result, err := q.client.Client.BRPop(ctx, timeout, q.readyKey()).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		q.metrics.RecordError(OpPop)
		return nil, fmt.Errorf("failed to pop task from queue: %w", err)
	}
	q.metrics.RecordPopLatency(time.Since(start))

	if len(result) != 2 {
		return nil, fmt.Errorf("invalid result from queue")
	}

	var task PayoutTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		q.metrics.RecordError(OpPop)
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	q.metrics.EndWaitTime(TaskID(task.ID))
	return &task, nil
}

// UpdateTaskStatus records the state of task id.
func (q *QueueService) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error {
	if err := q.client.Client.Set(ctx, q.statusKey(taskID), string(status), q.timeout).Err(); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

// Length reports the ready and delayed task counts.
func (q *QueueService) Length(ctx context.Context) (ready, delayed int64, err error) {
	pipe := q.client.Client.Pipeline()
	readyCmd := pipe.LLen(ctx, q.readyKey())
	delayedCmd := pipe.ZCard(ctx, q.delayedKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return readyCmd.Val(), delayedCmd.Val(), nil
}

// Metrics exposes the in-process counters.
func (q *QueueService) Metrics() *QueueMetrics {
	return q.metrics
}

// Ping checks the queue connection.
func (q *QueueService) Ping(ctx context.Context) error {
	return q.client.Client.Ping(ctx).Err()
}
