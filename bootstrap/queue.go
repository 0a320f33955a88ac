package bootstrap

import (
	"context"
	"fmt"
	"time"

	"spinwheel/pkg/config"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/queue"
	"spinwheel/pkg/redis"
)

// SetupQueue creates the payout retry queue, or nil without redis.
func SetupQueue() *queue.QueueService {
	if redis.Manager == nil {
		return nil
	}
	return queue.NewQueueService(redis.GetRedis(redis.QueueDB), queue.Config{
		Prefix:        config.GetString("redis.queue_prefix"),
		StatusTTL:     time.Duration(config.GetInt("redis.queue_timeout")) * time.Second,
		RetryDelay:    time.Duration(config.GetInt("queue.retry_delay")) * time.Second,
		MaxRetryDelay: time.Duration(config.GetInt("queue.max_retry_delay")) * time.Second,
		RateLimit:     config.GetInt("queue.rate_limit"),
		RateBurst:     config.GetInt("queue.rate_burst"),
	})
}

// StartWorker runs the retry workers and queues every payout still owed.
func StartWorker(ctx context.Context, qs *queue.QueueService, payouts interface {
	queue.Handler
	Resume(ctx context.Context) (int, error)
}) *queue.Worker {
	worker := queue.NewWorker(qs, payouts, queue.WorkerConfig{
		WorkerCount:  config.GetInt("queue.worker_count"),
		PollInterval: time.Duration(config.GetInt("queue.poll_interval")) * time.Second,
	})
	worker.Start()

	n, err := payouts.Resume(ctx)
	if err != nil {
		logger.ErrorString("Queue", "Resume", err.Error())
	} else if n > 0 {
		logger.InfoString("Queue", "Resume", fmt.Sprintf("re-queued %d unpaid prizes", n))
	}

	logger.InfoString("Queue", "Setup", "payout workers started")
	return worker
}
