package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spinwheel/pkg/logger"
	"spinwheel/pkg/metrics"
)

// Handler retries one payout. Scheduling a further attempt on failure is the
// handler's job.
type Handler interface {
	Retry(ctx context.Context, payoutID uint64) error
}

// Worker drains the payout queue with a pool of goroutines.
type Worker struct {
	queueService *QueueService
	handler      Handler
	stopChan     chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	config       WorkerConfig
}

// WorkerConfig tunes the pool.
type WorkerConfig struct {
	WorkerCount     int           // concurrent workers
	PollInterval    time.Duration // how often delayed tasks are promoted
	PopTimeout      time.Duration // how long one pop blocks
	TaskTimeout     time.Duration // deadline of one handler call
	ShutdownTimeout time.Duration
	BatchSize       int // tasks promoted per poll
}

func NewWorker(qs *QueueService, handler Handler, config WorkerConfig) *Worker {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 2
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.PopTimeout <= 0 {
		config.PopTimeout = 2 * time.Second
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 60 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		queueService: qs,
		handler:      handler,
		stopChan:     make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		config:       config,
	}
}

// Start launches the promoter and the workers.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.promote()

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.startWorker(i)
	}
}

func (w *Worker) promote() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if _, err := w.queueService.Promote(w.ctx, w.config.BatchSize); err != nil && w.ctx.Err() == nil {
				logger.ErrorString("Worker", "Promote", err.Error())
			}
			if ready, delayed, err := w.queueService.Length(w.ctx); err == nil {
				metrics.PayoutQueueLength.Set(float64(ready + delayed))
			}
		}
	}
}

func (w *Worker) startWorker(id int) {
	defer w.wg.Done()

	logger.InfoString("Worker", "Start", fmt.Sprintf("Worker %d started", id))

	for {
		select {
		case <-w.stopChan:
			logger.InfoString("Worker", "Stop", fmt.Sprintf("Worker %d stopping", id))
			return
		default:
		}

		if err := w.processNextTask(); err != nil && w.ctx.Err() == nil {
			logger.ErrorString("Worker", "Error", fmt.Sprintf("Worker %d error: %v", id, err))
			select {
			case <-w.stopChan:
			case <-time.After(time.Second):
			}
		}
	}
}

// processNextTask pops and handles at most one task.
func (w *Worker) processNextTask() error {
	task, err := w.queueService.PopTask(w.ctx, w.config.PopTimeout)
	if err != nil {
		return fmt.Errorf("pop task error: %w", err)
	}
	if task == nil {
		return nil
	}
	return w.handleTask(task)
}

func (w *Worker) handleTask(task *PayoutTask) error {
	start := time.Now()
	defer func() {
		w.queueService.metrics.RecordProcessingTime(time.Since(start))
	}()

	// a started transfer is allowed to finish during shutdown
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), w.config.TaskTimeout)
	defer cancel()

	if err := w.queueService.UpdateTaskStatus(taskCtx, task.ID, TaskRunning); err != nil {
		return fmt.Errorf("update task status error: %w", err)
	}

	if err := w.handler.Retry(taskCtx, task.PayoutID); err != nil {
		w.queueService.metrics.RecordError(OpProcess)
		if updateErr := w.queueService.UpdateTaskStatus(taskCtx, task.ID, TaskFailed); updateErr != nil {
			logger.ErrorString("Worker", "UpdateStatus", updateErr.Error())
		}
		return fmt.Errorf("payout %d attempt %d: %w", task.PayoutID, task.Attempt+1, err)
	}

	if err := w.queueService.UpdateTaskStatus(taskCtx, task.ID, TaskCompleted); err != nil {
		return fmt.Errorf("update task result error: %w", err)
	}
	w.queueService.metrics.RecordSuccess(OpProcess)
	return nil
}

// Stop signals the workers and waits for them up to ShutdownTimeout.
func (w *Worker) Stop() {
	close(w.stopChan)
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoString("Worker", "Stop", "All workers stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		logger.WarnString("Worker", "Stop", "Worker shutdown timed out")
	}
}
