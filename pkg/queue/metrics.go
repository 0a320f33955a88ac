package queue

import (
	"sync"
	"sync/atomic"
	"time"

	"spinwheel/pkg/metrics"
)

// TaskID identifies a queued task in the wait-time table.
type TaskID string

// MetricOperation names a queue operation.
type MetricOperation string

const (
	OpPush    MetricOperation = "push"
	OpPop     MetricOperation = "pop"
	OpProcess MetricOperation = "process"
)

// LatencyStats aggregates durations of one operation.
type LatencyStats struct {
	mu    sync.Mutex
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

// LatencySnapshot is a copy of LatencyStats.
type LatencySnapshot struct {
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// QueueMetrics collects in-process queue statistics. Processing time is also
// exported to prometheus.
type QueueMetrics struct {
	totalTasks      atomic.Int64
	successfulTasks atomic.Int64
	failedTasks     atomic.Int64

	pushLatency    *LatencyStats
	popLatency     *LatencyStats
	processLatency *LatencyStats

	avgWaitTime atomic.Int64 // milliseconds
	waited      atomic.Int64

	waitTimeStart *sync.Map // map[TaskID]time.Time
}

// Snapshot is a point-in-time copy of QueueMetrics.
type Snapshot struct {
	Total      int64           `json:"total"`
	Successful int64           `json:"successful"`
	Failed     int64           `json:"failed"`
	AvgWaitMs  int64           `json:"avg_wait_ms"`
	Push       LatencySnapshot `json:"push"`
	Pop        LatencySnapshot `json:"pop"`
	Process    LatencySnapshot `json:"process"`
}

func NewQueueMetrics() *QueueMetrics {
	return &QueueMetrics{
		pushLatency:    &LatencyStats{},
		popLatency:     &LatencyStats{},
		processLatency: &LatencyStats{},
		waitTimeStart:  &sync.Map{},
	}
}

// RecordSuccess counts a successful operation.
func (m *QueueMetrics) RecordSuccess(op MetricOperation) {
	m.successfulTasks.Add(1)
	m.totalTasks.Add(1)
}

// RecordError counts a failed operation.
func (m *QueueMetrics) RecordError(op MetricOperation) {
	m.failedTasks.Add(1)
	m.totalTasks.Add(1)
}

// StartWaitTime marks when a task entered the queue.
func (m *QueueMetrics) StartWaitTime(taskID TaskID) {
	m.waitTimeStart.Store(taskID, time.Now())
}

// EndWaitTime folds the wait of a popped task into the running average.
// Tasks pushed by another process are not tracked.
func (m *QueueMetrics) EndWaitTime(taskID TaskID) {
	start, ok := m.waitTimeStart.LoadAndDelete(taskID)
	if !ok {
		return
	}
	wait := time.Since(start.(time.Time)).Milliseconds()
	n := m.waited.Add(1)
	avg := m.avgWaitTime.Load()
	m.avgWaitTime.Store(avg + (wait-avg)/n)
}

// RecordProcessingTime records how long a handler ran.
func (m *QueueMetrics) RecordProcessingTime(d time.Duration) {
	m.processLatency.record(d)
	metrics.QueueTaskDuration.Observe(d.Seconds())
}

func (m *QueueMetrics) RecordPushLatency(d time.Duration) {
	m.pushLatency.record(d)
}

func (m *QueueMetrics) RecordPopLatency(d time.Duration) {
	m.popLatency.record(d)
}

// Snapshot copies the current values.
func (m *QueueMetrics) Snapshot() Snapshot {
	return Snapshot{
		Total:      m.totalTasks.Load(),
		Successful: m.successfulTasks.Load(),
		Failed:     m.failedTasks.Load(),
		AvgWaitMs:  m.avgWaitTime.Load(),
		Push:       m.pushLatency.snapshot(),
		Pop:        m.popLatency.snapshot(),
		Process:    m.processLatency.snapshot(),
	}
}

func (s *LatencyStats) record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	s.total += d
	if s.min == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}

func (s *LatencyStats) snapshot() LatencySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := LatencySnapshot{Count: s.count, Min: s.min, Max: s.max}
	if s.count > 0 {
		out.Avg = s.total / time.Duration(s.count)
	}
	return out
}
