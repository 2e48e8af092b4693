// Package ingest loads study documents into storage: change detection,
// bounded-concurrency scheduling and the add, replace and delete paths.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of ingestion work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// SchedulerStats is a snapshot of the scheduler counters.
type SchedulerStats struct {
	Running     int `json:"running"`
	Pending     int `json:"pending"`
	Concurrency int `json:"concurrency"`
}

// Scheduler runs tasks in FIFO order with at most limit running at once.
// onDrain is called once every time the last running task settles with
// nothing pending. Task failures and panics are logged and never stop the
// scheduler.
type Scheduler struct {
	mu       sync.Mutex
	limit    int
	running  int
	pending  []Task
	busy     bool
	draining int
	idle     chan struct{}
	onDrain  func()
	logger   *zap.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger used for task failures.
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a Scheduler. A limit below 1 is treated as 1; onDrain may be nil.
func NewScheduler(limit int, onDrain func(), opts ...SchedulerOption) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	s := &Scheduler{limit: limit, onDrain: onDrain, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push queues a task and starts it if a slot is free. Safe to call from
// inside a running task or from onDrain.
func (s *Scheduler) Push(t Task) {
	s.mu.Lock()
	if !s.busy {
		s.busy = true
		s.idle = make(chan struct{})
	}
	s.pending = append(s.pending, t)
	start := s.takeLocked()
	s.mu.Unlock()

	s.launch(start)
}

// takeLocked pops as many pending tasks as there are free slots.
func (s *Scheduler) takeLocked() []Task {
	var start []Task
	for s.running < s.limit && len(s.pending) > 0 {
		start = append(start, s.pending[0])
		s.pending[0] = Task{}
		s.pending = s.pending[1:]
		s.running++
	}
	return start
}

func (s *Scheduler) launch(tasks []Task) {
	for _, t := range tasks {
		go s.run(t)
	}
}

func (s *Scheduler) run(t Task) {
	if err := s.execute(t); err != nil {
		s.logger.Error("ingest task failed", zap.String("task", t.Name), zap.Error(err))
	} else {
		s.logger.Debug("ingest task done", zap.String("task", t.Name))
	}
	s.settle()
}

func (s *Scheduler) execute(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.Run(context.Background())
}

// settle frees the slot of a finished task and either starts the next ones
// or, when everything is done, signals the drain.
func (s *Scheduler) settle() {
	s.mu.Lock()
	s.running--
	start := s.takeLocked()
	drained := s.running == 0 && len(s.pending) == 0
	var idle chan struct{}
	if drained {
		s.busy = false
		s.draining++
		idle = s.idle
	}
	s.mu.Unlock()

	s.launch(start)
	if !drained {
		return
	}
	if s.onDrain != nil {
		s.onDrain()
	}
	s.mu.Lock()
	s.draining--
	s.mu.Unlock()
	close(idle)
}

// Wait blocks until the scheduler is idle and the drain callback of the
// current batch has returned, or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if !s.busy && s.draining == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the current counters.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStats{Running: s.running, Pending: len(s.pending), Concurrency: s.limit}
}
