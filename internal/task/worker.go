package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxRetries  = 3
	defaultPollTimeout = 5 * time.Second
)

type HandlerFunc func(ctx context.Context, t *Task) error

type Worker struct {
	queue       *Queue
	log         *zap.Logger
	handlers    map[string]HandlerFunc
	maxRetries  int
	pollTimeout time.Duration
	taskTimeout time.Duration
}

func NewWorker(queue *Queue, log *zap.Logger) *Worker {
	return &Worker{
		queue:       queue,
		log:         log.With(zap.String("component", "worker"), zap.String("queue", queue.Key())),
		handlers:    make(map[string]HandlerFunc),
		maxRetries:  DefaultMaxRetries,
		pollTimeout: defaultPollTimeout,
		taskTimeout: 5 * time.Minute,
	}
}

func (w *Worker) Handle(taskType string, fn HandlerFunc) {
	w.handlers[taskType] = fn
}

// Run consumes tasks with the given number of goroutines until ctx is done.
func (w *Worker) Run(ctx context.Context, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	w.log.Info("Worker started", zap.Int("concurrency", concurrency))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()

	w.log.Info("Worker stopped")
	return ctx.Err()
}

func (w *Worker) loop(ctx context.Context) {
	for ctx.Err() == nil {
		t, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("Failed to dequeue task", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if t == nil {
			continue
		}
		w.Process(ctx, t)
	}
}

// Process runs the handler for t. A failed task goes back on the queue with
// its attempt count bumped until maxRetries is reached, then it is dropped.
func (w *Worker) Process(ctx context.Context, t *Task) {
	log := w.log.With(
		zap.String("task_id", t.ID),
		zap.String("task_type", t.Type),
		zap.Int("attempt", t.Attempt),
	)

	fn, ok := w.handlers[t.Type]
	if !ok {
		log.Error("No handler registered for task, dropping")
		return
	}

	start := time.Now()
	err := w.run(ctx, fn, t)
	if err == nil {
		log.Info("Task completed", zap.Duration("duration", time.Since(start)))
		return
	}

	if t.Attempt >= w.maxRetries || errors.Is(err, ErrPermanent) {
		log.Error("Task failed permanently", zap.Error(err))
		return
	}

	t.Attempt++
	if pushErr := w.queue.push(context.WithoutCancel(ctx), t); pushErr != nil {
		log.Error("Failed to requeue task", zap.Error(err), zap.NamedError("requeue_error", pushErr))
		return
	}
	log.Warn("Task failed, requeued", zap.Error(err))
}

func (w *Worker) run(ctx context.Context, fn HandlerFunc, t *Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()

	return fn(ctx, t)
}

// ErrPermanent marks a handler error that retrying cannot fix, such as a
// malformed payload.
var ErrPermanent = errors.New("permanent task failure")

// Permanent wraps err so the worker drops the task instead of retrying.
func Permanent(err error) error {
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}
