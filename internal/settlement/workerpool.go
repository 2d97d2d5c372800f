package settlement

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
)

type WorkerPoolI interface {
	AddTask(ctx context.Context, task Task) error
	Close()
}

type Task func() error

type WorkerPool struct {
	pool chan Task
	once sync.Once
}

func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{pool: make(chan Task, size)}
	for i := 0; i < size; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	for task := range wp.pool {
		err := task()
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrConcurrencyConflict), errors.Is(err, domain.ErrInvalidTransition):
			zap.L().Debug("settlement skipped", zap.Error(err))
		default:
			zap.L().Error("settlement task failed", zap.Error(err))
		}
	}
}

func (wp *WorkerPool) AddTask(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.pool <- task:
		return nil
	}
}

// Close stops the workers once the queued tasks have drained. AddTask must
// not be called afterwards.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() { close(wp.pool) })
}
