// Package lock provides per-key mutual exclusion that fails fast instead of
// waiting: a key that is already held yields domain.ErrConcurrencyConflict.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/mh26/services/internal/domain"
)

// Local is an in-process try-lock, used when no Redis is configured.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrConcurrencyConflict, key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

func BookingKey(id int64) string {
	return fmt.Sprintf("booking:%d:lock", id)
}
