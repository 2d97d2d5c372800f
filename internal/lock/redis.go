package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by someone else is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const releaseTimeout = 2 * time.Second

type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	token  func() string
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString,
	}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := r.token()
	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		zap.L().Error("can't acquire lock", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrConcurrencyConflict, key)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := r.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			zap.L().Warn("can't release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
