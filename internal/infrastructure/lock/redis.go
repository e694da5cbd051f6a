package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

const (
	lockKeyPrefix = "inventory:lock:"
	minRetry      = 5 * time.Millisecond
	maxRetry      = 100 * time.Millisecond
)

var _ inventory.StockLocker = (*RedisLocker)(nil)

// Solo borra la clave si sigue siendo nuestra.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker lock distribuido por clave (SET NX PX) para varias réplicas de la API.
// ttl acota cuánto sobrevive el lock si el proceso muere con él tomado.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisLocker construye el locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{client: client, ttl: ttl, log: log}
}

// Lock reintenta SET NX con espera creciente hasta obtener la clave o hasta que venza ctx.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()
	wait := minRetry

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: lock %s: %v", domain.ErrBusy, key, ctx.Err())
			}
			return nil, fmt.Errorf("redis setnx %s: %w", redisKey, err)
		}
		if ok {
			return func() { l.release(redisKey, token) }, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: lock %s: %v", domain.ErrBusy, key, ctx.Err())
		case <-timer.C:
		}
		if wait *= 2; wait > maxRetry {
			wait = maxRetry
		}
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	// La liberación no depende del ctx de la operación, que puede estar cancelado.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.log.Warn().Str("key", redisKey).Err(err).Msg("no se pudo liberar el lock")
	}
}
