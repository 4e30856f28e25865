// Package redis bloqueo distribuido de mejor esfuerzo para la contabilización de lotes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/produccion-api/internal/application/production"
	"github.com/jhoicas/produccion-api/pkg/config"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

var _ production.PostingGuard = (*PostingGuard)(nil)

// ErrLockBusy otra instancia tiene el bloqueo de la misma llave.
var ErrLockBusy = errors.New("bloqueo distribuido ocupado")

const (
	defaultLockTTL = 30 * time.Second
	retryInterval  = 50 * time.Millisecond
	retryAttempts  = 10
)

// NewClient crea el cliente go-redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PostingGuard bloqueo por llave con redislock. Si la llave está tomada reintenta brevemente
// y luego devuelve ErrLockBusy; quien llama decide si continúa.
type PostingGuard struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewPostingGuard construye el guard sobre un cliente go-redis.
func NewPostingGuard(client goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *PostingGuard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PostingGuard{locker: redislock.New(client), ttl: ttl, log: log.Named("posting_guard")}
}

// Acquire obtiene el bloqueo de key; release libera el bloqueo (idempotente).
func (g *PostingGuard) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := g.locker.Obtain(ctx, key, g.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), retryAttempts),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLockBusy, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock: %w", err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// El contexto de la petición puede estar cancelado; la liberación usa uno propio.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			g.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el bloqueo distribuido")
		}
	}, nil
}
