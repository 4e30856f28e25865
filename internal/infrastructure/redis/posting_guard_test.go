package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/infrastructure/redis"
	"github.com/jhoicas/produccion-api/pkg/config"
)

func newGuard(t *testing.T) (*redis.PostingGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewPostingGuard(client, 5*time.Second, nil), mr
}

func TestPostingGuard_ExclusionPorLlave(t *testing.T) {
	guard, mr := newGuard(t)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "batch-production:plan:p1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("batch-production:plan:p1"))

	_, err = guard.Acquire(ctx, "batch-production:plan:p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, redis.ErrLockBusy))

	other, err := guard.Acquire(ctx, "batch-production:plan:p2")
	require.NoError(t, err, "otra llave no está bloqueada")
	other()

	release()
	release()
	assert.False(t, mr.Exists("batch-production:plan:p1"))

	again, err := guard.Acquire(ctx, "batch-production:plan:p1")
	require.NoError(t, err)
	again()
}

func TestPostingGuard_ExpiraPorTTL(t *testing.T) {
	guard, mr := newGuard(t)
	ctx := context.Background()

	_, err := guard.Acquire(ctx, "batch-production:batch:b1")
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	release, err := guard.Acquire(ctx, "batch-production:batch:b1")
	require.NoError(t, err, "un bloqueo abandonado expira con el TTL")
	release()
}

func TestNewClient_SinServidor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := redis.NewClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()
}
