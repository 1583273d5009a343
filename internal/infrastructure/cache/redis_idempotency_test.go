package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cod-remittance-api/internal/application/dto"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/cache"
	"github.com/jhoicas/cod-remittance-api/pkg/config"
)

func TestNewRedisClient_SinDireccion(t *testing.T) {
	rdb, err := cache.NewRedisClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

// Requiere Redis: COD_TEST_REDIS_ADDR=localhost:6379
func TestIdempotencyStore_PrimeraRespuestaGana(t *testing.T) {
	addr := os.Getenv("COD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("COD_TEST_REDIS_ADDR no definido")
	}
	ctx := context.Background()
	rdb, err := cache.NewRedisClient(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	store := cache.NewIdempotencyStore(rdb, time.Minute)
	key := "test:" + uuid.NewString()

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, key, dto.IdempotentResponse{Status: 201, Body: []byte(`{"id":"a"}`)}))
	require.NoError(t, store.Save(ctx, key, dto.IdempotentResponse{Status: 409, Body: []byte(`{}`)}))

	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.Status)
	assert.JSONEq(t, `{"id":"a"}`, string(got.Body))
}
