// Package cache guarda en Redis las respuestas de escrituras con Idempotency-Key
// para que un reenvío del operador reciba la misma respuesta sin repetir la operación.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/cod-remittance-api/internal/application/dto"
	"github.com/jhoicas/cod-remittance-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cod:idem:"

// IdempotencyStore respuestas guardadas por clave.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient conecta a Redis; devuelve nil, nil si Addr está vacío.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewIdempotencyStore construye el store; ttl <= 0 usa 24h.
func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Get devuelve la respuesta guardada o nil si no existe.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*dto.IdempotentResponse, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var resp dto.IdempotentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decodificar respuesta idempotente: %w", err)
	}
	return &resp, nil
}

// Save guarda la respuesta solo si la clave no existe (la primera gana).
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp dto.IdempotentResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("codificar respuesta idempotente: %w", err)
	}
	if err := s.rdb.SetNX(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}
