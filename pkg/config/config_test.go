package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.Remittance.MinTotal.IsZero())
	assert.Equal(t, 0, cfg.Remittance.MaxItems)
	assert.False(t, cfg.Remittance.RequireFullBatch)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Empty(t, cfg.Redis.Addr, "sin Redis la idempotencia queda desactivada")
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
}

func TestFromViper_PoliticaDeRemesa(t *testing.T) {
	v := viper.New()
	v.Set("REMITTANCE_MIN_TOTAL", "150.50")
	v.Set("REMITTANCE_MAX_ITEMS", "200")
	v.Set("REMITTANCE_REQUIRE_FULL_BATCH", "true")
	v.Set("DB_AUTO_MIGRATE", "1")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "150.5", cfg.Remittance.MinTotal.String())
	assert.Equal(t, 200, cfg.Remittance.MaxItems)
	assert.True(t, cfg.Remittance.RequireFullBatch)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestFromViper_MinimoInvalido(t *testing.T) {
	v := viper.New()
	v.Set("REMITTANCE_MIN_TOTAL", "abc")
	_, err := fromViper(v)
	assert.Error(t, err)

	v.Set("REMITTANCE_MIN_TOTAL", "-1")
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "cod", Password: "p@ss:word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://cod:p%40ss%3Aword@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
