package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/cache"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/export"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/cod-remittance-api/internal/interfaces/http"
	"github.com/jhoicas/cod-remittance-api/internal/observability/metrics"
	"github.com/jhoicas/cod-remittance-api/pkg/config"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
	}

	metrics.Init(nil)

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Retryable:   domain.IsRetryable,
	}
	batchPolicy := cod.BatchPolicy{
		MinTotalAmount:   cfg.Remittance.MinTotal,
		MaxItems:         cfg.Remittance.MaxItems,
		RequireFullBatch: cfg.Remittance.RequireFullBatch,
	}

	recordRepo := postgres.NewCodRecordRepository(pool)
	remittanceRepo := postgres.NewRemittanceRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	recordUC := ledger.NewRecordUseCase(txRunner, recordRepo, auditRepo, retryPolicy, log)
	remittanceUC := ledger.NewRemittanceUseCase(
		txRunner, recordRepo, remittanceRepo,
		export.NewRemittanceXLSXExporter(), batchPolicy, retryPolicy, log,
	)
	clearingUC := ledger.NewClearingUseCase(txRunner, retryPolicy, log)

	// Idempotency-Key en Redis (opcional)
	var idem httpRouter.IdempotencyStore
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis no disponible, idempotencia desactivada")
	} else if rdb != nil {
		defer func() { _ = rdb.Close() }()
		idem = cache.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Records:     recordUC,
		Remittances: remittanceUC,
		Clearing:    clearingUC,
		Idempotency: idem,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
		Health: func(c *fiber.Ctx) error {
			if err := pool.Ping(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
			}
			return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
