// seed_cod carga registros COD de prueba para un cliente en la base configurada
// (migraciones incluidas), útil para probar el flujo de remesas en local.
//
// Uso: go run ./cmd/seed_cod [-client client-demo] [-n 10] [-collected 6]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/postgres"
	"github.com/jhoicas/cod-remittance-api/pkg/config"
	"github.com/jhoicas/cod-remittance-api/pkg/jwt"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
	"github.com/shopspring/decimal"
)

func main() {
	clientID := flag.String("client", "client-demo", "cliente dueño de los registros")
	n := flag.Int("n", 10, "registros a crear")
	collected := flag.Int("collected", 6, "cuántos de ellos marcar como cobrados")
	flag.Parse()

	if err := run(*clientID, *n, *collected); err != nil {
		fmt.Fprintln(os.Stderr, "seed_cod:", err)
		os.Exit(1)
	}
}

func run(clientID string, n, collected int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	uc := ledger.NewRecordUseCase(postgres.NewTxRunner(pool), postgres.NewCodRecordRepository(pool),
		postgres.NewAuditRepository(pool), retry.Policy{}, log)
	actor := ledger.Actor{UserID: "seed_cod", Role: jwt.RoleAdmin}

	for i := 0; i < n; i++ {
		amount := decimal.NewFromInt(int64(20 + 5*i))
		rec, err := uc.Create(ctx, actor, ledger.CreateRecordInput{
			OrderID:        fmt.Sprintf("seed-order-%03d", i+1),
			ClientID:       clientID,
			ExpectedAmount: amount,
		})
		if err != nil {
			return fmt.Errorf("crear registro %d: %w", i+1, err)
		}
		if i < collected {
			if _, err := uc.MarkCollected(ctx, actor, rec.ID, amount, time.Time{}); err != nil {
				return fmt.Errorf("cobrar %s: %w", rec.ID, err)
			}
		}
	}
	fmt.Printf("%d registros creados para %s (%d cobrados)\n", n, clientID, min(collected, n))
	return nil
}
