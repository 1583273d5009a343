package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/postgres"
	"github.com/jhoicas/cod-remittance-api/pkg/config"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
)

// Requiere una base de datos desechable: COD_TEST_DATABASE_URL=postgres://...
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("COD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COD_TEST_DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE cod_audit_log, remittance_items, remittances, cod_records`)
	require.NoError(t, err)
	return pool
}

type pgFixture struct {
	records     *ledger.RecordUseCase
	remittances *ledger.RemittanceUseCase
	clearing    *ledger.ClearingUseCase
}

func newPgFixture(pool *pgxpool.Pool) pgFixture {
	tx := postgres.NewTxRunner(pool)
	rp := retry.Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Retryable: domain.IsRetryable}
	return pgFixture{
		records:     ledger.NewRecordUseCase(tx, postgres.NewCodRecordRepository(pool), postgres.NewAuditRepository(pool), rp, nil),
		remittances: ledger.NewRemittanceUseCase(tx, postgres.NewCodRecordRepository(pool), postgres.NewRemittanceRepository(pool), nil, cod.BatchPolicy{}, rp, nil),
		clearing:    ledger.NewClearingUseCase(tx, rp, nil),
	}
}

var actor = ledger.Actor{UserID: "it-operator", Role: "operator"}

func collected(t *testing.T, f pgFixture, clientID string, v int64) *entity.CodRecord {
	t.Helper()
	ctx := context.Background()
	rec, err := f.records.Create(ctx, actor, ledger.CreateRecordInput{
		OrderID: "order-it", ClientID: clientID, ExpectedAmount: decimal.NewFromInt(v),
	})
	require.NoError(t, err)
	rec, err = f.records.MarkCollected(ctx, actor, rec.ID, decimal.NewFromInt(v), time.Time{})
	require.NoError(t, err)
	return rec
}

func TestPostgresLedger_CicloCompleto(t *testing.T) {
	pool := newTestPool(t)
	f := newPgFixture(pool)
	ctx := context.Background()

	r1 := collected(t, f, "client-a", 50)
	r2 := collected(t, f, "client-a", 70)

	eligible, err := f.records.ListEligibleForRemittance(ctx, "client-a")
	require.NoError(t, err)
	assert.Len(t, eligible, 2)

	rem, err := f.remittances.CreateRemittance(ctx, actor, "client-a", []string{r1.ID, r2.ID})
	require.NoError(t, err)
	assert.True(t, rem.TotalAmount.Equal(decimal.NewFromInt(120)))

	stored, err := f.remittances.GetRemittance(ctx, rem.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	got, err := f.records.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CodStatusRemitted, got.Status)
	assert.NotNil(t, got.RemittedToClientDate)

	_, err = f.remittances.CreateRemittance(ctx, actor, "client-a", []string{r1.ID})
	assert.ErrorIs(t, err, domain.ErrIneligibleRecord)

	res, err := f.clearing.ClearAllRemittances(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemittancesDeleted)
	assert.Equal(t, 2, res.ItemsDeleted)
	assert.Equal(t, 2, res.RecordsReverted)

	got, err = f.records.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CodStatusCollected, got.Status)
	assert.Nil(t, got.RemittedToClientDate)

	res, err = f.clearing.ClearAllRemittances(ctx, actor)
	require.NoError(t, err)
	assert.Zero(t, res.RemittancesDeleted)

	history, err := f.records.History(ctx, r1.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(history), 4)
}

func TestPostgresLedger_RemesasConcurrentes(t *testing.T) {
	pool := newTestPool(t)
	f := newPgFixture(pool)
	rec := collected(t, f, "client-a", 90)

	const workers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.remittances.CreateRemittance(context.Background(), actor, "client-a", []string{rec.ID})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrIneligibleRecord)
	}
	assert.Equal(t, 1, succeeded)

	var items int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT count(*) FROM remittance_items WHERE cod_record_id = $1`, rec.ID).Scan(&items))
	assert.Equal(t, 1, items)
}

func TestPostgresLedger_ConstraintDeFechaDeRemesa(t *testing.T) {
	pool := newTestPool(t)
	f := newPgFixture(pool)
	rec := collected(t, f, "client-a", 10)

	_, err := pool.Exec(context.Background(),
		`UPDATE cod_records SET status = 'remitted' WHERE id = $1`, rec.ID)
	assert.Error(t, err, "remitted sin remitted_to_client_date viola el CHECK")
}
