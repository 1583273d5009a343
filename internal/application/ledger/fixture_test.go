package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/infrastructure/memory"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	courier  = ledger.Actor{UserID: "courier-1", Role: "courier"}
	operator = ledger.Actor{UserID: "operator-1", Role: "operator"}
	admin    = ledger.Actor{UserID: "admin-1", Role: "admin"}
)

// stepClock avanza un minuto en cada lectura para que collected_date sea distinto por registro.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	clock       *stepClock
	records     *ledger.RecordUseCase
	remittances *ledger.RemittanceUseCase
	clearing    *ledger.ClearingUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, cod.BatchPolicy{}, retry.Policy{})
}

func newFixtureWith(t *testing.T, policy cod.BatchPolicy, rp retry.Policy) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &stepClock{now: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
	return &fixture{
		ctx:   context.Background(),
		store: store,
		clock: clock,
		records: ledger.NewRecordUseCase(store, store.Records(), store.Audit(), rp, nil).
			WithClock(clock.Now),
		remittances: ledger.NewRemittanceUseCase(store, store.Records(), store.Remittances(), nil, policy, rp, nil).
			WithClock(clock.Now),
		clearing: ledger.NewClearingUseCase(store, rp, nil).
			WithClock(clock.Now),
	}
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// pending crea un registro en pending_collection.
func (f *fixture) pending(t *testing.T, clientID string, expected int64) *entity.CodRecord {
	t.Helper()
	rec, err := f.records.Create(f.ctx, operator, ledger.CreateRecordInput{
		OrderID:        "order-" + clientID,
		ClientID:       clientID,
		ExpectedAmount: amount(expected),
	})
	require.NoError(t, err)
	return rec
}

// collected crea un registro y lo marca cobrado con el monto indicado.
func (f *fixture) collected(t *testing.T, clientID string, collected int64) *entity.CodRecord {
	t.Helper()
	rec := f.pending(t, clientID, collected)
	rec, err := f.records.MarkCollected(f.ctx, courier, rec.ID, amount(collected), time.Time{})
	require.NoError(t, err)
	return rec
}

func (f *fixture) get(t *testing.T, id string) *entity.CodRecord {
	t.Helper()
	rec, err := f.records.GetByID(f.ctx, id)
	require.NoError(t, err)
	return rec
}

// assertLedgerInvariants verifica los invariantes globales sobre el estado confirmado.
func (f *fixture) assertLedgerInvariants(t *testing.T, recordIDs []string) {
	t.Helper()
	remittances, err := f.store.Remittances().ListAllWithItems(f.ctx)
	require.NoError(t, err)

	linkedTo := map[string]string{}
	for _, rem := range remittances {
		total := decimal.Zero
		for _, it := range rem.Items {
			prev, dup := linkedTo[it.CodRecordID]
			require.False(t, dup, "registro %s enlazado a %s y %s", it.CodRecordID, prev, rem.ID)
			linkedTo[it.CodRecordID] = rem.ID

			rec := f.get(t, it.CodRecordID)
			require.Equal(t, entity.CodStatusRemitted, rec.Status, "registro enlazado debe estar remitted")
			total = total.Add(rec.CollectedOrZero())
		}
		require.True(t, rem.TotalAmount.Equal(total), "total de remesa %s: %s != %s", rem.ID, rem.TotalAmount, total)
	}

	for _, id := range recordIDs {
		rec := f.get(t, id)
		require.NoError(t, cod.CheckInvariants(rec))
		_, linked := linkedTo[id]
		require.Equal(t, rec.Status == entity.CodStatusRemitted, linked, "registro %s: remitted ⇔ enlazado", id)
	}
}

func ids(records ...*entity.CodRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func requireIneligible(t *testing.T, err error, wantReasons map[string]string) {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrIneligibleRecord)
	got := map[string]string{}
	for _, r := range domain.IneligibleRecords(err) {
		got[r.RecordID] = r.Reason
	}
	require.Equal(t, wantReasons, got)
}
