package cod_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
)

var (
	allStatuses = []entity.CodStatus{
		entity.CodStatusPendingCollection,
		entity.CodStatusCollected,
		entity.CodStatusRemitted,
		entity.CodStatusDisputed,
		entity.CodStatusCancelled,
	}
	allEvents = []cod.Event{cod.EventCollect, cod.EventDispute, cod.EventCancel, cod.EventRemit, cod.EventClear}
)

// TestTransition_TablaCompleta recorre todos los pares (estado, evento).
func TestTransition_TablaCompleta(t *testing.T) {
	legal := map[entity.CodStatus]map[cod.Event]entity.CodStatus{
		entity.CodStatusPendingCollection: {
			cod.EventCollect: entity.CodStatusCollected,
			cod.EventDispute: entity.CodStatusDisputed,
			cod.EventCancel:  entity.CodStatusCancelled,
		},
		entity.CodStatusCollected: {
			cod.EventRemit:   entity.CodStatusRemitted,
			cod.EventDispute: entity.CodStatusDisputed,
			cod.EventCancel:  entity.CodStatusCancelled,
		},
		entity.CodStatusRemitted: {
			cod.EventClear: entity.CodStatusCollected,
		},
	}

	for _, from := range allStatuses {
		for _, ev := range allEvents {
			to, err := cod.Transition(from, ev)
			want, ok := legal[from][ev]
			if ok {
				require.NoError(t, err, "%s desde %s debe ser legal", ev, from)
				assert.Equal(t, want, to)
				continue
			}
			require.Error(t, err, "%s desde %s debe ser ilegal", ev, from)
			assert.ErrorIs(t, err, domain.ErrIllegalTransition)
			assert.Equal(t, from, to, "una transición rechazada no cambia el estado")

			var ite *domain.IllegalTransitionError
			require.True(t, errors.As(err, &ite))
			assert.Equal(t, string(from), ite.From)
			assert.Equal(t, string(ev), ite.Event)
		}
	}
}

func TestIsTerminalForOperator(t *testing.T) {
	assert.False(t, cod.IsTerminalForOperator(entity.CodStatusPendingCollection))
	assert.False(t, cod.IsTerminalForOperator(entity.CodStatusCollected))
	assert.True(t, cod.IsTerminalForOperator(entity.CodStatusRemitted))
	assert.True(t, cod.IsTerminalForOperator(entity.CodStatusDisputed))
	assert.True(t, cod.IsTerminalForOperator(entity.CodStatusCancelled))
}

func TestEventIsManual(t *testing.T) {
	assert.True(t, cod.EventCollect.IsManual())
	assert.True(t, cod.EventDispute.IsManual())
	assert.True(t, cod.EventCancel.IsManual())
	assert.False(t, cod.EventRemit.IsManual())
	assert.False(t, cod.EventClear.IsManual())
}

func newRecord(t *testing.T) *entity.CodRecord {
	t.Helper()
	rec, err := cod.NewRecord("rec-1", "order-1", "client-1", decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)
	return rec
}

func TestNewRecord_MontoNegativo(t *testing.T) {
	_, err := cod.NewRecord("rec-1", "order-1", "client-1", decimal.NewFromInt(-1), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = cod.NewRecord("rec-1", "", "client-1", decimal.NewFromInt(1), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateAmount_PrecisionYRango(t *testing.T) {
	valid := []string{"0", "10", "10.5", "10.50", "9999999999999999.99", "-0"}
	for _, v := range valid {
		assert.NoError(t, cod.ValidateAmount(decimal.RequireFromString(v)), v)
	}
	invalid := []string{"-0.01", "10.005", "0.001", "10000000000000000", "100000000000000000000"}
	for _, v := range invalid {
		assert.ErrorIs(t, cod.ValidateAmount(decimal.RequireFromString(v)), domain.ErrInvalidAmount, v)
	}
}

func TestCollect_MontoConFraccionDeCentavoNoCambiaEstado(t *testing.T) {
	rec := newRecord(t)
	err := cod.Collect(rec, decimal.RequireFromString("10.005"), time.Now(), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, entity.CodStatusPendingCollection, rec.Status)
	assert.Nil(t, rec.CollectedAmount)

	_, err = cod.NewRecord("rec-2", "order-2", "client-1", decimal.RequireFromString("1e20"), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCollect_RemitClear_MantieneInvariantes(t *testing.T) {
	rec := newRecord(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, cod.CheckInvariants(rec))

	require.NoError(t, cod.Collect(rec, decimal.NewFromInt(80), now, now))
	assert.Equal(t, entity.CodStatusCollected, rec.Status)
	assert.True(t, rec.CollectedAmount.Equal(decimal.NewFromInt(80)))
	assert.Nil(t, rec.RemittedToClientDate)
	require.NoError(t, cod.CheckInvariants(rec))

	require.NoError(t, cod.Remit(rec, now.Add(time.Hour)))
	assert.Equal(t, entity.CodStatusRemitted, rec.Status)
	require.NotNil(t, rec.RemittedToClientDate)
	require.NoError(t, cod.CheckInvariants(rec))

	require.NoError(t, cod.Clear(rec, now.Add(2*time.Hour)))
	assert.Equal(t, entity.CodStatusCollected, rec.Status)
	assert.Nil(t, rec.RemittedToClientDate)
	assert.True(t, rec.CollectedAmount.Equal(decimal.NewFromInt(80)), "el monto cobrado sobrevive a la limpieza")
	require.NoError(t, cod.CheckInvariants(rec))
}

func TestCollect_MontoNegativoNoCambiaEstado(t *testing.T) {
	rec := newRecord(t)
	err := cod.Collect(rec, decimal.NewFromInt(-5), time.Now(), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, entity.CodStatusPendingCollection, rec.Status)
	assert.Nil(t, rec.CollectedAmount)
}

func TestCollect_DosVecesEsIlegal(t *testing.T) {
	rec := newRecord(t)
	require.NoError(t, cod.Collect(rec, decimal.NewFromInt(10), time.Now(), time.Now()))
	err := cod.Collect(rec, decimal.NewFromInt(20), time.Now(), time.Now())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.True(t, rec.CollectedAmount.Equal(decimal.NewFromInt(10)))
}

// Escenario D: disputar un registro remesado es ilegal.
func TestDispute_RegistroRemesado(t *testing.T) {
	rec := newRecord(t)
	now := time.Now()
	require.NoError(t, cod.Collect(rec, decimal.NewFromInt(10), now, now))
	require.NoError(t, cod.Remit(rec, now))

	err := cod.Dispute(rec, "cliente reclama", now)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, entity.CodStatusRemitted, rec.Status)
	assert.Empty(t, rec.DisputeReason)

	assert.ErrorIs(t, cod.Cancel(rec, now), domain.ErrIllegalTransition)
}

func TestCheckInvariants_DetectaFechaInconsistente(t *testing.T) {
	rec := newRecord(t)
	now := time.Now()
	rec.RemittedToClientDate = &now
	assert.Error(t, cod.CheckInvariants(rec))

	rec = newRecord(t)
	rec.Status = entity.CodStatusCollected
	assert.Error(t, cod.CheckInvariants(rec), "collected sin monto cobrado")
}

func TestBatchPolicy(t *testing.T) {
	p := cod.BatchPolicy{MinTotalAmount: decimal.NewFromInt(50), MaxItems: 2, RequireFullBatch: true}

	assert.NoError(t, p.CheckSize(2))
	assert.ErrorIs(t, p.CheckSize(3), domain.ErrPolicyViolation)

	assert.NoError(t, p.CheckTotal(decimal.NewFromInt(50)))
	assert.ErrorIs(t, p.CheckTotal(decimal.NewFromInt(49)), domain.ErrPolicyViolation)

	assert.NoError(t, p.CheckCoverage([]string{"a", "b"}, []string{"b", "a"}))
	assert.ErrorIs(t, p.CheckCoverage([]string{"a"}, []string{"a", "b"}), domain.ErrPolicyViolation)

	var zero cod.BatchPolicy
	assert.NoError(t, zero.CheckSize(1000))
	assert.NoError(t, zero.CheckTotal(decimal.Zero))
	assert.NoError(t, zero.CheckCoverage([]string{"a"}, []string{"a", "b"}))
}
