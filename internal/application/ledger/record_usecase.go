package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
	"github.com/jhoicas/cod-remittance-api/internal/observability/metrics"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
	"github.com/shopspring/decimal"
)

// RecordUseCase almacén de registros COD: alta al confirmar la orden y
// transiciones manuales de mensajero/operador (cobro, disputa, cancelación).
type RecordUseCase struct {
	txRunner TxRunner
	records  repository.CodRecordRepository
	audit    repository.AuditRepository
	retry    retry.Policy
	log      *logger.Logger
	now      func() time.Time
}

// NewRecordUseCase construye el caso de uso. records y audit se usan solo para lecturas fuera de tx.
func NewRecordUseCase(
	txRunner TxRunner,
	records repository.CodRecordRepository,
	audit repository.AuditRepository,
	retryPolicy retry.Policy,
	log *logger.Logger,
) *RecordUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RecordUseCase{
		txRunner: txRunner,
		records:  records,
		audit:    audit,
		retry:    retryPolicy,
		log:      log.Component("cod_records"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *RecordUseCase) WithClock(now func() time.Time) *RecordUseCase {
	uc.now = now
	return uc
}

// CreateRecordInput datos que entrega el subsistema de órdenes al confirmar cobro contra entrega.
type CreateRecordInput struct {
	OrderID        string
	ClientID       string
	ExpectedAmount decimal.Decimal
}

// Create registra el efectivo esperado de un envío en pending_collection.
func (uc *RecordUseCase) Create(ctx context.Context, actor Actor, in CreateRecordInput) (*entity.CodRecord, error) {
	now := uc.now().UTC()
	rec, err := cod.NewRecord(uuid.New().String(), in.OrderID, in.ClientID, in.ExpectedAmount, now)
	if err != nil {
		return nil, err
	}

	err = retry.Do(ctx, uc.retry, func() error {
		return uc.txRunner.Run(ctx, repository.LockNone, func(
			records repository.CodRecordRepository,
			_ repository.RemittanceRepository,
			audit repository.AuditRepository,
		) error {
			if err := records.Create(ctx, rec); err != nil {
				return err
			}
			return audit.Log(ctx, newAuditEntry(actor, ActionRecordCreated, entity.AuditResourceCodRecord, rec.ID,
				"", rec.Status, map[string]string{
					"order_id":        rec.OrderID,
					"client_id":       rec.ClientID,
					"expected_amount": rec.ExpectedAmount.String(),
				}, now))
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("record_id", rec.ID).
		Str("order_id", rec.OrderID).
		Str("client_id", rec.ClientID).
		Str("actor", actor.UserID).
		Msg("registro COD creado")
	return rec, nil
}

// MarkCollected registra el cobro. Solo es legal desde pending_collection.
// collectedDate cero usa la hora actual.
func (uc *RecordUseCase) MarkCollected(ctx context.Context, actor Actor, id string, amount decimal.Decimal, collectedDate time.Time) (*entity.CodRecord, error) {
	if err := cod.ValidateAmount(amount); err != nil {
		metrics.ObserveTransition(string(cod.EventCollect), metrics.ResultRejected)
		return nil, err
	}
	return uc.transition(ctx, actor, id, cod.EventCollect, ActionRecordCollect,
		map[string]string{"collected_amount": amount.String()},
		func(rec *entity.CodRecord, now time.Time) error {
			at := collectedDate
			if at.IsZero() {
				at = now
			}
			return cod.Collect(rec, amount, at.UTC(), now)
		})
}

// MarkDisputed pone el registro en disputa (desde pending_collection o collected).
func (uc *RecordUseCase) MarkDisputed(ctx context.Context, actor Actor, id, reason string) (*entity.CodRecord, error) {
	return uc.transition(ctx, actor, id, cod.EventDispute, ActionRecordDispute,
		map[string]string{"reason": reason},
		func(rec *entity.CodRecord, now time.Time) error {
			return cod.Dispute(rec, reason, now)
		})
}

// MarkCancelled cancela el registro (desde pending_collection o collected).
func (uc *RecordUseCase) MarkCancelled(ctx context.Context, actor Actor, id string) (*entity.CodRecord, error) {
	return uc.transition(ctx, actor, id, cod.EventCancel, ActionRecordCancel, nil,
		func(rec *entity.CodRecord, now time.Time) error {
			return cod.Cancel(rec, now)
		})
}

// transition bloquea la fila, aplica el evento y audita en la misma transacción.
// Si la guarda falla no se escribe nada.
func (uc *RecordUseCase) transition(
	ctx context.Context,
	actor Actor,
	id string,
	ev cod.Event,
	action string,
	metadata map[string]string,
	apply func(rec *entity.CodRecord, now time.Time) error,
) (*entity.CodRecord, error) {
	if !ev.IsManual() {
		return nil, &domain.IllegalTransitionError{Event: string(ev)}
	}
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	var out *entity.CodRecord
	var from entity.CodStatus
	err := retry.Do(ctx, uc.retry, func() error {
		return uc.txRunner.Run(ctx, repository.LockNone, func(
			records repository.CodRecordRepository,
			_ repository.RemittanceRepository,
			audit repository.AuditRepository,
		) error {
			rec, err := records.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if rec == nil {
				return domain.ErrNotFound
			}
			now := uc.now().UTC()
			from = rec.Status
			if err := apply(rec, now); err != nil {
				return err
			}
			if err := records.Update(ctx, rec); err != nil {
				return err
			}
			if err := audit.Log(ctx, newAuditEntry(actor, action, entity.AuditResourceCodRecord, rec.ID, from, rec.Status, metadata, now)); err != nil {
				return err
			}
			out = rec
			return nil
		})
	})
	metrics.ObserveTransition(string(ev), resultOf(err))
	if err != nil {
		uc.log.Debug().Err(err).Str("record_id", id).Str("event", string(ev)).Msg("transición rechazada")
		return nil, err
	}
	uc.log.Info().
		Str("record_id", out.ID).
		Str("event", string(ev)).
		Str("from", string(from)).
		Str("to", string(out.Status)).
		Str("actor", actor.UserID).
		Msg("transición de registro COD")
	return out, nil
}

// GetByID devuelve el registro o domain.ErrNotFound.
func (uc *RecordUseCase) GetByID(ctx context.Context, id string) (*entity.CodRecord, error) {
	rec, err := uc.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListEligibleForRemittance registros collected del cliente sin remesa, más antiguos primero.
// La lectura puede quedar obsoleta; CreateRemittance vuelve a verificar al confirmar.
func (uc *RecordUseCase) ListEligibleForRemittance(ctx context.Context, clientID string) ([]*entity.CodRecord, error) {
	if clientID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.records.ListEligible(ctx, clientID)
}

// ListByClient lista registros del cliente, opcionalmente filtrados por estado.
func (uc *RecordUseCase) ListByClient(ctx context.Context, clientID string, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error) {
	if clientID == "" {
		return nil, domain.ErrInvalidInput
	}
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return uc.records.ListByClient(ctx, clientID, status, limit, offset)
}

// ListByStatus lista registros de todos los clientes en un estado.
func (uc *RecordUseCase) ListByStatus(ctx context.Context, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return uc.records.ListByStatus(ctx, status, limit, offset)
}

// History devuelve el rastro de auditoría del registro.
func (uc *RecordUseCase) History(ctx context.Context, id string) ([]*entity.AuditEntry, error) {
	if _, err := uc.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.audit.ListByResource(ctx, entity.AuditResourceCodRecord, id)
}
