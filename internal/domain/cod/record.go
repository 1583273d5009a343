package cod

import (
	"fmt"
	"time"

	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Precisión de las columnas NUMERIC(18,2): centavos y 16 dígitos enteros.
const amountScale = 2

var maxAmount = decimal.New(1, 16)

// ValidateAmount rechaza montos negativos, con fracción menor al centavo o fuera del
// rango que admite el almacenamiento. No se redondea: el monto guardado es el recibido.
func ValidateAmount(amount decimal.Decimal) error {
	switch {
	case amount.IsNegative():
		return fmt.Errorf("%w: %s negativo", domain.ErrInvalidAmount, amount.String())
	case !amount.Equal(amount.Truncate(amountScale)):
		return fmt.Errorf("%w: %s tiene más de %d decimales", domain.ErrInvalidAmount, amount.String(), amountScale)
	case amount.Abs().GreaterThanOrEqual(maxAmount):
		return fmt.Errorf("%w: %s excede el máximo permitido", domain.ErrInvalidAmount, amount.String())
	}
	return nil
}

// NewRecord construye un registro en pending_collection.
func NewRecord(id, orderID, clientID string, expected decimal.Decimal, now time.Time) (*entity.CodRecord, error) {
	if orderID == "" || clientID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := ValidateAmount(expected); err != nil {
		return nil, err
	}
	return &entity.CodRecord{
		ID:             id,
		OrderID:        orderID,
		ClientID:       clientID,
		ExpectedAmount: expected,
		Status:         entity.CodStatusPendingCollection,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Collect registra el efectivo recibido. El monto cobrado no se puede reescribir.
func Collect(r *entity.CodRecord, amount decimal.Decimal, collectedAt, now time.Time) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	to, err := Transition(r.Status, EventCollect)
	if err != nil {
		return err
	}
	if r.CollectedAmount != nil {
		return &domain.IllegalTransitionError{From: string(r.Status), Event: string(EventCollect)}
	}
	r.Status = to
	r.CollectedAmount = &amount
	r.CollectedDate = &collectedAt
	r.UpdatedAt = now
	return nil
}

// Dispute marca el registro en disputa; la corrección exige un registro nuevo.
func Dispute(r *entity.CodRecord, reason string, now time.Time) error {
	to, err := Transition(r.Status, EventDispute)
	if err != nil {
		return err
	}
	r.Status = to
	r.DisputeReason = reason
	r.UpdatedAt = now
	return nil
}

// Cancel cancela el registro.
func Cancel(r *entity.CodRecord, now time.Time) error {
	to, err := Transition(r.Status, EventCancel)
	if err != nil {
		return err
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// Remit enlaza el registro a una remesa. Lo invoca solo el agregador.
func Remit(r *entity.CodRecord, now time.Time) error {
	to, err := Transition(r.Status, EventRemit)
	if err != nil {
		return err
	}
	r.Status = to
	r.RemittedToClientDate = &now
	r.UpdatedAt = now
	return nil
}

// Clear revierte un registro remesado a collected. Lo invoca solo la limpieza.
func Clear(r *entity.CodRecord, now time.Time) error {
	to, err := Transition(r.Status, EventClear)
	if err != nil {
		return err
	}
	r.Status = to
	r.RemittedToClientDate = nil
	r.UpdatedAt = now
	return nil
}

// CheckInvariants verifica los invariantes de un registro antes de persistirlo.
func CheckInvariants(r *entity.CodRecord) error {
	if !r.Status.Valid() {
		return fmt.Errorf("registro %s: estado desconocido %q", r.ID, r.Status)
	}
	if (r.Status == entity.CodStatusRemitted) != (r.RemittedToClientDate != nil) {
		return fmt.Errorf("registro %s: remitted_to_client_date inconsistente con estado %s", r.ID, r.Status)
	}
	if r.ExpectedAmount.IsNegative() {
		return fmt.Errorf("registro %s: %w", r.ID, domain.ErrInvalidAmount)
	}
	if r.CollectedAmount != nil && r.CollectedAmount.IsNegative() {
		return fmt.Errorf("registro %s: %w", r.ID, domain.ErrInvalidAmount)
	}
	needsCollection := r.Status == entity.CodStatusCollected || r.Status == entity.CodStatusRemitted
	if needsCollection && (r.CollectedAmount == nil || r.CollectedDate == nil) {
		return fmt.Errorf("registro %s: estado %s sin monto cobrado", r.ID, r.Status)
	}
	return nil
}
