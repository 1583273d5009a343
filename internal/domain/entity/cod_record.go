package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CodStatus estado de un registro de cobro contra entrega.
type CodStatus string

// Estados del registro COD.
const (
	CodStatusPendingCollection CodStatus = "pending_collection" // creado al confirmar la orden
	CodStatusCollected         CodStatus = "collected"          // el mensajero recibió el efectivo
	CodStatusRemitted          CodStatus = "remitted"           // incluido en una remesa al cliente
	CodStatusDisputed          CodStatus = "disputed"
	CodStatusCancelled         CodStatus = "cancelled"
)

// Valid indica si s es un estado conocido.
func (s CodStatus) Valid() bool {
	switch s {
	case CodStatusPendingCollection, CodStatusCollected, CodStatusRemitted, CodStatusDisputed, CodStatusCancelled:
		return true
	}
	return false
}

// CodRecord representa el efectivo esperado/cobrado de un envío.
// Nunca se borra físicamente: los registros en disputa o cancelados quedan para auditoría.
type CodRecord struct {
	ID                   string
	OrderID              string
	ClientID             string // dueño de los fondos; inmutable
	ExpectedAmount       decimal.Decimal
	CollectedAmount      *decimal.Decimal // nil hasta el cobro; inmutable una vez asignado
	Status               CodStatus
	CollectedDate        *time.Time
	RemittedToClientDate *time.Time // no nulo si y solo si Status = remitted
	DisputeReason        string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CollectedOrZero devuelve el monto cobrado o cero si aún no hay cobro.
func (r *CodRecord) CollectedOrZero() decimal.Decimal {
	if r.CollectedAmount == nil {
		return decimal.Zero
	}
	return *r.CollectedAmount
}

// Clone copia el registro; los punteros se comparten porque nunca se mutan en sitio.
func (r *CodRecord) Clone() *CodRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
