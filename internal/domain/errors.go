package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Ledger COD.
	ErrInvalidAmount      = errors.New("monto inválido")
	ErrIllegalTransition  = errors.New("transición de estado no permitida")
	ErrIneligibleRecord   = errors.New("registro COD no elegible para remesa")
	ErrEmptyBatch         = errors.New("la remesa no contiene registros")
	ErrPolicyViolation    = errors.New("la remesa no cumple la política de lote")
	ErrStorageUnavailable = errors.New("almacenamiento no disponible")
)

// Motivos de inelegibilidad de un registro COD.
const (
	ReasonNotFound        = "not_found"
	ReasonClientMismatch  = "client_mismatch"
	ReasonNotCollected    = "not_collected"
	ReasonAlreadyRemitted = "already_remitted"
)

// IllegalTransitionError detalla la transición rechazada por la máquina de estados.
type IllegalTransitionError struct {
	From  string
	Event string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("transición no permitida: %s desde %s", e.Event, e.From)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// IneligibleRecordError identifica el registro que impide crear la remesa y el motivo.
type IneligibleRecordError struct {
	RecordID string
	Reason   string
	Status   string // estado actual si el registro existe
}

func (e *IneligibleRecordError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("registro %s no elegible: %s (estado %s)", e.RecordID, e.Reason, e.Status)
	}
	return fmt.Sprintf("registro %s no elegible: %s", e.RecordID, e.Reason)
}

func (e *IneligibleRecordError) Unwrap() error {
	return ErrIneligibleRecord
}

// IneligibleRecordsError agrupa todos los registros rechazados de un lote para que
// el operador pueda deseleccionarlos uno por uno.
type IneligibleRecordsError struct {
	Records []*IneligibleRecordError
}

func (e *IneligibleRecordsError) Error() string {
	parts := make([]string, 0, len(e.Records))
	for _, r := range e.Records {
		parts = append(parts, r.RecordID+"="+r.Reason)
	}
	return "registros no elegibles: " + strings.Join(parts, ", ")
}

// Unwrap expone cada registro; errors.As(err, **IneligibleRecordError) devuelve el primero.
func (e *IneligibleRecordsError) Unwrap() []error {
	out := make([]error, 0, len(e.Records))
	for _, r := range e.Records {
		out = append(out, r)
	}
	return out
}

// IneligibleRecords extrae todos los registros rechazados de err (uno o varios).
func IneligibleRecords(err error) []*IneligibleRecordError {
	var many *IneligibleRecordsError
	if errors.As(err, &many) {
		return many.Records
	}
	var one *IneligibleRecordError
	if errors.As(err, &one) {
		return []*IneligibleRecordError{one}
	}
	return nil
}

// IsRetryable indica si la operación puede reintentarse (solo fallas de infraestructura).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsClientError indica si el error se debe a la entrada del llamador.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrIneligibleRecord) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrPolicyViolation)
}
