package dto

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AmountInput monto recibido como número o cadena JSON. El decodificador no falla con
// valores mal formados; Decimal los reporta como domain.ErrInvalidAmount.
type AmountInput struct {
	raw string
	set bool
}

// UnmarshalJSON guarda el texto del monto sin interpretarlo; null equivale a ausente.
func (a *AmountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = AmountInput{}
		return nil
	}
	raw := string(b)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*a = AmountInput{raw: raw, set: true}
	return nil
}

// IsSet indica si el campo vino en el cuerpo.
func (a AmountInput) IsSet() bool { return a.set }

// Decimal convierte el monto; el rango y la precisión los valida el dominio.
func (a AmountInput) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q no es un monto", domain.ErrInvalidAmount, a.raw)
	}
	return d, nil
}

// CreateCodRecordRequest body para POST /api/cod/records (lo envía el subsistema de órdenes).
type CreateCodRecordRequest struct {
	OrderID        string          `json:"order_id"`
	ClientID       string          `json:"client_id"`
	ExpectedAmount AmountInput `json:"expected_amount"`
}

// CollectRequest body para POST /api/cod/records/:id/collect.
// CollectedDate opcional; vacío = ahora.
type CollectRequest struct {
	CollectedAmount AmountInput `json:"collected_amount"`
	CollectedDate   *time.Time  `json:"collected_date,omitempty"`
}

// DisputeRequest body para POST /api/cod/records/:id/dispute.
type DisputeRequest struct {
	Reason string `json:"reason"`
}

// CreateRemittanceRequest body para POST /api/cod/remittances.
type CreateRemittanceRequest struct {
	ClientID  string   `json:"client_id"`
	RecordIDs []string `json:"record_ids"`
}

// CodRecordResponse registro COD en respuestas.
type CodRecordResponse struct {
	ID                   string           `json:"id"`
	OrderID              string           `json:"order_id"`
	ClientID             string           `json:"client_id"`
	ExpectedAmount       decimal.Decimal  `json:"expected_amount"`
	CollectedAmount      *decimal.Decimal `json:"collected_amount"`
	Status               string           `json:"status"`
	CollectedDate        *time.Time       `json:"collected_date"`
	RemittedToClientDate *time.Time       `json:"remitted_to_client_date"`
	DisputeReason        string           `json:"dispute_reason,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// CodRecordListResponse listado paginado de registros.
type CodRecordListResponse struct {
	Items []CodRecordResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// EligibleRecordsResponse registros que el operador puede seleccionar para una remesa.
type EligibleRecordsResponse struct {
	ClientID    string              `json:"client_id"`
	Items       []CodRecordResponse `json:"items"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
}

// RemittanceItemResponse ítem de remesa.
type RemittanceItemResponse struct {
	ID          string          `json:"id"`
	CodRecordID string          `json:"cod_record_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// RemittanceResponse remesa con sus ítems.
type RemittanceResponse struct {
	ID          string                   `json:"id"`
	ClientID    string                   `json:"client_id"`
	CreatedDate time.Time                `json:"created_date"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
	CreatedBy   string                   `json:"created_by"`
	Items       []RemittanceItemResponse `json:"items"`
}

// RemittanceListResponse listado paginado de remesas.
type RemittanceListResponse struct {
	Items []RemittanceResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// ClearingResponse resultado de POST /api/cod/remittances/clear.
type ClearingResponse struct {
	RemittancesDeleted int      `json:"remittances_deleted"`
	ItemsDeleted       int      `json:"items_deleted"`
	RecordsReverted    int      `json:"records_reverted"`
	RevertedRecordIDs  []string `json:"reverted_record_ids"`
}

// AuditEntryResponse entrada del historial de un registro.
type AuditEntryResponse struct {
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Role       string    `json:"role,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToCodRecordResponse convierte la entidad en DTO.
func ToCodRecordResponse(r *entity.CodRecord) CodRecordResponse {
	return CodRecordResponse{
		ID:                   r.ID,
		OrderID:              r.OrderID,
		ClientID:             r.ClientID,
		ExpectedAmount:       r.ExpectedAmount,
		CollectedAmount:      r.CollectedAmount,
		Status:               string(r.Status),
		CollectedDate:        r.CollectedDate,
		RemittedToClientDate: r.RemittedToClientDate,
		DisputeReason:        r.DisputeReason,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// ToCodRecordResponses convierte una lista; nunca devuelve nil para que el JSON sea [].
func ToCodRecordResponses(list []*entity.CodRecord) []CodRecordResponse {
	out := make([]CodRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ToCodRecordResponse(r))
	}
	return out
}

// ToRemittanceResponse convierte la remesa en DTO.
func ToRemittanceResponse(r *entity.Remittance) RemittanceResponse {
	items := make([]RemittanceItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, RemittanceItemResponse{ID: it.ID, CodRecordID: it.CodRecordID, Amount: it.Amount})
	}
	return RemittanceResponse{
		ID:          r.ID,
		ClientID:    r.ClientID,
		CreatedDate: r.CreatedDate,
		TotalAmount: r.TotalAmount,
		CreatedBy:   r.CreatedBy,
		Items:       items,
	}
}

// ToAuditEntryResponses convierte el historial.
func ToAuditEntryResponses(list []*entity.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, AuditEntryResponse{
			Action:     e.Action,
			Actor:      e.Actor,
			Role:       e.Role,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
