package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Remittance lote de pago al cliente con el efectivo cobrado en su nombre.
// TotalAmount se deriva de los ítems al crearse y nunca se edita.
type Remittance struct {
	ID          string
	ClientID    string
	CreatedDate time.Time
	TotalAmount decimal.Decimal
	CreatedBy   string
	Items       []RemittanceItem
}

// RemittanceItem enlaza 1:1 una remesa con un registro COD.
type RemittanceItem struct {
	ID           string
	RemittanceID string
	CodRecordID  string
	Amount       decimal.Decimal // monto cobrado del registro al momento de remesar
}

// RecordIDs devuelve los IDs de los registros enlazados.
func (r *Remittance) RecordIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		ids = append(ids, it.CodRecordID)
	}
	return ids
}

// ItemsTotal suma los montos de los ítems.
func (r *Remittance) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Amount)
	}
	return total
}

// Clone copia la remesa incluyendo sus ítems.
func (r *Remittance) Clone() *Remittance {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = append([]RemittanceItem(nil), r.Items...)
	return &c
}
