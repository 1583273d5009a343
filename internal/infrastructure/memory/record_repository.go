package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ repository.CodRecordRepository = (*RecordRepo)(nil)

// RecordRepo registros COD en memoria.
type RecordRepo struct {
	v view
}

// Create inserta el registro; falla si el ID ya existe o viola invariantes.
func (r *RecordRepo) Create(_ context.Context, record *entity.CodRecord) error {
	if err := cod.CheckInvariants(record); err != nil {
		return err
	}
	return r.v.write(func(st *state) error {
		if _, ok := st.records[record.ID]; ok {
			return fmt.Errorf("registro %s duplicado", record.ID)
		}
		st.records[record.ID] = record.Clone()
		return nil
	})
}

// GetByID devuelve una copia del registro o nil.
func (r *RecordRepo) GetByID(_ context.Context, id string) (*entity.CodRecord, error) {
	var out *entity.CodRecord
	r.v.read(func(st *state) {
		out = st.records[id].Clone()
	})
	return out, nil
}

// GetForUpdate en memoria equivale a GetByID: la transacción ya es exclusiva.
func (r *RecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.CodRecord, error) {
	return r.GetByID(ctx, id)
}

// GetManyForUpdate devuelve copias de los registros existentes.
func (r *RecordRepo) GetManyForUpdate(_ context.Context, ids []string) (map[string]*entity.CodRecord, error) {
	out := make(map[string]*entity.CodRecord, len(ids))
	r.v.read(func(st *state) {
		for _, id := range ids {
			if rec, ok := st.records[id]; ok {
				out[id] = rec.Clone()
			}
		}
	})
	return out, nil
}

// Update reemplaza el registro. ClientID, OrderID y el monto cobrado ya asignado son inmutables.
func (r *RecordRepo) Update(_ context.Context, record *entity.CodRecord) error {
	if err := cod.CheckInvariants(record); err != nil {
		return err
	}
	return r.v.write(func(st *state) error {
		cur, ok := st.records[record.ID]
		if !ok {
			return fmt.Errorf("registro %s no existe", record.ID)
		}
		if cur.ClientID != record.ClientID || cur.OrderID != record.OrderID {
			return fmt.Errorf("registro %s: client_id/order_id son inmutables", record.ID)
		}
		if cur.CollectedAmount != nil && (record.CollectedAmount == nil || !cur.CollectedAmount.Equal(*record.CollectedAmount)) {
			return fmt.Errorf("registro %s: collected_amount es inmutable", record.ID)
		}
		st.records[record.ID] = record.Clone()
		return nil
	})
}

// ListEligible registros collected del cliente sin remesa, más antiguos primero.
func (r *RecordRepo) ListEligible(_ context.Context, clientID string) ([]*entity.CodRecord, error) {
	var out []*entity.CodRecord
	r.v.read(func(st *state) {
		for id, rec := range st.records {
			if rec.ClientID != clientID || rec.Status != entity.CodStatusCollected {
				continue
			}
			if _, linked := st.itemByRecord[id]; linked {
				continue
			}
			out = append(out, rec.Clone())
		}
	})
	sortRecordsByCollectedDate(out)
	return out, nil
}

// ListByClient registros del cliente (status vacío = todos), más recientes primero.
func (r *RecordRepo) ListByClient(_ context.Context, clientID string, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error) {
	var out []*entity.CodRecord
	r.v.read(func(st *state) {
		for _, rec := range st.records {
			if rec.ClientID != clientID {
				continue
			}
			if status != "" && rec.Status != status {
				continue
			}
			out = append(out, rec.Clone())
		}
	})
	sortRecordsByCreatedDesc(out)
	return page(out, limit, offset), nil
}

// ListByStatus registros en el estado indicado, más recientes primero.
func (r *RecordRepo) ListByStatus(_ context.Context, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error) {
	var out []*entity.CodRecord
	r.v.read(func(st *state) {
		for _, rec := range st.records {
			if rec.Status == status {
				out = append(out, rec.Clone())
			}
		}
	})
	sortRecordsByCreatedDesc(out)
	return page(out, limit, offset), nil
}
