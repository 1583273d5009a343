package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ repository.RemittanceRepository = (*RemittanceRepo)(nil)

// RemittanceRepo remesas en memoria.
type RemittanceRepo struct {
	v view
}

// Create inserta la cabecera; los ítems se agregan con CreateItem.
func (r *RemittanceRepo) Create(_ context.Context, remittance *entity.Remittance) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.remittances[remittance.ID]; ok {
			return fmt.Errorf("remesa %s duplicada", remittance.ID)
		}
		c := remittance.Clone()
		c.Items = nil
		st.remittances[remittance.ID] = c
		return nil
	})
}

// CreateItem enlaza un registro; equivale al UNIQUE(cod_record_id) de la tabla.
func (r *RemittanceRepo) CreateItem(_ context.Context, item *entity.RemittanceItem) error {
	return r.v.write(func(st *state) error {
		rem, ok := st.remittances[item.RemittanceID]
		if !ok {
			return fmt.Errorf("remesa %s no existe", item.RemittanceID)
		}
		if _, linked := st.itemByRecord[item.CodRecordID]; linked {
			return &domain.IneligibleRecordError{RecordID: item.CodRecordID, Reason: domain.ReasonAlreadyRemitted}
		}
		rem.Items = append(rem.Items, *item)
		st.itemByRecord[item.CodRecordID] = item.RemittanceID
		return nil
	})
}

// GetByID devuelve la remesa con ítems o nil.
func (r *RemittanceRepo) GetByID(_ context.Context, id string) (*entity.Remittance, error) {
	var out *entity.Remittance
	r.v.read(func(st *state) {
		out = st.remittances[id].Clone()
	})
	return out, nil
}

// ListByClient remesas del cliente, más recientes primero.
func (r *RemittanceRepo) ListByClient(_ context.Context, clientID string, limit, offset int) ([]*entity.Remittance, error) {
	var out []*entity.Remittance
	r.v.read(func(st *state) {
		for _, rem := range st.remittances {
			if rem.ClientID == clientID {
				out = append(out, rem.Clone())
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedDate.Equal(out[j].CreatedDate) {
			return out[i].CreatedDate.After(out[j].CreatedDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), nil
}

// LinkedRecordIDs registro -> remesa para los registros enlazados.
func (r *RemittanceRepo) LinkedRecordIDs(_ context.Context, recordIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	r.v.read(func(st *state) {
		for _, id := range recordIDs {
			if remID, ok := st.itemByRecord[id]; ok {
				out[id] = remID
			}
		}
	})
	return out, nil
}

// ListAllWithItems todas las remesas con sus ítems, por fecha de creación.
func (r *RemittanceRepo) ListAllWithItems(_ context.Context) ([]*entity.Remittance, error) {
	var out []*entity.Remittance
	r.v.read(func(st *state) {
		for _, rem := range st.remittances {
			out = append(out, rem.Clone())
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedDate.Equal(out[j].CreatedDate) {
			return out[i].CreatedDate.Before(out[j].CreatedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteItemsByRemittanceIDs borra los ítems de las remesas indicadas.
func (r *RemittanceRepo) DeleteItemsByRemittanceIDs(_ context.Context, remittanceIDs []string) (int64, error) {
	var n int64
	err := r.v.write(func(st *state) error {
		for _, id := range remittanceIDs {
			rem, ok := st.remittances[id]
			if !ok {
				continue
			}
			for _, it := range rem.Items {
				delete(st.itemByRecord, it.CodRecordID)
				n++
			}
			rem.Items = nil
		}
		return nil
	})
	return n, err
}

// DeleteByIDs borra las cabeceras; deben haberse borrado antes sus ítems.
func (r *RemittanceRepo) DeleteByIDs(_ context.Context, remittanceIDs []string) (int64, error) {
	var n int64
	err := r.v.write(func(st *state) error {
		for _, id := range remittanceIDs {
			rem, ok := st.remittances[id]
			if !ok {
				continue
			}
			if len(rem.Items) > 0 {
				return fmt.Errorf("remesa %s aún tiene ítems", id)
			}
			delete(st.remittances, id)
			n++
		}
		return nil
	})
	return n, err
}
