package memory

import (
	"context"

	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo rastro de auditoría en memoria (append-only).
type AuditRepo struct {
	v view
}

// Log agrega una entrada.
func (r *AuditRepo) Log(_ context.Context, entry *entity.AuditEntry) error {
	c := *entry
	return r.v.write(func(st *state) error {
		st.audit = append(st.audit, &c)
		return nil
	})
}

// ListByResource entradas de un recurso en orden de inserción.
func (r *AuditRepo) ListByResource(_ context.Context, resourceType, resourceID string) ([]*entity.AuditEntry, error) {
	var out []*entity.AuditEntry
	r.v.read(func(st *state) {
		for _, e := range st.audit {
			if e.ResourceType == resourceType && e.ResourceID == resourceID {
				c := *e
				out = append(out, &c)
			}
		}
	})
	return out, nil
}

// All devuelve todo el rastro (tests).
func (r *AuditRepo) All() []*entity.AuditEntry {
	var out []*entity.AuditEntry
	r.v.read(func(st *state) {
		out = append(out, st.audit...)
	})
	return out
}
