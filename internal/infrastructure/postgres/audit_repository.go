package postgres

import (
	"context"

	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo rastro de auditoría del ledger en cod_audit_log.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Log inserta una entrada; dentro de la tx del cambio auditado se confirma o deshace con él.
func (r *AuditRepo) Log(ctx context.Context, e *entity.AuditEntry) error {
	query := `
		INSERT INTO cod_audit_log
			(id, actor, role, action, resource_type, resource_id, from_status, to_status, metadata, payload_digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	var metadata any
	if len(e.Metadata) > 0 {
		metadata = string(e.Metadata)
	}
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Actor, e.Role, e.Action, e.ResourceType, e.ResourceID,
		e.FromStatus, e.ToStatus, metadata, e.PayloadDigest, e.CreatedAt,
	)
	if err != nil {
		return storageError("insert audit", err)
	}
	return nil
}

// ListByResource entradas de un recurso en orden cronológico.
func (r *AuditRepo) ListByResource(ctx context.Context, resourceType, resourceID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, actor, role, action, resource_type, resource_id, from_status, to_status,
		       COALESCE(metadata::text, ''), payload_digest, created_at
		FROM cod_audit_log
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, storageError("list audit", err)
	}
	defer rows.Close()

	var list []*entity.AuditEntry
	for rows.Next() {
		var (
			e        entity.AuditEntry
			metadata string
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Role, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.FromStatus, &e.ToStatus, &metadata, &e.PayloadDigest, &e.CreatedAt); err != nil {
			return nil, storageError("list audit", err)
		}
		if metadata != "" {
			e.Metadata = []byte(metadata)
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list audit", err)
	}
	return list, nil
}
