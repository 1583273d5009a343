package repository

import (
	"context"

	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
)

// AuditRepository rastro append-only de transiciones del ledger COD.
type AuditRepository interface {
	Log(ctx context.Context, entry *entity.AuditEntry) error
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]*entity.AuditEntry, error)
}
