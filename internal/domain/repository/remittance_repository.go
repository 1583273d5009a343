package repository

import (
	"context"

	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
)

// RemittanceRepository define el puerto de persistencia para remesas e ítems.
type RemittanceRepository interface {
	Create(ctx context.Context, remittance *entity.Remittance) error
	// CreateItem falla con *domain.IneligibleRecordError si el registro ya está enlazado.
	CreateItem(ctx context.Context, item *entity.RemittanceItem) error
	// GetByID devuelve la remesa con sus ítems o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Remittance, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Remittance, error)
	// LinkedRecordIDs devuelve registro -> remesa para los registros ya enlazados.
	LinkedRecordIDs(ctx context.Context, recordIDs []string) (map[string]string, error)
	// ListAllWithItems devuelve la imagen previa completa para la limpieza.
	ListAllWithItems(ctx context.Context) ([]*entity.Remittance, error)
	DeleteItemsByRemittanceIDs(ctx context.Context, remittanceIDs []string) (int64, error)
	DeleteByIDs(ctx context.Context, remittanceIDs []string) (int64, error)
}
