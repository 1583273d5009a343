package repository

import (
	"context"

	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
)

// CodRecordRepository define el puerto de persistencia para registros COD.
// Los métodos *ForUpdate bloquean las filas hasta el fin de la transacción.
type CodRecordRepository interface {
	Create(ctx context.Context, record *entity.CodRecord) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.CodRecord, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CodRecord, error)
	// GetManyForUpdate bloquea las filas en orden de ID; los IDs inexistentes no aparecen en el mapa.
	GetManyForUpdate(ctx context.Context, ids []string) (map[string]*entity.CodRecord, error)
	// Update persiste estado, campos de cobro, fecha de remesa y motivo de disputa.
	Update(ctx context.Context, record *entity.CodRecord) error
	// ListEligible devuelve los registros collected del cliente sin remesa, por collected_date ascendente.
	ListEligible(ctx context.Context, clientID string) ([]*entity.CodRecord, error)
	ListByClient(ctx context.Context, clientID string, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error)
	ListByStatus(ctx context.Context, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error)
}
