package ledger

import (
	"context"

	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Toma el bloqueo del ledger indicado por mode antes de llamar a fn y garantiza
// Commit si fn retorna nil o Rollback en cualquier otra salida.
type TxRunner interface {
	Run(ctx context.Context, mode repository.LockMode, fn func(
		records repository.CodRecordRepository,
		remittances repository.RemittanceRepository,
		audit repository.AuditRepository,
	) error) error
}

// StatementExporter genera el archivo de liquidación de una remesa (reportes).
type StatementExporter interface {
	Export(remittance *entity.Remittance, records []*entity.CodRecord) ([]byte, error)
	ContentType() string
	Extension() string
}

// Actor identidad ya autorizada que ejecuta la operación (la provee la capa de auth).
type Actor struct {
	UserID string
	Role   string
}
