package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.CodRecordRepository = (*CodRecordRepo)(nil)

const codRecordColumns = `id, order_id, client_id, expected_amount, collected_amount, status,
	collected_date, remitted_to_client_date, dispute_reason, created_at, updated_at`

// CodRecordRepo implementación de CodRecordRepository sobre PostgreSQL (usable con pool o tx).
type CodRecordRepo struct {
	q Querier
}

// NewCodRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCodRecordRepository(q Querier) *CodRecordRepo {
	return &CodRecordRepo{q: q}
}

// Create inserta el registro.
func (r *CodRecordRepo) Create(ctx context.Context, rec *entity.CodRecord) error {
	query := `
		INSERT INTO cod_records (` + codRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.OrderID, rec.ClientID, rec.ExpectedAmount, rec.CollectedAmount, string(rec.Status),
		rec.CollectedDate, rec.RemittedToClientDate, rec.DisputeReason, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return storageError("insert cod_record", err)
	}
	return nil
}

// GetByID obtiene un registro por ID; nil si no existe.
func (r *CodRecordRepo) GetByID(ctx context.Context, id string) (*entity.CodRecord, error) {
	return r.getOne(ctx, `SELECT `+codRecordColumns+` FROM cod_records WHERE id = $1`, id)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
func (r *CodRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.CodRecord, error) {
	return r.getOne(ctx, `SELECT `+codRecordColumns+` FROM cod_records WHERE id = $1 FOR UPDATE`, id)
}

func (r *CodRecordRepo) getOne(ctx context.Context, query, id string) (*entity.CodRecord, error) {
	rec, err := scanCodRecord(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError("get cod_record", err)
	}
	return rec, nil
}

// GetManyForUpdate bloquea los registros en orden de ID para evitar interbloqueos
// entre remesas concurrentes con selecciones solapadas.
func (r *CodRecordRepo) GetManyForUpdate(ctx context.Context, ids []string) (map[string]*entity.CodRecord, error) {
	query := `SELECT ` + codRecordColumns + ` FROM cod_records WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	list, err := r.queryList(ctx, "lock cod_records", query, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*entity.CodRecord, len(list))
	for _, rec := range list {
		out[rec.ID] = rec
	}
	return out, nil
}

// Update persiste estado y campos mutables. client_id, order_id y expected_amount no se tocan;
// collected_amount solo se asigna si aún es NULL.
func (r *CodRecordRepo) Update(ctx context.Context, rec *entity.CodRecord) error {
	query := `
		UPDATE cod_records SET
			status = $2,
			collected_amount = COALESCE(collected_amount, $3),
			collected_date = $4,
			remitted_to_client_date = $5,
			dispute_reason = $6,
			updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		rec.ID, string(rec.Status), rec.CollectedAmount, rec.CollectedDate,
		rec.RemittedToClientDate, rec.DisputeReason, rec.UpdatedAt,
	)
	if err != nil {
		return storageError("update cod_record", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update cod_record %s: fila inexistente", rec.ID)
	}
	return nil
}

// ListEligible registros collected del cliente sin ítem de remesa, más antiguos primero.
func (r *CodRecordRepo) ListEligible(ctx context.Context, clientID string) ([]*entity.CodRecord, error) {
	query := `
		SELECT ` + prefixed("c", codRecordColumns) + `
		FROM cod_records c
		WHERE c.client_id = $1 AND c.status = 'collected'
		  AND NOT EXISTS (SELECT 1 FROM remittance_items i WHERE i.cod_record_id = c.id)
		ORDER BY c.collected_date ASC, c.id ASC`
	return r.queryList(ctx, "list eligible cod_records", query, clientID)
}

// ListByClient registros del cliente (status vacío = todos), más recientes primero.
func (r *CodRecordRepo) ListByClient(ctx context.Context, clientID string, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error) {
	query := `
		SELECT ` + codRecordColumns + ` FROM cod_records
		WHERE client_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id ASC
		LIMIT $3 OFFSET $4`
	return r.queryList(ctx, "list cod_records by client", query, clientID, string(status), pageLimit(limit), max(offset, 0))
}

// ListByStatus registros en el estado indicado, más recientes primero.
func (r *CodRecordRepo) ListByStatus(ctx context.Context, status entity.CodStatus, limit, offset int) ([]*entity.CodRecord, error) {
	query := `
		SELECT ` + codRecordColumns + ` FROM cod_records
		WHERE status = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`
	return r.queryList(ctx, "list cod_records by status", query, string(status), pageLimit(limit), max(offset, 0))
}

func (r *CodRecordRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.CodRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var list []*entity.CodRecord
	for rows.Next() {
		rec, err := scanCodRecord(rows)
		if err != nil {
			return nil, storageError(op, err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return list, nil
}

func scanCodRecord(row pgx.Row) (*entity.CodRecord, error) {
	var (
		rec       entity.CodRecord
		status    string
		collected decimal.NullDecimal
		colDate   *time.Time
		remDate   *time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.OrderID, &rec.ClientID, &rec.ExpectedAmount, &collected, &status,
		&colDate, &remDate, &rec.DisputeReason, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = entity.CodStatus(status)
	if collected.Valid {
		v := collected.Decimal
		rec.CollectedAmount = &v
	}
	rec.CollectedDate = colDate
	rec.RemittedToClientDate = remDate
	return &rec, nil
}
