package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ repository.RemittanceRepository = (*RemittanceRepo)(nil)

// itemRecordConstraint UNIQUE(cod_record_id) de remittance_items.
const itemRecordConstraint = "remittance_items_cod_record_uniq"

// RemittanceRepo implementación de RemittanceRepository sobre PostgreSQL (usable con pool o tx).
type RemittanceRepo struct {
	q Querier
}

// NewRemittanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRemittanceRepository(q Querier) *RemittanceRepo {
	return &RemittanceRepo{q: q}
}

// Create inserta la cabecera de la remesa.
func (r *RemittanceRepo) Create(ctx context.Context, rem *entity.Remittance) error {
	query := `
		INSERT INTO remittances (id, client_id, created_date, total_amount, created_by)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, rem.ID, rem.ClientID, rem.CreatedDate, rem.TotalAmount, rem.CreatedBy); err != nil {
		return storageError("insert remittance", err)
	}
	return nil
}

// CreateItem enlaza un registro a la remesa. La restricción única sobre cod_record_id
// es la última defensa contra el doble pago.
func (r *RemittanceRepo) CreateItem(ctx context.Context, item *entity.RemittanceItem) error {
	query := `
		INSERT INTO remittance_items (id, remittance_id, cod_record_id, amount)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, item.ID, item.RemittanceID, item.CodRecordID, item.Amount); err != nil {
		if isUniqueViolation(err) {
			return mapItemUniqueViolation(err, item.CodRecordID)
		}
		return storageError("insert remittance_item", err)
	}
	return nil
}

// mapItemUniqueViolation traduce la violación de UNIQUE(cod_record_id) a IneligibleRecord.
func mapItemUniqueViolation(err error, recordID string) error {
	if name := constraintName(err); name != "" && name != itemRecordConstraint {
		return fmt.Errorf("unique violation %s: %w", name, err)
	}
	return fmt.Errorf("%w: %w", &domain.IneligibleRecordError{RecordID: recordID, Reason: domain.ReasonAlreadyRemitted}, err)
}

// GetByID obtiene la remesa con sus ítems; nil si no existe.
func (r *RemittanceRepo) GetByID(ctx context.Context, id string) (*entity.Remittance, error) {
	query := `
		SELECT id, client_id, created_date, total_amount, created_by
		FROM remittances WHERE id = $1`
	var rem entity.Remittance
	err := r.q.QueryRow(ctx, query, id).Scan(&rem.ID, &rem.ClientID, &rem.CreatedDate, &rem.TotalAmount, &rem.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError("get remittance", err)
	}
	items, err := r.itemsOf(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	rem.Items = items[id]
	return &rem, nil
}

// ListByClient remesas del cliente (sin ítems), más recientes primero.
func (r *RemittanceRepo) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Remittance, error) {
	query := `
		SELECT id, client_id, created_date, total_amount, created_by
		FROM remittances WHERE client_id = $1
		ORDER BY created_date DESC, id ASC
		LIMIT $2 OFFSET $3`
	return r.queryHeaders(ctx, "list remittances by client", query, clientID, pageLimit(limit), max(offset, 0))
}

// LinkedRecordIDs devuelve registro -> remesa para los registros ya enlazados.
func (r *RemittanceRepo) LinkedRecordIDs(ctx context.Context, recordIDs []string) (map[string]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT cod_record_id, remittance_id FROM remittance_items WHERE cod_record_id = ANY($1)`, recordIDs)
	if err != nil {
		return nil, storageError("linked records", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var recordID, remID string
		if err := rows.Scan(&recordID, &remID); err != nil {
			return nil, storageError("linked records", err)
		}
		out[recordID] = remID
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("linked records", err)
	}
	return out, nil
}

// ListAllWithItems todas las remesas con ítems, bloqueadas para la limpieza.
func (r *RemittanceRepo) ListAllWithItems(ctx context.Context) ([]*entity.Remittance, error) {
	query := `
		SELECT id, client_id, created_date, total_amount, created_by
		FROM remittances
		ORDER BY created_date ASC, id ASC
		FOR UPDATE`
	list, err := r.queryHeaders(ctx, "list remittances", query)
	if err != nil || len(list) == 0 {
		return list, err
	}
	ids := make([]string, 0, len(list))
	for _, rem := range list {
		ids = append(ids, rem.ID)
	}
	items, err := r.itemsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, rem := range list {
		rem.Items = items[rem.ID]
	}
	return list, nil
}

// DeleteItemsByRemittanceIDs borra los ítems de las remesas indicadas.
func (r *RemittanceRepo) DeleteItemsByRemittanceIDs(ctx context.Context, remittanceIDs []string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM remittance_items WHERE remittance_id = ANY($1)`, remittanceIDs)
	if err != nil {
		return 0, storageError("delete remittance_items", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByIDs borra las cabeceras (los ítems deben borrarse antes por la FK).
func (r *RemittanceRepo) DeleteByIDs(ctx context.Context, remittanceIDs []string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM remittances WHERE id = ANY($1)`, remittanceIDs)
	if err != nil {
		return 0, storageError("delete remittances", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RemittanceRepo) queryHeaders(ctx context.Context, op, query string, args ...any) ([]*entity.Remittance, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var list []*entity.Remittance
	for rows.Next() {
		var rem entity.Remittance
		if err := rows.Scan(&rem.ID, &rem.ClientID, &rem.CreatedDate, &rem.TotalAmount, &rem.CreatedBy); err != nil {
			return nil, storageError(op, err)
		}
		list = append(list, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return list, nil
}

// itemsOf devuelve los ítems agrupados por remesa, en orden de inserción de la remesa.
func (r *RemittanceRepo) itemsOf(ctx context.Context, remittanceIDs []string) (map[string][]entity.RemittanceItem, error) {
	query := `
		SELECT i.id, i.remittance_id, i.cod_record_id, i.amount
		FROM remittance_items i
		JOIN cod_records c ON c.id = i.cod_record_id
		WHERE i.remittance_id = ANY($1)
		ORDER BY i.remittance_id, c.collected_date ASC NULLS LAST, c.id ASC`
	rows, err := r.q.Query(ctx, query, remittanceIDs)
	if err != nil {
		return nil, storageError("list remittance_items", err)
	}
	defer rows.Close()

	out := make(map[string][]entity.RemittanceItem)
	for rows.Next() {
		var it entity.RemittanceItem
		if err := rows.Scan(&it.ID, &it.RemittanceID, &it.CodRecordID, &it.Amount); err != nil {
			return nil, storageError("list remittance_items", err)
		}
		out[it.RemittanceID] = append(out[it.RemittanceID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list remittance_items", err)
	}
	return out, nil
}
