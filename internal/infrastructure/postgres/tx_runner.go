package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// ledgerLockKey clave fija del advisory lock del ledger COD.
// Las remesas la toman compartida y la limpieza exclusiva.
const ledgerLockKey int64 = 0x434f445f4c4447 // "COD_LDG"

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, toma el bloqueo del ledger según mode, ejecuta fn con
// repos atados a la tx y hace Commit o Rollback. El advisory lock se libera con la tx.
func (r *TxRunner) Run(ctx context.Context, mode repository.LockMode, fn func(
	records repository.CodRecordRepository,
	remittances repository.RemittanceRepository,
	audit repository.AuditRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return storageError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := acquireLedgerLock(ctx, tx, mode); err != nil {
		return err
	}

	if err := fn(NewCodRecordRepository(tx), NewRemittanceRepository(tx), NewAuditRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return mapItemUniqueViolation(err, "")
		}
		return storageError("commit transaction", err)
	}
	return nil
}

func acquireLedgerLock(ctx context.Context, tx pgx.Tx, mode repository.LockMode) error {
	var query string
	switch mode {
	case repository.LockShared:
		query = `SELECT pg_advisory_xact_lock_shared($1)`
	case repository.LockExclusive:
		query = `SELECT pg_advisory_xact_lock($1)`
	default:
		return nil
	}
	if _, err := tx.Exec(ctx, query, ledgerLockKey); err != nil {
		return storageError("ledger lock "+mode.String(), err)
	}
	return nil
}
