// Package memory implementa los puertos del ledger COD en memoria.
// Las transacciones trabajan sobre una copia del estado que solo se publica en el commit,
// así un error a mitad de camino no deja cambios parciales (misma semántica que PostgreSQL).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*Store)(nil)

type state struct {
	records      map[string]*entity.CodRecord
	remittances  map[string]*entity.Remittance
	itemByRecord map[string]string // cod_record_id -> remittance_id
	audit        []*entity.AuditEntry
}

func newState() *state {
	return &state{
		records:      make(map[string]*entity.CodRecord),
		remittances:  make(map[string]*entity.Remittance),
		itemByRecord: make(map[string]string),
	}
}

func (s *state) clone() *state {
	c := &state{
		records:      make(map[string]*entity.CodRecord, len(s.records)),
		remittances:  make(map[string]*entity.Remittance, len(s.remittances)),
		itemByRecord: make(map[string]string, len(s.itemByRecord)),
		audit:        append([]*entity.AuditEntry(nil), s.audit...),
	}
	for k, v := range s.records {
		c.records[k] = v.Clone()
	}
	for k, v := range s.remittances {
		c.remittances[k] = v.Clone()
	}
	for k, v := range s.itemByRecord {
		c.itemByRecord[k] = v
	}
	return c
}

// Store ledger en memoria. Las transacciones se serializan (equivale a tomar siempre
// el bloqueo exclusivo); las lecturas fuera de tx ven el último estado confirmado.
type Store struct {
	mu         sync.RWMutex
	st         *state
	failCommit error
	locks      []repository.LockMode
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn y el commit tienen éxito.
func (s *Store) Run(ctx context.Context, mode repository.LockMode, fn func(
	records repository.CodRecordRepository,
	remittances repository.RemittanceRepository,
	audit repository.AuditRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrStorageUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, mode)

	tx := s.st.clone()
	v := view{s: s, tx: tx}
	if err := fn(&RecordRepo{v}, &RemittanceRepo{v}, &AuditRepo{v}); err != nil {
		return err
	}
	if s.failCommit != nil {
		err := s.failCommit
		s.failCommit = nil
		return fmt.Errorf("commit transaction: %w: %w", domain.ErrStorageUnavailable, err)
	}
	s.st = tx
	return nil
}

// FailNextCommit hace que el próximo commit falle con err (tests de rollback).
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	s.failCommit = err
	s.mu.Unlock()
}

// LockModes devuelve los modos de bloqueo pedidos por cada transacción, en orden.
func (s *Store) LockModes() []repository.LockMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]repository.LockMode(nil), s.locks...)
}

// Records repositorio de registros fuera de transacción.
func (s *Store) Records() *RecordRepo { return &RecordRepo{view{s: s}} }

// Remittances repositorio de remesas fuera de transacción.
func (s *Store) Remittances() *RemittanceRepo { return &RemittanceRepo{view{s: s}} }

// Audit repositorio de auditoría fuera de transacción.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{view{s: s}} }

// view resuelve sobre qué estado opera un repositorio: la copia de la tx o el estado confirmado.
type view struct {
	s  *Store
	tx *state
}

func (v view) read(fn func(st *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(v.s.st)
}

func (v view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.st)
}

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func sortRecordsByCollectedDate(list []*entity.CodRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.CollectedDate != nil && b.CollectedDate != nil && !a.CollectedDate.Equal(*b.CollectedDate) {
			return a.CollectedDate.Before(*b.CollectedDate)
		}
		return a.ID < b.ID
	})
}

func sortRecordsByCreatedDesc(list []*entity.CodRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
