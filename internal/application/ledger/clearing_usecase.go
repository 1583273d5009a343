package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
	"github.com/jhoicas/cod-remittance-api/internal/observability/metrics"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
)

// ClearingResult conteos de la limpieza más la imagen previa/posterior auditada.
type ClearingResult struct {
	RemittancesDeleted int
	ItemsDeleted       int
	RecordsReverted    int
	Snapshot           ClearingSnapshot
}

// ClearingSnapshot IDs afectados antes y después de la limpieza.
type ClearingSnapshot struct {
	RemittanceIDs     []string `json:"remittance_ids"`
	LinkedRecordIDs   []string `json:"linked_record_ids"`
	RevertedRecordIDs []string `json:"reverted_record_ids"`
	SkippedRecordIDs  []string `json:"skipped_record_ids,omitempty"` // enlazados pero no en remitted
}

// ClearingUseCase deshace todas las remesas (recuperación ante desastres).
// Es la única vía de borrado del modelo.
type ClearingUseCase struct {
	txRunner TxRunner
	retry    retry.Policy
	log      *logger.Logger
	now      func() time.Time
}

// NewClearingUseCase construye el caso de uso.
func NewClearingUseCase(txRunner TxRunner, retryPolicy retry.Policy, log *logger.Logger) *ClearingUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ClearingUseCase{
		txRunner: txRunner,
		retry:    retryPolicy,
		log:      log.Component("clearing"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ClearingUseCase) WithClock(now func() time.Time) *ClearingUseCase {
	uc.now = now
	return uc
}

// ClearAllRemittances borra todas las remesas e ítems y revierte a collected los registros
// enlazados que sigan en remitted. Corre en una sola transacción con el bloqueo exclusivo
// del ledger; si falla, el estado previo queda intacto. Una segunda llamada devuelve ceros.
func (uc *ClearingUseCase) ClearAllRemittances(ctx context.Context, actor Actor) (*ClearingResult, error) {
	var res *ClearingResult
	err := retry.Do(ctx, uc.retry, func() error {
		var txErr error
		res, txErr = uc.clearInTx(ctx, actor)
		return txErr
	})
	if err != nil {
		metrics.ObserveClearing(resultOf(err), 0)
		uc.log.Error().Err(err).Str("actor", actor.UserID).Msg("limpieza de remesas fallida, estado sin cambios")
		return nil, err
	}

	metrics.ObserveClearing(metrics.ResultSuccess, res.RecordsReverted)
	uc.log.Warn().
		Str("actor", actor.UserID).
		Int("remittances_deleted", res.RemittancesDeleted).
		Int("items_deleted", res.ItemsDeleted).
		Int("records_reverted", res.RecordsReverted).
		Strs("remittance_ids", res.Snapshot.RemittanceIDs).
		Strs("reverted_record_ids", res.Snapshot.RevertedRecordIDs).
		Msg("remesas eliminadas por limpieza")
	return res, nil
}

func (uc *ClearingUseCase) clearInTx(ctx context.Context, actor Actor) (*ClearingResult, error) {
	res := &ClearingResult{}
	err := uc.txRunner.Run(ctx, repository.LockExclusive, func(
		records repository.CodRecordRepository,
		remittances repository.RemittanceRepository,
		audit repository.AuditRepository,
	) error {
		// Imagen previa completa.
		before, err := remittances.ListAllWithItems(ctx)
		if err != nil {
			return err
		}
		if len(before) == 0 {
			return nil
		}

		remIDs := make([]string, 0, len(before))
		var linkedIDs []string
		for _, rem := range before {
			remIDs = append(remIDs, rem.ID)
			linkedIDs = append(linkedIDs, rem.RecordIDs()...)
		}
		sort.Strings(remIDs)
		sort.Strings(linkedIDs)
		res.Snapshot.RemittanceIDs = remIDs
		res.Snapshot.LinkedRecordIDs = linkedIDs
		res.Snapshot.RevertedRecordIDs = []string{}

		locked, err := records.GetManyForUpdate(ctx, linkedIDs)
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		for _, id := range linkedIDs {
			r := locked[id]
			if r == nil || r.Status != entity.CodStatusRemitted {
				res.Snapshot.SkippedRecordIDs = append(res.Snapshot.SkippedRecordIDs, id)
				continue
			}
			if err := cod.Clear(r, now); err != nil {
				return err
			}
			if err := records.Update(ctx, r); err != nil {
				return err
			}
			if err := audit.Log(ctx, newAuditEntry(actor, ActionRecordClear, entity.AuditResourceCodRecord, r.ID,
				entity.CodStatusRemitted, r.Status, nil, now)); err != nil {
				return err
			}
			res.Snapshot.RevertedRecordIDs = append(res.Snapshot.RevertedRecordIDs, id)
		}

		items, err := remittances.DeleteItemsByRemittanceIDs(ctx, remIDs)
		if err != nil {
			return err
		}
		deleted, err := remittances.DeleteByIDs(ctx, remIDs)
		if err != nil {
			return err
		}
		res.ItemsDeleted = int(items)
		res.RemittancesDeleted = int(deleted)
		res.RecordsReverted = len(res.Snapshot.RevertedRecordIDs)

		return audit.Log(ctx, newAuditEntry(actor, ActionRemittancesCleared, entity.AuditResourceRemittance, "*", "", "",
			map[string]any{
				"before": map[string]any{
					"remittance_ids": res.Snapshot.RemittanceIDs,
					"record_ids":     res.Snapshot.LinkedRecordIDs,
				},
				"after": map[string]any{
					"reverted_record_ids": res.Snapshot.RevertedRecordIDs,
					"skipped_record_ids":  res.Snapshot.SkippedRecordIDs,
				},
				"remittances_deleted": res.RemittancesDeleted,
				"items_deleted":       res.ItemsDeleted,
			}, now))
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
