package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/cod"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/jhoicas/cod-remittance-api/internal/domain/repository"
	"github.com/jhoicas/cod-remittance-api/internal/observability/metrics"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
	"github.com/jhoicas/cod-remittance-api/pkg/retry"
	"github.com/shopspring/decimal"
)

// RemittanceUseCase agregador de remesas: agrupa registros collected de un cliente
// en un lote de pago de forma atómica.
type RemittanceUseCase struct {
	txRunner    TxRunner
	records     repository.CodRecordRepository
	remittances repository.RemittanceRepository
	exporter    StatementExporter
	policy      cod.BatchPolicy
	retry       retry.Policy
	log         *logger.Logger
	now         func() time.Time
}

// NewRemittanceUseCase construye el caso de uso. exporter puede ser nil si no se exponen liquidaciones.
func NewRemittanceUseCase(
	txRunner TxRunner,
	records repository.CodRecordRepository,
	remittances repository.RemittanceRepository,
	exporter StatementExporter,
	policy cod.BatchPolicy,
	retryPolicy retry.Policy,
	log *logger.Logger,
) *RemittanceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RemittanceUseCase{
		txRunner:    txRunner,
		records:     records,
		remittances: remittances,
		exporter:    exporter,
		policy:      policy,
		retry:       retryPolicy,
		log:         log.Component("remittances"),
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *RemittanceUseCase) WithClock(now func() time.Time) *RemittanceUseCase {
	uc.now = now
	return uc
}

// CreateRemittance crea una remesa para clientID con exactamente los registros indicados.
// Todas las precondiciones se verifican con las filas bloqueadas antes de escribir;
// si alguna falla se devuelve *domain.IneligibleRecordsError con cada ID rechazado
// y no se crea nada.
func (uc *RemittanceUseCase) CreateRemittance(ctx context.Context, actor Actor, clientID string, recordIDs []string) (*entity.Remittance, error) {
	start := time.Now()
	ids := dedupe(recordIDs)

	var out *entity.Remittance
	err := uc.validateRequest(clientID, ids)
	if err == nil {
		err = retry.Do(ctx, uc.retry, func() error {
			var txErr error
			out, txErr = uc.createInTx(ctx, actor, clientID, ids)
			return txErr
		})
	}

	if err != nil {
		metrics.ObserveRemittance(resultOf(err), time.Since(start), len(ids), decimal.Zero)
		uc.log.Warn().Err(err).
			Str("client_id", clientID).
			Int("records", len(ids)).
			Str("actor", actor.UserID).
			Msg("remesa rechazada")
		return nil, err
	}

	metrics.ObserveRemittance(metrics.ResultSuccess, time.Since(start), len(out.Items), out.TotalAmount)
	uc.log.Info().
		Str("remittance_id", out.ID).
		Str("client_id", clientID).
		Int("items", len(out.Items)).
		Str("total", out.TotalAmount.StringFixed(2)).
		Str("actor", actor.UserID).
		Msg("remesa creada")
	return out, nil
}

func (uc *RemittanceUseCase) validateRequest(clientID string, ids []string) error {
	if len(ids) == 0 {
		return domain.ErrEmptyBatch
	}
	if clientID == "" {
		return domain.ErrInvalidInput
	}
	return uc.policy.CheckSize(len(ids))
}

func (uc *RemittanceUseCase) createInTx(ctx context.Context, actor Actor, clientID string, ids []string) (*entity.Remittance, error) {
	var rem *entity.Remittance
	err := uc.txRunner.Run(ctx, repository.LockShared, func(
		records repository.CodRecordRepository,
		remittances repository.RemittanceRepository,
		audit repository.AuditRepository,
	) error {
		// 1) Bloquea las filas (orden por ID) y vuelve a verificar elegibilidad bajo el bloqueo.
		locked, err := records.GetManyForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		linked, err := remittances.LinkedRecordIDs(ctx, ids)
		if err != nil {
			return err
		}
		batch, err := checkEligibility(clientID, ids, locked, linked)
		if err != nil {
			return err
		}

		// 2) Política de lote.
		if uc.policy.RequireFullBatch {
			eligible, err := records.ListEligible(ctx, clientID)
			if err != nil {
				return err
			}
			eligibleIDs := make([]string, 0, len(eligible))
			for _, r := range eligible {
				eligibleIDs = append(eligibleIDs, r.ID)
			}
			if err := uc.policy.CheckCoverage(ids, eligibleIDs); err != nil {
				return err
			}
		}
		total := decimal.Zero
		for _, r := range batch {
			total = total.Add(r.CollectedOrZero())
		}
		if err := uc.policy.CheckTotal(total); err != nil {
			return err
		}

		// 3) Escrituras: cabecera, ítems y transición remit de cada registro.
		now := uc.now().UTC()
		rem = &entity.Remittance{
			ID:          uuid.New().String(),
			ClientID:    clientID,
			CreatedDate: now,
			TotalAmount: total,
			CreatedBy:   actor.UserID,
			Items:       make([]entity.RemittanceItem, 0, len(batch)),
		}
		if err := remittances.Create(ctx, rem); err != nil {
			return err
		}
		for _, r := range batch {
			item := entity.RemittanceItem{
				ID:           uuid.New().String(),
				RemittanceID: rem.ID,
				CodRecordID:  r.ID,
				Amount:       r.CollectedOrZero(),
			}
			if err := remittances.CreateItem(ctx, &item); err != nil {
				return err
			}
			rem.Items = append(rem.Items, item)

			if err := cod.Remit(r, now); err != nil {
				return err
			}
			if err := records.Update(ctx, r); err != nil {
				return err
			}
			if err := audit.Log(ctx, newAuditEntry(actor, ActionRecordRemit, entity.AuditResourceCodRecord, r.ID,
				entity.CodStatusCollected, r.Status, map[string]string{"remittance_id": rem.ID}, now)); err != nil {
				return err
			}
		}
		return audit.Log(ctx, newAuditEntry(actor, ActionRemittanceCreated, entity.AuditResourceRemittance, rem.ID, "", "",
			map[string]any{
				"client_id":    clientID,
				"total_amount": total.String(),
				"record_ids":   rem.RecordIDs(),
			}, now))
	})
	if err != nil {
		return nil, err
	}
	return rem, nil
}

// checkEligibility devuelve los registros del lote ordenados por collected_date (luego ID)
// o un error con todos los registros rechazados.
func checkEligibility(clientID string, ids []string, locked map[string]*entity.CodRecord, linked map[string]string) ([]*entity.CodRecord, error) {
	var rejected []*domain.IneligibleRecordError
	batch := make([]*entity.CodRecord, 0, len(ids))
	for _, id := range ids {
		r, ok := locked[id]
		switch {
		case !ok || r == nil:
			rejected = append(rejected, &domain.IneligibleRecordError{RecordID: id, Reason: domain.ReasonNotFound})
		case r.ClientID != clientID:
			rejected = append(rejected, &domain.IneligibleRecordError{RecordID: id, Reason: domain.ReasonClientMismatch, Status: string(r.Status)})
		case linked[id] != "" || r.Status == entity.CodStatusRemitted:
			rejected = append(rejected, &domain.IneligibleRecordError{RecordID: id, Reason: domain.ReasonAlreadyRemitted, Status: string(r.Status)})
		case r.Status != entity.CodStatusCollected:
			rejected = append(rejected, &domain.IneligibleRecordError{RecordID: id, Reason: domain.ReasonNotCollected, Status: string(r.Status)})
		default:
			batch = append(batch, r)
		}
	}
	if len(rejected) > 0 {
		return nil, &domain.IneligibleRecordsError{Records: rejected}
	}
	sortByCollectedDate(batch)
	return batch, nil
}

func sortByCollectedDate(records []*entity.CodRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CollectedDate != nil && b.CollectedDate != nil && !a.CollectedDate.Equal(*b.CollectedDate) {
			return a.CollectedDate.Before(*b.CollectedDate)
		}
		return a.ID < b.ID
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetRemittance devuelve la remesa con sus ítems o domain.ErrNotFound.
func (uc *RemittanceUseCase) GetRemittance(ctx context.Context, id string) (*entity.Remittance, error) {
	rem, err := uc.remittances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, domain.ErrNotFound
	}
	return rem, nil
}

// ListByClient lista las remesas vigentes de un cliente.
func (uc *RemittanceUseCase) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Remittance, error) {
	if clientID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.remittances.ListByClient(ctx, clientID, limit, offset)
}

// Statement exporta la liquidación de la remesa con el formato del exportador configurado.
func (uc *RemittanceUseCase) Statement(ctx context.Context, id string) ([]byte, error) {
	if uc.exporter == nil {
		return nil, domain.ErrNotFound
	}
	rem, err := uc.GetRemittance(ctx, id)
	if err != nil {
		return nil, err
	}
	records := make([]*entity.CodRecord, 0, len(rem.Items))
	for _, it := range rem.Items {
		r, err := uc.records.GetByID(ctx, it.CodRecordID)
		if err != nil {
			return nil, err
		}
		if r != nil {
			records = append(records, r)
		}
	}
	return uc.exporter.Export(rem, records)
}

// StatementFormat devuelve content-type y extensión del exportador.
func (uc *RemittanceUseCase) StatementFormat() (contentType, ext string) {
	if uc.exporter == nil {
		return "", ""
	}
	return uc.exporter.ContentType(), uc.exporter.Extension()
}
