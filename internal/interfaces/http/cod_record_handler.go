package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/cod-remittance-api/internal/application/dto"
	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CodRecordHandler maneja las peticiones HTTP de registros COD (protegido).
type CodRecordHandler struct {
	uc *ledger.RecordUseCase
}

// NewCodRecordHandler construye el handler.
func NewCodRecordHandler(uc *ledger.RecordUseCase) *CodRecordHandler {
	return &CodRecordHandler{uc: uc}
}

// Create registra el efectivo esperado de una orden COD.
// POST /api/cod/records
func (h *CodRecordHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCodRecordRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !in.ExpectedAmount.IsSet() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expected_amount requerido"})
	}
	expected, err := in.ExpectedAmount.Decimal()
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.uc.Create(c.Context(), actorFrom(c), ledger.CreateRecordInput{
		OrderID:        in.OrderID,
		ClientID:       in.ClientID,
		ExpectedAmount: expected,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCodRecordResponse(rec))
}

// GetByID devuelve un registro.
// GET /api/cod/records/:id
func (h *CodRecordHandler) GetByID(c *fiber.Ctx) error {
	rec, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCodRecordResponse(rec))
}

// List lista registros por cliente (status opcional) o por estado.
// GET /api/cod/records?client_id=&status=&limit=&offset=
func (h *CodRecordHandler) List(c *fiber.Ctx) error {
	clientID := c.Query("client_id")
	status := entity.CodStatus(c.Query("status"))
	page := pageFrom(c)

	var (
		list []*entity.CodRecord
		err  error
	)
	switch {
	case clientID != "":
		list, err = h.uc.ListByClient(c.Context(), clientID, status, page.Limit, page.Offset)
	case status != "":
		list, err = h.uc.ListByStatus(c.Context(), status, page.Limit, page.Offset)
	default:
		err = domain.ErrInvalidInput
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CodRecordListResponse{
		Items: dto.ToCodRecordResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Collect registra el cobro del mensajero.
// POST /api/cod/records/:id/collect
func (h *CodRecordHandler) Collect(c *fiber.Ctx) error {
	var in dto.CollectRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !in.CollectedAmount.IsSet() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "collected_amount requerido"})
	}
	amount, err := in.CollectedAmount.Decimal()
	if err != nil {
		return writeError(c, err)
	}
	var at time.Time
	if in.CollectedDate != nil {
		at = *in.CollectedDate
	}
	rec, err := h.uc.MarkCollected(c.Context(), actorFrom(c), c.Params("id"), amount, at)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCodRecordResponse(rec))
}

// Dispute marca el registro en disputa.
// POST /api/cod/records/:id/dispute
func (h *CodRecordHandler) Dispute(c *fiber.Ctx) error {
	var in dto.DisputeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	rec, err := h.uc.MarkDisputed(c.Context(), actorFrom(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCodRecordResponse(rec))
}

// Cancel cancela el registro.
// POST /api/cod/records/:id/cancel
func (h *CodRecordHandler) Cancel(c *fiber.Ctx) error {
	rec, err := h.uc.MarkCancelled(c.Context(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCodRecordResponse(rec))
}

// History devuelve el rastro de auditoría del registro.
// GET /api/cod/records/:id/history
func (h *CodRecordHandler) History(c *fiber.Ctx) error {
	entries, err := h.uc.History(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToAuditEntryResponses(entries))
}

// Eligible lista los registros que el operador puede incluir en una remesa.
// GET /api/cod/clients/:clientID/eligible
func (h *CodRecordHandler) Eligible(c *fiber.Ctx) error {
	clientID := c.Params("clientID")
	list, err := h.uc.ListEligibleForRemittance(c.Context(), clientID)
	if err != nil {
		return writeError(c, err)
	}
	total := decimal.Zero
	for _, r := range list {
		total = total.Add(r.CollectedOrZero())
	}
	return c.JSON(dto.EligibleRecordsResponse{
		ClientID:    clientID,
		Items:       dto.ToCodRecordResponses(list),
		TotalAmount: total,
	})
}
