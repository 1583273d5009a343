package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/cod-remittance-api/internal/application/dto"
	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
)

// RemittanceHandler maneja las peticiones HTTP de remesas y la limpieza (protegido).
type RemittanceHandler struct {
	uc       *ledger.RemittanceUseCase
	clearing *ledger.ClearingUseCase
}

// NewRemittanceHandler construye el handler.
func NewRemittanceHandler(uc *ledger.RemittanceUseCase, clearing *ledger.ClearingUseCase) *RemittanceHandler {
	return &RemittanceHandler{uc: uc, clearing: clearing}
}

// Create crea una remesa con los registros seleccionados por el operador.
// POST /api/cod/remittances
func (h *RemittanceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRemittanceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rem, err := h.uc.CreateRemittance(c.Context(), actorFrom(c), in.ClientID, in.RecordIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRemittanceResponse(rem))
}

// GetByID devuelve la remesa con sus ítems.
// GET /api/cod/remittances/:id
func (h *RemittanceHandler) GetByID(c *fiber.Ctx) error {
	rem, err := h.uc.GetRemittance(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToRemittanceResponse(rem))
}

// ListByClient remesas vigentes de un cliente.
// GET /api/cod/clients/:clientID/remittances
func (h *RemittanceHandler) ListByClient(c *fiber.Ctx) error {
	page := pageFrom(c)
	list, err := h.uc.ListByClient(c.Context(), c.Params("clientID"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.RemittanceResponse, 0, len(list))
	for _, rem := range list {
		items = append(items, dto.ToRemittanceResponse(rem))
	}
	return c.JSON(dto.RemittanceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Export descarga la liquidación de la remesa.
// GET /api/cod/remittances/:id/export.xlsx
func (h *RemittanceHandler) Export(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.uc.Statement(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	contentType, ext := h.uc.StatementFormat()
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="remesa-%s.%s"`, id, ext))
	return c.Send(data)
}

// Clear elimina todas las remesas y revierte sus registros a collected (solo admin).
// POST /api/cod/remittances/clear
func (h *RemittanceHandler) Clear(c *fiber.Ctx) error {
	if h.clearing == nil {
		return writeError(c, domain.ErrForbidden)
	}
	res, err := h.clearing.ClearAllRemittances(c.Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ClearingResponse{
		RemittancesDeleted: res.RemittancesDeleted,
		ItemsDeleted:       res.ItemsDeleted,
		RecordsReverted:    res.RecordsReverted,
		RevertedRecordIDs:  res.Snapshot.RevertedRecordIDs,
	})
}
