package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/cod-remittance-api/internal/application/dto"
	"github.com/jhoicas/cod-remittance-api/internal/domain"
)

// retryAfterSeconds valor de Retry-After para fallas de almacenamiento.
const retryAfterSeconds = 2

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrIneligibleRecord):
		resp := dto.ErrorResponse{Code: "INELIGIBLE_RECORD", Message: "uno o más registros no son elegibles para la remesa"}
		for _, r := range domain.IneligibleRecords(err) {
			resp.Details = append(resp.Details, dto.ErrorDetail{RecordID: r.RecordID, Reason: r.Reason, Status: r.Status})
		}
		return c.Status(fiber.StatusConflict).JSON(resp)
	case errors.Is(err, domain.ErrIllegalTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ILLEGAL_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_AMOUNT", Message: err.Error()})
	case errors.Is(err, domain.ErrEmptyBatch):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "EMPTY_BATCH", Message: err.Error()})
	case errors.Is(err, domain.ErrPolicyViolation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "POLICY_VIOLATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: "almacenamiento no disponible, reintente"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func pageFrom(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
