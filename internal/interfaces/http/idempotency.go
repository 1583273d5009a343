package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/cod-remittance-api/internal/application/dto"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
)

// HeaderIdempotencyKey cabecera opcional en escrituras del ledger.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore guarda la primera respuesta de cada clave.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*dto.IdempotentResponse, error)
	Save(ctx context.Context, key string, resp dto.IdempotentResponse) error
}

// Idempotency repite la respuesta guardada cuando el operador reenvía una escritura con la
// misma Idempotency-Key. Sin cabecera o sin store la petición pasa tal cual. Solo se guardan
// respuestas 2xx y 4xx: un 503 debe poder reintentarse.
// Debe ir después de AuthMiddleware; la clave se separa por actor.
func Idempotency(store IdempotencyStore, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if store == nil || key == "" {
			return c.Next()
		}
		key = GetUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + key

		cached, err := store.Get(c.Context(), key)
		if err != nil {
			log.Warn().Err(err).Msg("idempotencia no disponible, se procesa la petición")
		} else if cached != nil {
			c.Set("Idempotent-Replayed", "true")
			if cached.ContentType != "" {
				c.Set(fiber.HeaderContentType, cached.ContentType)
			}
			return c.Status(cached.Status).Send(cached.Body)
		}

		if err := c.Next(); err != nil {
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		resp := dto.IdempotentResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(c.Context(), key, resp); err != nil {
			log.Warn().Err(err).Msg("no se pudo guardar la respuesta idempotente")
		}
		return nil
	}
}
