package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
)

// RequestLogger registra cada petición con zerolog: método, ruta, estado, latencia y actor.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler de Fiber fije el estado antes de leerlo.
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP())
		if userID := GetUserID(c); userID != "" {
			ev.Str("actor", userID)
		}
		ev.Msg("http request")
		return nil
	}
}
