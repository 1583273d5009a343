package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/cod-remittance-api/internal/application/ledger"
	"github.com/jhoicas/cod-remittance-api/pkg/jwt"
	"github.com/jhoicas/cod-remittance-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Records     *ledger.RecordUseCase
	Remittances *ledger.RemittanceUseCase
	Clearing    *ledger.ClearingUseCase
	Idempotency IdempotencyStore // opcional
	JWTSecret   string
	Log         *logger.Logger
	// Health opcional; nil responde siempre ok.
	Health func(c *fiber.Ctx) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	app.Use(RequestLogger(log.Component("http")))

	health := deps.Health
	if health == nil {
		health = func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) }
	}
	app.Get("/health", health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api/cod", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	field := RequireRole(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleCourier)
	idem := Idempotency(deps.Idempotency, log.Component("idempotency"))

	// Registros COD
	recordHandler := NewCodRecordHandler(deps.Records)
	records := api.Group("/records")
	records.Post("/", staff, recordHandler.Create)
	records.Get("/", field, recordHandler.List)
	records.Get("/:id", field, recordHandler.GetByID)
	records.Get("/:id/history", staff, recordHandler.History)
	records.Post("/:id/collect", field, idem, recordHandler.Collect)
	records.Post("/:id/dispute", staff, recordHandler.Dispute)
	records.Post("/:id/cancel", staff, recordHandler.Cancel)

	// Remesas
	remittanceHandler := NewRemittanceHandler(deps.Remittances, deps.Clearing)
	remittances := api.Group("/remittances")
	remittances.Post("/", staff, idem, remittanceHandler.Create)
	remittances.Post("/clear", RequireRole(jwt.RoleAdmin), remittanceHandler.Clear)
	remittances.Get("/:id", staff, remittanceHandler.GetByID)
	remittances.Get("/:id/export.xlsx", staff, remittanceHandler.Export)

	// Vistas por cliente
	clients := api.Group("/clients/:clientID")
	clients.Get("/eligible", staff, recordHandler.Eligible)
	clients.Get("/remittances", staff, remittanceHandler.ListByClient)
}
