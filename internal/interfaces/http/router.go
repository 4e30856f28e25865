package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/production"
	"github.com/jhoicas/produccion-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	BatchProductionUC *production.BatchProductionUseCase
	JWTSecret         string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	batches := protected.Group("/batch-production")
	h := NewBatchProductionHandler(deps.BatchProductionUC)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleProduccion)
	batches.Get("/list", h.List)
	batches.Get("/explosion-preview", h.ExplosionPreview)
	batches.Post("/post", writers, h.Post)
	batches.Get("/:id", h.GetByID)
	batches.Delete("/:id", writers, h.Delete)
}
