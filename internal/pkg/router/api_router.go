package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/CoursePay/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	admin := v1.Group("/admin", middleware.RequireAPIAdmin)
	admin.Get("/payments", h.deps.Admin.HandlePaymentsAPI)
	admin.Get("/webhooks/counters", h.deps.Admin.HandleWebhookCounters)
	admin.Post("/webhooks/:event_id/replay", h.deps.Admin.HandleReplayEvent)
}
