package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/CoursePay/internal/pkg/constants"
	"github.com/ManuelReschke/CoursePay/internal/pkg/middleware"
)

type HttpRouter struct {
	deps Dependencies
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.deps.Sessions))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", h.deps.Main.HandleHealth)
	app.Get("/billing/ping", h.deps.Billing.HandlePing)
	if h.deps.Config.IsDev() {
		app.Get("/billing/debug/keys", h.deps.Billing.HandleDebugKeys)
	}

	// Processor webhook (no CSRF, signature-verified in controller)
	app.Post(constants.WebhookRoute, h.deps.Billing.HandleWebhook)

	app.Get("/billing/checkout", h.deps.Billing.HandleCheckoutGet)
	app.Get("/billing/checkout/create", h.deps.Billing.HandleCheckoutGet)
}

// registerAdminRoutes mounts the admin pages below the CSRF protected group
// so their forms carry a token.
func (h HttpRouter) registerAdminRoutes(group fiber.Router) {
	adminGroup := group.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/ping", h.deps.Admin.HandlePing)
	adminGroup.Get("/payments", h.deps.Admin.HandlePayments)
	adminGroup.Get("/webhooks/counters", h.deps.Admin.HandleWebhookCounters)
	adminGroup.Post("/webhooks/:event_id/replay", h.deps.Admin.HandleReplayEvent)
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !h.deps.Config.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), constants.APIPrefix) || c.Path() == constants.WebhookRoute
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.PublicRoute, h.deps.Main.HandleIndex)
	group.Get(constants.CoursesRoute, h.deps.Main.HandleCourses)
	group.Get("/login", h.deps.Auth.HandleLogin)
	group.Post("/login", h.deps.Auth.HandleLogin)
	group.Get("/register", h.deps.Auth.HandleRegister)
	group.Post("/register", h.deps.Auth.HandleRegister)
	group.Post("/logout", middleware.RequireAuth, h.deps.Auth.HandleLogout)

	group.Post("/billing/checkout", h.deps.Billing.HandleCheckout)
	group.Post("/billing/checkout/create", h.deps.Billing.HandleCheckout)
	group.Get("/billing/success", h.deps.Billing.HandleSuccess)
	group.Get("/billing/cancel", h.deps.Billing.HandleCancel)

	h.registerAdminRoutes(group)
}
