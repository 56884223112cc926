package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/CoursePay/app/controllers"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are built by the process entry point and shared by all routers.
type Dependencies struct {
	Config   *config.Config
	Sessions *session.Store
	Main     *controllers.MainController
	Auth     *controllers.AuthController
	Billing  *controllers.BillingController
	Admin    *controllers.AdminController
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// HttpRouter installs the UserContext middleware the API admin guard relies on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
