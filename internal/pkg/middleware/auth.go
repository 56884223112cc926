package middleware

import (
	icuser "github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

func loggedIn(c *fiber.Ctx) bool {
	return icuser.IsLoggedIn(c)
}

func isAdmin(c *fiber.Ctx) bool {
	return icuser.IsAdmin(c)
}

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !loggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	if !loggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	if !isAdmin(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPIAdmin is RequireAdmin for JSON routes: 401/403 instead of redirects.
func RequireAPIAdmin(c *fiber.Ctx) error {
	if !loggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin access required",
		})
	}
	return c.Next()
}
