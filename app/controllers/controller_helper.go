package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
)

const layoutMain = "layouts/main"

func isLoggedIn(c *fiber.Ctx) bool {
	return usercontext.IsLoggedIn(c)
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals("csrf").(string)
	return token
}

// pageData merges the values every layout needs into data.
func pageData(c *fiber.Ctx, title string, isDev bool, data fiber.Map) fiber.Map {
	out := fiber.Map{
		"Title": title,
		"User":  usercontext.GetUserContext(c),
		"Flash": flash.Get(c),
		"CSRF":  csrfToken(c),
		"IsDev": isDev,
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// GetClientIP returns the originating client address, preferring proxy headers.
func GetClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return c.IP()
}

func flashError(c *fiber.Ctx, message, redirect string) error {
	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}
	return flash.WithError(c, fm).Redirect(redirect, fiber.StatusSeeOther)
}

func flashSuccess(c *fiber.Ctx, message, redirect string) error {
	fm := fiber.Map{
		"type":    "success",
		"message": message,
	}
	return flash.WithSuccess(c, fm).Redirect(redirect, fiber.StatusSeeOther)
}
