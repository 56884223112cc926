package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CoursePay/internal/pkg/session"
	"github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
)

func newTestApp(admin bool) *fiber.App {
	store := session.NewStore(nil)
	app := fiber.New()
	app.Get("/login-as", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(usercontext.AuthKey, true)
		sess.Set(usercontext.KeyUserID, uint(7))
		sess.Set(usercontext.KeyEmail, "buyer@example.com")
		sess.Set(usercontext.KeyIsAdmin, admin)
		return sess.Save()
	})
	app.Use(UserContextMiddleware(store))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})
	app.Get("/private", RequireAuth, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/admin", RequireAPIAdmin, func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func sessionCookie(t *testing.T, app *fiber.App) string {
	resp, err := app.Test(httptest.NewRequest("GET", "/login-as", nil))
	require.NoError(t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			return ck.Name + "=" + ck.Value
		}
	}
	t.Fatal("no session cookie issued")
	return ""
}

func get(t *testing.T, app *fiber.App, path, cookie string) (int, string, string) {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func TestAnonymousRequests(t *testing.T) {
	app := newTestApp(false)

	code, loc, _ := get(t, app, "/private", "")
	assert.Equal(t, fiber.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)

	code, _, _ = get(t, app, "/api/admin", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	_, _, body := get(t, app, "/me", "")
	assert.Contains(t, body, `"is_logged_in":false`)
}

func TestLoggedInUser(t *testing.T) {
	app := newTestApp(false)
	cookie := sessionCookie(t, app)

	code, _, body := get(t, app, "/private", cookie)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", body)

	_, _, body = get(t, app, "/me", cookie)
	assert.Contains(t, body, `"user_id":7`)
	assert.Contains(t, body, `"email":"buyer@example.com"`)

	code, loc, _ := get(t, app, "/admin", cookie)
	assert.Equal(t, fiber.StatusSeeOther, code)
	assert.Equal(t, "/", loc)

	code, _, _ = get(t, app, "/api/admin", cookie)
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestAdminUser(t *testing.T) {
	app := newTestApp(true)
	cookie := sessionCookie(t, app)

	code, _, _ := get(t, app, "/admin", cookie)
	assert.Equal(t, fiber.StatusOK, code)

	code, _, _ = get(t, app, "/api/admin", cookie)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestSessionWithoutAuthFlagIsAnonymous(t *testing.T) {
	store := session.NewStore(nil)
	app := fiber.New()
	app.Get("/half-login", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(usercontext.KeyUserID, uint(7))
		sess.Set(usercontext.KeyIsAdmin, true)
		return sess.Save()
	})
	app.Use(UserContextMiddleware(store))
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/half-login", nil))
	require.NoError(t, err)
	var cookie string
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			cookie = ck.Name + "=" + ck.Value
		}
	}
	require.NotEmpty(t, cookie)

	code, loc, _ := get(t, app, "/admin", cookie)
	assert.Equal(t, fiber.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)
}
