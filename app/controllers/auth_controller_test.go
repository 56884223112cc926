package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/ManuelReschke/CoursePay/app/repository"
	"github.com/ManuelReschke/CoursePay/internal/pkg/middleware"
	"github.com/ManuelReschke/CoursePay/internal/pkg/session"
	"github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
)

func newAuthApp(t *testing.T, adminEmails ...string) (*fiber.App, repository.UserRepository) {
	cfg := testConfig()
	cfg.AdminEmails = adminEmails
	users := repository.NewUserRepository(newTestDB(t))
	store := session.NewStore(nil)
	ac := NewAuthController(cfg, users, store)

	app := newTestApp()
	app.Use(middleware.UserContextMiddleware(store))
	app.Get("/login", ac.HandleLogin)
	app.Post("/login", ac.HandleLogin)
	app.Get("/register", ac.HandleRegister)
	app.Post("/register", ac.HandleRegister)
	app.Post("/logout", ac.HandleLogout)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})
	return app, users
}

func sessionCookieFrom(resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			return ck.Name + "=" + ck.Value
		}
	}
	return ""
}

func whoami(t *testing.T, app *fiber.App, cookie string) string {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Cookie", cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return readBody(t, resp)
}

func TestRegisterAndLogin(t *testing.T) {
	app, users := newAuthApp(t)

	resp, err := app.Test(postForm("/register", url.Values{
		"email":    {"Buyer@Example.com"},
		"password": {"secret123"},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	user, err := users.GetByEmail("buyer@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.Password)

	resp, err = app.Test(postForm("/login", url.Values{
		"email":    {"buyer@example.com"},
		"password": {"secret123"},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/courses", resp.Header.Get("Location"))

	cookie := sessionCookieFrom(resp)
	require.NotEmpty(t, cookie)
	body := whoami(t, app, cookie)
	assert.Contains(t, body, `"is_logged_in":true`)
	assert.Contains(t, body, `"email":"buyer@example.com"`)
	assert.Contains(t, body, `"is_admin":false`)
}

func TestLoginWithWrongPassword(t *testing.T) {
	app, users := newAuthApp(t)
	u, err := models.CreateUser("buyer@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(u))

	resp, err := app.Test(postForm("/login", url.Values{
		"email":    {"buyer@example.com"},
		"password": {"wrong-password"},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginGrantsAdminFromConfiguredEmails(t *testing.T) {
	app, users := newAuthApp(t, "boss@example.com")
	u, err := models.CreateUser("boss@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(u))

	resp, err := app.Test(postForm("/login", url.Values{
		"email":    {"boss@example.com"},
		"password": {"secret123"},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	assert.Contains(t, whoami(t, app, sessionCookieFrom(resp)), `"is_admin":true`)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	app, users := newAuthApp(t)

	resp, err := app.Test(postForm("/register", url.Values{
		"email":    {"not-an-email"},
		"password": {"123"},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/register", resp.Header.Get("Location"))

	_, err = users.GetByEmail("not-an-email")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app, _ := newAuthApp(t)
	form := url.Values{"email": {"dup@example.com"}, "password": {"secret123"}}

	resp, err := app.Test(postForm("/register", form))
	require.NoError(t, err)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = app.Test(postForm("/register", form))
	require.NoError(t, err)
	assert.Equal(t, "/register", resp.Header.Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	app, users := newAuthApp(t)
	u, err := models.CreateUser("buyer@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(u))

	resp, err := app.Test(postForm("/login", url.Values{
		"email":    {"buyer@example.com"},
		"password": {"secret123"},
	}))
	require.NoError(t, err)
	cookie := sessionCookieFrom(resp)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Cookie", cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	assert.Contains(t, whoami(t, app, cookie), `"is_logged_in":false`)
}

func TestLoginPageRenders(t *testing.T) {
	app, _ := newAuthApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `action="/login"`)
}
