package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CoursePay/internal/pkg/catalog"
)

func TestPublicPages(t *testing.T) {
	mc := NewMainController(testConfig(), catalog.Default())
	app := newTestApp()
	app.Get("/", mc.HandleIndex)
	app.Get("/courses", mc.HandleCourses)
	app.Get("/health", mc.HandleHealth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/courses", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	for _, c := range catalog.DefaultCourses {
		assert.Contains(t, body, `value="`+c.ID+`"`)
	}
	assert.Contains(t, body, "NT$ 990")
	assert.NotContains(t, body, `name="price_twd"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Browse 3 courses")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}
