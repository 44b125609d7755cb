package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/dollarchain/creditrail/internal/pkg/env"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin/ping", MasterKeyMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestMasterKeyMiddleware(t *testing.T) {
	env.Env = map[string]string{"APP_MASTER_KEY": "super-secret"}
	defer func() { env.Env = nil }()

	app := newTestApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-App-Master-Key", "wrong-key")
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-App-Master-Key", "super-secret")
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMasterKeyMiddlewareFailsClosedWhenUnconfigured(t *testing.T) {
	env.Env = map[string]string{}
	defer func() { env.Env = nil }()

	app := newTestApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-App-Master-Key", "anything")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
