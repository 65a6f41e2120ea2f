package serverutils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newGuardedApp() *fiber.App {
	app := fiber.New()
	app.Get("/tool", JwtMiddleware, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAuthDisabledLetsRequestsThrough(t *testing.T) {
	ConfigureAuth(true)
	defer ConfigureAuth(true)

	app := newGuardedApp()
	resp, err := app.Test(httptest.NewRequest("GET", "/tool", nil))

	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthEnabledRejectsMissingToken(t *testing.T) {
	ConfigureAuth(false)
	defer ConfigureAuth(true)

	app := newGuardedApp()
	resp, err := app.Test(httptest.NewRequest("GET", "/tool", nil))

	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
