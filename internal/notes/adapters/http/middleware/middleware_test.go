package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/notes/adapters/http/middleware"
	"notekeeper/internal/notes/ports/services"
	"notekeeper/pkg/logger"
)

type fixedVerifier struct {
	principal *services.Principal
}

func (v fixedVerifier) Verify(context.Context, string) (*services.Principal, error) {
	return v.principal, nil
}

func TestRecoveryMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.NewRecoveryMiddleware())
	app.Get("/panic", func(fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAuthMiddlewarePropagatesPrincipal(t *testing.T) {
	want := &services.Principal{Subject: "alice", Audience: services.AudienceAdmin}

	var (
		got       *services.Principal
		requestID string
	)
	app := fiber.New()
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewAuthMiddleware(fixedVerifier{principal: want}))
	app.Get("/", func(c fiber.Ctx) error {
		ctx := middleware.RequestContext(c)
		got, _ = middleware.PrincipalFromContext(ctx)
		requestID, _ = logger.GetRequestID(ctx)
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, want, got)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, resp.Header.Get(middleware.HeaderRequestID))
}

func TestPrincipalFromContextMissing(t *testing.T) {
	_, ok := middleware.PrincipalFromContext(context.Background())
	assert.False(t, ok)
}
