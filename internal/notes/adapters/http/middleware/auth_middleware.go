package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notekeeper/internal/notes/ports/services"
	"notekeeper/pkg/logger"
)

// Константы для логирования.
const (
	LogAuthMiddleware = "auth middleware"

	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInvalidToken       = "invalid or expired token"

	bearerPrefix = "Bearer "
)

type principalKey struct{}

// PrincipalFromContext возвращает владельца токена, проверенного промежуточным ПО.
func PrincipalFromContext(ctx context.Context) (*services.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*services.Principal)
	return p, ok
}

// NewAuthMiddleware создает новое промежуточное ПО для проверки bearer-токена.
func NewAuthMiddleware(verifier services.TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		requestCtx := RequestContext(c)
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, LogAuthMiddleware)

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return unauthorized(c, ErrorNoAuthHeader)
		}

		token, found := strings.CutPrefix(authHeader, bearerPrefix)
		if !found || token == "" {
			log.Debug(requestCtx, ErrorInvalidTokenFormat)
			return unauthorized(c, ErrorInvalidTokenFormat)
		}

		principal, err := verifier.Verify(requestCtx, token)
		if err != nil {
			log.Debug(requestCtx, ErrorInvalidToken, zap.Error(err))
			return unauthorized(c, ErrorInvalidToken)
		}

		c.Locals(LocalsUserContext, context.WithValue(requestCtx, principalKey{}, principal))

		return c.Next()
	}
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
	})
}
