// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notekeeper/pkg/logger"
)

// Ключи и заголовки контекста запроса.
const (
	LocalsUserContext = "userContext"
	HeaderRequestID   = "X-Request-ID"
)

// RequestContext возвращает контекст, подготовленный промежуточным ПО.
func RequestContext(c fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(LocalsUserContext).(context.Context); ok {
		return ctx
	}
	return c.Context()
}

// NewLoggerMiddleware создает новое промежуточное ПО для логирования HTTP запросов.
// Присваивает запросу request id и кладет контекст с ним в Locals.
func NewLoggerMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		requestCtx := logger.NewRequestIDContext(c.Context(), c.Get(HeaderRequestID))
		c.Locals(LocalsUserContext, requestCtx)
		requestID, _ := logger.GetRequestID(requestCtx)
		c.Set(HeaderRequestID, requestID)

		start := time.Now()
		log := logger.Log(requestCtx).With(
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("ip", c.IP()),
		)

		log.Debug(requestCtx, "request started")

		err := c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Error(requestCtx, "request failed", append(fields, zap.Error(err))...)
			return err
		}

		log.Info(requestCtx, "request completed", fields...)
		return nil
	}
}
