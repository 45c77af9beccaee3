package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// LoggingMiddleware アクセスログミドルウェア
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			fields := map[string]interface{}{
				"method":      req.Method,
				"route":       c.Path(),
				"path":        req.URL.Path,
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": c.RealIP(),
			}
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				fields["request_id"] = id
			}
			if client, ok := c.Get(ContextKeyClientID).(string); ok {
				fields["client_id"] = client
			}

			switch status := c.Response().Status; {
			case err != nil:
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			case status >= 500:
				logger.Warn(req.Context(), "HTTP request completed with server error", fields)
			default:
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
