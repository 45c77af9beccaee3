package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		handler    echo.HandlerFunc
		wantLevel  zapcore.Level
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "正常系: 成功",
			handler:    func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantLevel:  zapcore.InfoLevel,
			wantMsg:    "HTTP request completed",
			wantStatus: http.StatusOK,
		},
		{
			name:       "正常系: 5xxは警告",
			handler:    func(c echo.Context) error { return c.String(http.StatusServiceUnavailable, "down") },
			wantLevel:  zapcore.WarnLevel,
			wantMsg:    "HTTP request completed with server error",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "異常系: ハンドラーエラー",
			handler:    func(c echo.Context) error { return errors.New("boom") },
			wantLevel:  zapcore.ErrorLevel,
			wantMsg:    "HTTP request failed",
			wantStatus: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			logger := otelinfra.NewLogger(zap.New(core))

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/roulette", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/roulette")
			c.Response().Header().Set(echo.HeaderXRequestID, "req-1")
			c.Set(ContextKeyClientID, "discord-bot")

			_ = LoggingMiddleware(logger)(tt.handler)(c)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)
			fields := entry.ContextMap()
			assert.Equal(t, "/api/v1/roulette", fields["route"])
			assert.Equal(t, "req-1", fields["request_id"])
			assert.Equal(t, "discord-bot", fields["client_id"])
			if tt.wantStatus > 0 {
				assert.EqualValues(t, tt.wantStatus, fields["status_code"])
			}
		})
	}
}
