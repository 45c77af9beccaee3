package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/game"
	"gamebot-server/internal/domain/inventory"
	"gamebot-server/internal/domain/item"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

func runErrorHandler(t *testing.T, handlerErr error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/user123/purchase", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlerMiddleware(otelinfra.NewLogger(nil))(func(c echo.Context) error {
		return handlerErr
	})
	require.NoError(t, handler(c))

	var body ErrorResponse
	if rec.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestErrorHandlerMiddleware_NoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlerMiddleware(otelinfra.NewLogger(nil))(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorHandlerMiddleware_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantParams map[string]interface{}
	}{
		{
			name:       "残高不足",
			err:        fmt.Errorf("purchase: %w", &balance.InsufficientFundsError{Required: 50, Actual: 10}),
			wantStatus: http.StatusConflict,
			wantCode:   "insufficient_funds",
			wantParams: map[string]interface{}{"required": float64(50), "actual": float64(10)},
		},
		{
			name:       "所持数不足",
			err:        &inventory.InsufficientInventoryError{ItemID: "hex", Required: 1, Actual: 0},
			wantStatus: http.StatusConflict,
			wantCode:   "insufficient_inventory",
			wantParams: map[string]interface{}{"item_id": "hex", "required": float64(1), "actual": float64(0)},
		},
		{
			name:       "アイテムなし",
			err:        &item.NotFoundError{ItemID: "sword"},
			wantStatus: http.StatusNotFound,
			wantCode:   "item_not_found",
			wantParams: map[string]interface{}{"item_id": "sword"},
		},
		{
			name:       "呪い中",
			err:        &effect.ActiveCurseError{TargetID: "bob", EffectID: "hexed"},
			wantStatus: http.StatusConflict,
			wantCode:   "active_curse",
			wantParams: map[string]interface{}{"target_id": "bob", "effect_id": "hexed"},
		},
		{
			name:       "連続実行の制限",
			err:        &game.RateLimitedError{Action: "dice", RetryAfter: 1500 * time.Millisecond},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "rate_limited",
			wantParams: map[string]interface{}{"action": "dice", "retry_after_seconds": float64(2)},
		},
		{name: "ゲーム進行中", err: game.ErrGameInProgress, wantStatus: http.StatusConflict, wantCode: "game_in_progress"},
		{name: "参加済み", err: game.ErrAlreadyQueued, wantStatus: http.StatusConflict, wantCode: "already_queued"},
		{name: "満員", err: game.ErrQueueFull, wantStatus: http.StatusConflict, wantCode: "queue_full"},
		{name: "参加者以外", err: game.ErrNotParticipant, wantStatus: http.StatusForbidden, wantCode: "not_participant"},
		{name: "賭け金不正", err: fmt.Errorf("%w: too large", game.ErrInvalidBet), wantStatus: http.StatusBadRequest, wantCode: "invalid_bet"},
		{name: "呪いではない", err: item.ErrNotACurse, wantStatus: http.StatusBadRequest, wantCode: "not_a_curse"},
		{name: "増減0", err: balance.ErrInvalidDelta, wantStatus: http.StatusBadRequest, wantCode: "invalid_delta"},
		{name: "ユーザーID不正", err: inventory.ErrInvalidUserID, wantStatus: http.StatusBadRequest, wantCode: "invalid_user_id"},
		{name: "競合", err: transaction.ErrConcurrentUpdate, wantStatus: http.StatusConflict, wantCode: "concurrent_update"},
		{
			name:       "ストア障害",
			err:        transaction.NewStoreError("balances.update", errors.New("connection reset")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "store_unavailable",
		},
		{name: "期限切れ", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantCode: "deadline_exceeded"},
		{name: "予期しないエラー", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := runErrorHandler(t, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.wantParams != nil {
				assert.Equal(t, tt.wantParams, body.Params)
			}
		})
	}
}

func TestErrorHandlerMiddleware_RetryAfterHeader(t *testing.T) {
	rec, _ := runErrorHandler(t, &game.RateLimitedError{Action: "pull", RetryAfter: 42 * time.Second})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
}

func TestErrorHandlerMiddleware_HTTPError(t *testing.T) {
	rec, body := runErrorHandler(t, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "invalid request body", body.Message)
}
