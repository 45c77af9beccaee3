package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"gamebot-server/internal/application/auth"
	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/game"
	"gamebot-server/internal/domain/inventory"
	"gamebot-server/internal/domain/item"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// sentinelError 詳細を持たないドメインエラーの対応表
type sentinelError struct {
	target error
	status int
	code   string
}

var sentinelErrors = []sentinelError{
	{auth.ErrInvalidClientID, http.StatusBadRequest, "invalid_client_id"},
	{game.ErrGameInProgress, http.StatusConflict, "game_in_progress"},
	{game.ErrAlreadyQueued, http.StatusConflict, "already_queued"},
	{game.ErrQueueFull, http.StatusConflict, "queue_full"},
	{game.ErrNoActiveGame, http.StatusConflict, "no_active_game"},
	{game.ErrNotParticipant, http.StatusForbidden, "not_participant"},
	{game.ErrInvalidOpponent, http.StatusBadRequest, "invalid_opponent"},
	{game.ErrInvalidBet, http.StatusBadRequest, "invalid_bet"},
	{game.ErrTimeout, http.StatusRequestTimeout, "timeout"},
	{game.ErrUnknownAction, http.StatusBadRequest, "unknown_action"},
	{game.ErrInvalidTransition, http.StatusBadRequest, "invalid_event"},
	{item.ErrNotACurse, http.StatusBadRequest, "not_a_curse"},
	{balance.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{inventory.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{effect.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{transaction.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{inventory.ErrInvalidItemID, http.StatusBadRequest, "invalid_item_id"},
	{effect.ErrInvalidEffectID, http.StatusBadRequest, "invalid_effect_id"},
	{effect.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
	{balance.ErrInvalidDelta, http.StatusBadRequest, "invalid_delta"},
	{inventory.ErrInvalidDelta, http.StatusBadRequest, "invalid_delta"},
	{balance.ErrBalanceOutOfRange, http.StatusBadRequest, "amount_out_of_range"},
	{balance.ErrAmountTooLarge, http.StatusBadRequest, "amount_out_of_range"},
	{inventory.ErrQuantityOutOfRange, http.StatusBadRequest, "amount_out_of_range"},
	{transaction.ErrBalanceOutOfRange, http.StatusBadRequest, "amount_out_of_range"},
	{transaction.ErrInvalidTransaction, http.StatusBadRequest, "invalid_transaction_type"},
	{transaction.ErrTransactionNotFound, http.StatusNotFound, "transaction_not_found"},
	{transaction.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// 永続化層の障害は握りつぶさない
	if errors.Is(err, transaction.ErrStoreUnavailable) {
		logger.Error(ctx, "Store unavailable", err, map[string]interface{}{
			"path": c.Request().URL.Path,
		})
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "store_unavailable",
			Message: "The store is temporarily unavailable",
		})
	}

	// 詳細を持つドメインエラー
	var (
		fundsErr     *balance.InsufficientFundsError
		inventoryErr *inventory.InsufficientInventoryError
		notFoundErr  *item.NotFoundError
		curseErr     *effect.ActiveCurseError
		rateErr      *game.RateLimitedError
	)
	switch {
	case errors.As(err, &fundsErr):
		return respondDomain(c, logger, err, http.StatusConflict, "insufficient_funds", map[string]interface{}{
			"required": fundsErr.Required,
			"actual":   fundsErr.Actual,
		})
	case errors.As(err, &inventoryErr):
		return respondDomain(c, logger, err, http.StatusConflict, "insufficient_inventory", map[string]interface{}{
			"item_id":  inventoryErr.ItemID,
			"required": inventoryErr.Required,
			"actual":   inventoryErr.Actual,
		})
	case errors.As(err, &notFoundErr):
		return respondDomain(c, logger, err, http.StatusNotFound, "item_not_found", map[string]interface{}{
			"item_id": notFoundErr.ItemID,
		})
	case errors.As(err, &curseErr):
		return respondDomain(c, logger, err, http.StatusConflict, "active_curse", map[string]interface{}{
			"target_id": curseErr.TargetID,
			"effect_id": curseErr.EffectID,
		})
	case errors.As(err, &rateErr):
		retryAfter := int64(math.Ceil(rateErr.RetryAfter.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		return respondDomain(c, logger, err, http.StatusTooManyRequests, "rate_limited", map[string]interface{}{
			"action":              rateErr.Action,
			"retry_after_seconds": retryAfter,
		})
	}

	for _, s := range sentinelErrors {
		if errors.Is(err, s.target) {
			return respondDomain(c, logger, err, s.status, s.code, nil)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(ctx, "Request deadline exceeded", map[string]interface{}{
			"path": c.Request().URL.Path,
		})
		return c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "deadline_exceeded",
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}

func respondDomain(c echo.Context, logger *otelinfra.Logger, err error, status int, code string, params map[string]interface{}) error {
	logger.Warn(c.Request().Context(), "Request rejected", map[string]interface{}{
		"code":  code,
		"error": err.Error(),
	})
	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Params:  params,
	})
}
