package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	ledgerapp "gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/transaction"
)

// LedgerHandler 残高関連ハンドラー
type LedgerHandler struct {
	ledgerService LedgerService
}

// NewLedgerHandler 新しいLedgerHandlerを作成
func NewLedgerHandler(ledgerService LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// GetBalance 残高取得ハンドラー
func (h *LedgerHandler) GetBalance(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	resp, err := h.ledgerService.GetBalance(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		UserID:  resp.UserID,
		Balance: resp.Balance,
	})
}

// AdjustBalance 残高増減ハンドラー（管理API用）
func (h *LedgerHandler) AdjustBalance(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody AdjustBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	txType := transaction.TransactionTypeGrant
	if reqBody.Delta < 0 {
		txType = transaction.TransactionTypeConsume
	}
	if reqBody.Type != "" {
		var err error
		txType, err = transaction.NewTransactionType(reqBody.Type)
		if err != nil {
			return err
		}
	}

	change, err := h.ledgerService.AdjustBalance(c.Request().Context(), &ledgerapp.AdjustBalanceRequest{
		UserID:   userID,
		Delta:    reqBody.Delta,
		Type:     txType,
		Metadata: withRequester(c, reqBody.Metadata),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toBalanceChangeResponse(change))
}

// SetBalance 残高上書きハンドラー（管理API用）
func (h *LedgerHandler) SetBalance(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody SetBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	change, err := h.ledgerService.SetBalance(c.Request().Context(), &ledgerapp.SetBalanceRequest{
		UserID:   userID,
		Amount:   reqBody.Amount,
		Metadata: withRequester(c, reqBody.Metadata),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toBalanceChangeResponse(change))
}

func toBalanceChangeResponse(change *ledgerapp.BalanceChange) BalanceChangeResponse {
	return BalanceChangeResponse{
		TransactionID: change.TransactionID,
		UserID:        change.UserID,
		BalanceBefore: change.BalanceBefore,
		BalanceAfter:  change.BalanceAfter,
	}
}

// withRequester 管理操作の監査用に呼び出し元とリクエストIDをメタデータへ加える
func withRequester(c echo.Context, metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["source"] = "admin_api"
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		out["request_id"] = id
	}
	return out
}
