package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	battleapp "gamebot-server/internal/application/battle"
)

// BattleHandler 1対1対戦ハンドラー
type BattleHandler struct {
	engine BattleEngine
}

// NewBattleHandler 新しいBattleHandlerを作成
func NewBattleHandler(engine BattleEngine) *BattleHandler {
	return &BattleHandler{
		engine: engine,
	}
}

// Start 対戦開始ハンドラー。結果は応答イベントかタイムアウトで確定する
func (h *BattleHandler) Start(c echo.Context) error {
	var reqBody StartBattleRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.Challenger == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "challenger is required")
	}

	resp, err := h.engine.Start(c.Request().Context(), reqBody.Challenger, reqBody.Opponent, reqBody.Wager)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, StartBattleResponse{
		BattleID:     resp.BattleID,
		ExpiresAt:    formatTime(resp.ExpiresAt),
		BalanceAfter: resp.BalanceAfter,
	})
}

// Deliver 応答イベントハンドラー
func (h *BattleHandler) Deliver(c echo.Context) error {
	var reqBody BattleEventRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.UserID == "" || reqBody.Kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and kind are required")
	}

	outcome, err := h.engine.Deliver(c.Request().Context(), battleapp.Event{
		UserID: reqBody.UserID,
		Kind:   battleapp.EventKind(reqBody.Kind),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toBattleOutcomeResponse(outcome))
}

// GetStatus 状態取得ハンドラー
func (h *BattleHandler) GetStatus(c echo.Context) error {
	status := h.engine.Status(c.Request().Context())

	return c.JSON(http.StatusOK, BattleStatusResponse{
		BattleID:    status.BattleID,
		Phase:       status.Phase,
		Challenger:  status.Challenger,
		Opponent:    status.Opponent,
		Wager:       status.Wager,
		StartedAt:   formatTime(status.StartedAt),
		ExpiresAt:   formatTime(status.ExpiresAt),
		LastOutcome: toBattleOutcomeResponse(status.LastOutcome),
	})
}

func toBattleOutcomeResponse(o *battleapp.Outcome) *BattleOutcomeResponse {
	if o == nil {
		return nil
	}
	return &BattleOutcomeResponse{
		BattleID:   o.BattleID,
		Challenger: o.Challenger,
		Opponent:   o.Opponent,
		Wager:      o.Wager,
		Kind:       string(o.Kind),
		Winner:     o.Winner,
		Pot:        o.Pot,
		Refunded:   o.Refunded,
		Failures:   o.Failures,
		ResolvedAt: formatTime(o.ResolvedAt),
	}
}
