package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	rouletteapp "gamebot-server/internal/application/roulette"
)

// RouletteHandler ルーレットハンドラー
type RouletteHandler struct {
	engine RouletteEngine
}

// NewRouletteHandler 新しいRouletteHandlerを作成
func NewRouletteHandler(engine RouletteEngine) *RouletteHandler {
	return &RouletteHandler{
		engine: engine,
	}
}

// Join 参加ハンドラー
func (h *RouletteHandler) Join(c echo.Context) error {
	var reqBody JoinRouletteRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	resp, err := h.engine.Join(c.Request().Context(), reqBody.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, JoinRouletteResponse{
		GameID:       resp.GameID,
		Position:     resp.Position,
		Phase:        resp.Phase,
		ResolvesAt:   formatTime(resp.ResolvesAt),
		BalanceAfter: resp.BalanceAfter,
	})
}

// GetStatus 状態取得ハンドラー
func (h *RouletteHandler) GetStatus(c echo.Context) error {
	status := h.engine.Status(c.Request().Context())

	entries := make([]RouletteEntryResponse, len(status.Entries))
	for i, en := range status.Entries {
		entries[i] = RouletteEntryResponse{
			UserID:   en.UserID,
			JoinedAt: formatTime(en.JoinedAt),
			BuyIn:    en.BuyIn,
		}
	}

	return c.JSON(http.StatusOK, RouletteStatusResponse{
		GameID:     status.GameID,
		Phase:      status.Phase,
		Entries:    entries,
		StartedAt:  formatTime(status.StartedAt),
		ResolvesAt: formatTime(status.ResolvesAt),
		LastResult: toRouletteResultResponse(status.LastResult),
	})
}

func toRouletteResultResponse(res *rouletteapp.Result) *RouletteResultResponse {
	if res == nil {
		return nil
	}
	return &RouletteResultResponse{
		GameID:           res.GameID,
		Participants:     res.Participants,
		Victim:           res.Victim,
		WardConsumed:     res.WardConsumed,
		PenaltyApplied:   res.PenaltyApplied,
		PenaltyEffectID:  res.PenaltyEffectID,
		PenaltyExpiresAt: formatTime(res.PenaltyExpiresAt),
		Survivors:        res.Survivors,
		Payout:           res.Payout,
		Failures:         res.Failures,
		ResolvedAt:       formatTime(res.ResolvedAt),
	}
}
