package handler

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"gamebot-server/internal/application/cooldown"
	gambleapp "gamebot-server/internal/application/gamble"
	"gamebot-server/internal/domain/ceelo"
)

// GameHandler サイコロ・スロット・連打抑止のハンドラー
type GameHandler struct {
	gambleService GambleService
	cooldownGate  CooldownGate
}

// NewGameHandler 新しいGameHandlerを作成
func NewGameHandler(gambleService GambleService, cooldownGate CooldownGate) *GameHandler {
	return &GameHandler{
		gambleService: gambleService,
		cooldownGate:  cooldownGate,
	}
}

// PlayDice チンチロハンドラー
func (h *GameHandler) PlayDice(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody DiceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.gambleService.PlayDice(c.Request().Context(), &gambleapp.DiceRequest{
		UserID: userID,
		Bet:    reqBody.Bet,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, DiceResponse{
		Player:       toHandResponse(resp.Player),
		PlayerThrows: resp.PlayerThrows,
		House:        toHandResponse(resp.House),
		HouseThrows:  resp.HouseThrows,
		Outcome:      resp.Outcome,
		Bet:          resp.Bet,
		Credit:       resp.Credit,
		BalanceAfter: resp.BalanceAfter,
	})
}

// PlaySlots スロットハンドラー
func (h *GameHandler) PlaySlots(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	resp, err := h.gambleService.PlaySlots(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SlotsResponse{
		Reels:        resp.Reels,
		Tier:         resp.Tier,
		Cost:         resp.Cost,
		Payout:       resp.Payout,
		BalanceAfter: resp.BalanceAfter,
	})
}

// CheckCooldown 連打抑止の判定ハンドラー。抑止中は429を返す
func (h *GameHandler) CheckCooldown(c echo.Context) error {
	userID := c.Param("user_id")
	action := cooldown.Action(c.Param("action"))
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	if !slices.Contains(cooldown.Actions(), action) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action")
	}

	if err := h.cooldownGate.Allow(c.Request().Context(), userID, action); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CooldownResponse{
		UserID:  userID,
		Action:  string(action),
		Allowed: true,
	})
}

func toHandResponse(h ceelo.Hand) HandResponse {
	return HandResponse{
		Dice:  h.Dice,
		Kind:  h.Kind.String(),
		Point: h.Point,
	}
}
