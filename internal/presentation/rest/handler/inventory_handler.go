package handler

import (
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
)

// InventoryHandler 所持品と状態効果のハンドラー
type InventoryHandler struct {
	inventoryService InventoryService
	effectService    EffectService
	clock            clock.Clock
}

// NewInventoryHandler 新しいInventoryHandlerを作成
func NewInventoryHandler(inventoryService InventoryService, effectService EffectService, clk clock.Clock) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		effectService:    effectService,
		clock:            clk,
	}
}

// GetInventory 所持品取得ハンドラー
func (h *InventoryHandler) GetInventory(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	items, err := h.inventoryService.GetAll(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if items == nil {
		items = map[string]int64{}
	}

	return c.JSON(http.StatusOK, InventoryResponse{
		UserID: userID,
		Items:  items,
	})
}

// GetEffect 状態効果取得ハンドラー
func (h *InventoryHandler) GetEffect(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	active, err := h.effectService.GetActive(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	resp := EffectResponse{UserID: userID}
	if active != nil {
		resp.Active = true
		resp.EffectID = active.EffectID()
		resp.ExpiresAt = formatTime(active.ExpiresAt())
		resp.RemainingSeconds = int64(active.Remaining(h.clock.Now()).Seconds())
	}
	return c.JSON(http.StatusOK, resp)
}

// ClearEffect 状態効果解除ハンドラー（管理API用）
func (h *InventoryHandler) ClearEffect(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	if err := h.effectService.Clear(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
