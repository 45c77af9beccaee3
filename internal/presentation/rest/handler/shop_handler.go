package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	shopapp "gamebot-server/internal/application/shop"
	"gamebot-server/internal/domain/item"
)

// ShopHandler ショップ関連ハンドラー
type ShopHandler struct {
	shopService ShopService
}

// NewShopHandler 新しいShopHandlerを作成
func NewShopHandler(shopService ShopService) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
	}
}

// ListItems カタログ取得ハンドラー
func (h *ShopHandler) ListItems(c echo.Context) error {
	defs := h.shopService.Catalog().All()
	items := make([]ItemResponse, len(defs))
	for i, d := range defs {
		items[i] = toItemResponse(d)
	}
	return c.JSON(http.StatusOK, CatalogResponse{Items: items})
}

// Purchase 購入ハンドラー
func (h *ShopHandler) Purchase(c echo.Context) error {
	userID, reqBody, err := bindItemRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.shopService.Purchase(c.Request().Context(), &shopapp.PurchaseRequest{
		UserID: userID,
		ItemID: reqBody.ItemID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PurchaseResponse{
		TransactionID: resp.TransactionID,
		Item:          toItemResponse(resp.Item),
		BalanceAfter:  resp.BalanceAfter,
		Quantity:      resp.Quantity,
	})
}

// Consume 消費ハンドラー
func (h *ShopHandler) Consume(c echo.Context) error {
	userID, reqBody, err := bindItemRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.shopService.Consume(c.Request().Context(), userID, reqBody.ItemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ConsumeResponse{
		Item:      toItemResponse(resp.Item),
		Remaining: resp.Remaining,
	})
}

// ApplyCurse 呪いハンドラー。path の user_id が使用者
func (h *ShopHandler) ApplyCurse(c echo.Context) error {
	actorID := c.Param("user_id")
	if actorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody CurseRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.TargetID == "" || reqBody.ItemID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target_id and item_id are required")
	}
	if reqBody.TargetID == actorID {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot curse yourself")
	}

	resp, err := h.shopService.ApplyCurse(c.Request().Context(), &shopapp.ApplyCurseRequest{
		ActorID:  actorID,
		TargetID: reqBody.TargetID,
		ItemID:   reqBody.ItemID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CurseResponse{
		Outcome:    string(resp.Outcome),
		ItemID:     resp.ItemID,
		EffectID:   resp.EffectID,
		ExpiresAt:  formatTime(resp.ExpiresAt),
		WardItemID: resp.WardItemID,
	})
}

// GrantItem アイテム付与ハンドラー（管理API用）
func (h *ShopHandler) GrantItem(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody GrantItemRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.ItemID == "" || reqBody.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id and a positive quantity are required")
	}

	quantity, err := h.shopService.GrantItem(c.Request().Context(), userID, reqBody.ItemID, reqBody.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"item_id":  reqBody.ItemID,
		"quantity": quantity,
	})
}

func bindItemRequest(c echo.Context) (string, ItemRequest, error) {
	var reqBody ItemRequest
	userID := c.Param("user_id")
	if userID == "" {
		return "", reqBody, echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	if err := c.Bind(&reqBody); err != nil {
		return "", reqBody, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.ItemID == "" {
		return "", reqBody, echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}
	return userID, reqBody, nil
}

func toItemResponse(d item.Definition) ItemResponse {
	return ItemResponse{
		ID:               d.ID,
		Name:             d.Name,
		Cost:             d.Cost,
		Category:         d.Category.String(),
		DurationSeconds:  int64(d.Duration.Seconds()),
		EffectID:         effectIDOf(d),
		PayoutMultiplier: d.PayoutMultiplier,
	}
}

func effectIDOf(d item.Definition) string {
	if !d.IsCurse() {
		return ""
	}
	return d.AppliedEffectID()
}
