package handler

// ItemResponse カタログのアイテム
type ItemResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Cost             int64   `json:"cost"`
	Category         string  `json:"category"`
	DurationSeconds  int64   `json:"duration_seconds,omitempty"`
	EffectID         string  `json:"effect_id,omitempty"`
	PayoutMultiplier float64 `json:"payout_multiplier,omitempty"`
}

// CatalogResponse カタログレスポンス
type CatalogResponse struct {
	Items []ItemResponse `json:"items"`
}

// ItemRequest アイテムを指定するリクエスト
type ItemRequest struct {
	ItemID string `json:"item_id"`
}

// PurchaseResponse 購入レスポンス
type PurchaseResponse struct {
	TransactionID string       `json:"transaction_id,omitempty"`
	Item          ItemResponse `json:"item"`
	BalanceAfter  int64        `json:"balance_after"`
	Quantity      int64        `json:"quantity"`
}

// ConsumeResponse 消費レスポンス
type ConsumeResponse struct {
	Item      ItemResponse `json:"item"`
	Remaining int64        `json:"remaining"`
}

// CurseRequest 呪いリクエスト
type CurseRequest struct {
	TargetID string `json:"target_id"`
	ItemID   string `json:"item_id"`
}

// CurseResponse 呪いレスポンス
type CurseResponse struct {
	Outcome    string `json:"outcome"`
	ItemID     string `json:"item_id"`
	EffectID   string `json:"effect_id,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	WardItemID string `json:"ward_item_id,omitempty"`
}

// GrantItemRequest アイテム付与リクエスト（管理API）
type GrantItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// InventoryResponse 所持品レスポンス
type InventoryResponse struct {
	UserID string           `json:"user_id"`
	Items  map[string]int64 `json:"items"`
}

// EffectResponse 状態効果レスポンス
type EffectResponse struct {
	UserID           string `json:"user_id"`
	Active           bool   `json:"active"`
	EffectID         string `json:"effect_id,omitempty"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}
