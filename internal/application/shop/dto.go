package shop

import (
	"time"

	"gamebot-server/internal/domain/item"
)

// PurchaseRequest 購入リクエスト
type PurchaseRequest struct {
	UserID string
	ItemID string
}

// PurchaseResponse 購入レスポンス
type PurchaseResponse struct {
	TransactionID string // 無料アイテムの場合は空
	Item          item.Definition
	BalanceAfter  int64
	Quantity      int64
}

// ConsumeResponse 消費レスポンス
type ConsumeResponse struct {
	Item      item.Definition
	Remaining int64
}

// CurseOutcome 呪いの結果
type CurseOutcome string

const (
	CurseOutcomeApplied CurseOutcome = "applied" // 効果が付与された
	CurseOutcomeBlocked CurseOutcome = "blocked" // 防御アイテムで防がれた
)

// ApplyCurseRequest 呪いリクエスト
type ApplyCurseRequest struct {
	ActorID  string
	TargetID string
	ItemID   string
}

// ApplyCurseResponse 呪いレスポンス
type ApplyCurseResponse struct {
	Outcome    CurseOutcome
	ItemID     string
	EffectID   string    // applied の場合のみ
	ExpiresAt  time.Time // applied の場合のみ
	WardItemID string    // blocked の場合に消費された防御アイテム
}
