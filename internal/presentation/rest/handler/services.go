package handler

import (
	"context"
	"time"

	authapp "gamebot-server/internal/application/auth"
	battleapp "gamebot-server/internal/application/battle"
	"gamebot-server/internal/application/cooldown"
	gambleapp "gamebot-server/internal/application/gamble"
	historyapp "gamebot-server/internal/application/history"
	ledgerapp "gamebot-server/internal/application/ledger"
	rouletteapp "gamebot-server/internal/application/roulette"
	shopapp "gamebot-server/internal/application/shop"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/item"
)

// TokenIssuer サービストークンの発行
type TokenIssuer interface {
	IssueToken(ctx context.Context, req *authapp.IssueTokenRequest) (*authapp.IssueTokenResponse, error)
}

// LedgerService 残高操作
type LedgerService interface {
	GetBalance(ctx context.Context, userID string) (*ledgerapp.GetBalanceResponse, error)
	AdjustBalance(ctx context.Context, req *ledgerapp.AdjustBalanceRequest) (*ledgerapp.BalanceChange, error)
	SetBalance(ctx context.Context, req *ledgerapp.SetBalanceRequest) (*ledgerapp.BalanceChange, error)
}

// InventoryService 所持品の参照
type InventoryService interface {
	GetAll(ctx context.Context, userID string) (map[string]int64, error)
}

// EffectService 状態効果の参照と解除
type EffectService interface {
	GetActive(ctx context.Context, userID string) (*effect.ActiveEffect, error)
	Clear(ctx context.Context, userID string) error
}

// ShopService 購入・消費・呪い
type ShopService interface {
	Catalog() *item.Catalog
	Purchase(ctx context.Context, req *shopapp.PurchaseRequest) (*shopapp.PurchaseResponse, error)
	Consume(ctx context.Context, userID, itemID string) (*shopapp.ConsumeResponse, error)
	ApplyCurse(ctx context.Context, req *shopapp.ApplyCurseRequest) (*shopapp.ApplyCurseResponse, error)
	GrantItem(ctx context.Context, userID, itemID string, quantity int64) (int64, error)
}

// GambleService サイコロとスロット
type GambleService interface {
	PlayDice(ctx context.Context, req *gambleapp.DiceRequest) (*gambleapp.DiceResponse, error)
	PlaySlots(ctx context.Context, userID string) (*gambleapp.SlotsResponse, error)
}

// CooldownGate 連打抑止
type CooldownGate interface {
	Allow(ctx context.Context, userID string, action cooldown.Action) error
}

// RouletteEngine ルーレット
type RouletteEngine interface {
	Join(ctx context.Context, userID string) (*rouletteapp.JoinResponse, error)
	Status(ctx context.Context) *rouletteapp.Status
}

// BattleEngine 対戦
type BattleEngine interface {
	Start(ctx context.Context, challenger, opponent string, wager int64) (*battleapp.StartResponse, error)
	Deliver(ctx context.Context, ev battleapp.Event) (*battleapp.Outcome, error)
	Status(ctx context.Context) *battleapp.Status
}

// HistoryService 取引履歴
type HistoryService interface {
	GetTransactionHistory(ctx context.Context, req *historyapp.GetTransactionHistoryRequest) (*historyapp.GetTransactionHistoryResponse, error)
}

// formatTime 時刻をRFC3339で返す。ゼロ値は空文字
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
