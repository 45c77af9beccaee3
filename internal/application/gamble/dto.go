package gamble

import "gamebot-server/internal/domain/ceelo"

// DiceRequest チンチロ（3つのサイコロ）リクエスト
type DiceRequest struct {
	UserID string
	Bet    int64
}

// DiceResponse チンチロの結果
type DiceResponse struct {
	Player       ceelo.Hand
	PlayerThrows int
	House        ceelo.Hand
	HouseThrows  int
	Outcome      string // "win" / "push" / "lose"
	Bet          int64
	Credit       int64 // 払い戻し総額（賭け金を含む）
	BalanceAfter int64
}

// SlotsResponse スロットの結果
type SlotsResponse struct {
	Reels        [3]string
	Tier         string
	Cost         int64
	Payout       int64
	BalanceAfter int64
}
