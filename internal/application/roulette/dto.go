package roulette

import "time"

// Entry 参加待ちの1件
type Entry struct {
	UserID   string
	JoinedAt time.Time
	BuyIn    int64
}

// JoinResponse 参加レスポンス
type JoinResponse struct {
	GameID       string
	Position     int // 1始まり
	Phase        string
	ResolvesAt   time.Time // Countdown の場合のみ
	BalanceAfter int64
}

// Result 1ゲームの結果
type Result struct {
	GameID           string
	Participants     []string
	Victim           string
	WardConsumed     string // 防御アイテムで防いだ場合のアイテムID
	PenaltyApplied   bool
	PenaltyEffectID  string
	PenaltyExpiresAt time.Time
	Survivors        []string
	Payout           int64    // 生存者1人あたり
	Failures         []string // 結果処理中に失敗した操作
	ResolvedAt       time.Time
}

// Status 現在の状態
type Status struct {
	GameID     string
	Phase      string
	Entries    []Entry
	StartedAt  time.Time
	ResolvesAt time.Time
	LastResult *Result
}
