package battle

import "time"

// EventKind 対戦中に受け付けるイベント
type EventKind string

const (
	EventAccept   EventKind = "accept"   // 相手が受ける
	EventDecline  EventKind = "decline"  // 相手が断る
	EventWithdraw EventKind = "withdraw" // 挑戦者が取り下げる
)

// Event 参加者から届いたイベント
type Event struct {
	UserID string
	Kind   EventKind
}

// OutcomeKind 決着の種類
type OutcomeKind string

const (
	OutcomeChallengerWon OutcomeKind = "challenger_won"
	OutcomeOpponentWon   OutcomeKind = "opponent_won"
	OutcomeDeclined      OutcomeKind = "declined"
	OutcomeWithdrawn     OutcomeKind = "withdrawn"
	OutcomeTimedOut      OutcomeKind = "timed_out"
)

// Outcome 対戦結果
type Outcome struct {
	BattleID   string
	Challenger string
	Opponent   string
	Wager      int64
	Kind       OutcomeKind
	Winner     string // 勝敗がついた場合のみ
	Pot        int64
	Refunded   int64    // 挑戦者に返金した額
	Failures   []string // 決着処理中に失敗した操作
	ResolvedAt time.Time
}

// StartResponse 対戦開始レスポンス
type StartResponse struct {
	BattleID     string
	ExpiresAt    time.Time
	BalanceAfter int64
	// Outcome 決着時に結果が1度だけ送られる
	Outcome <-chan Outcome
}

// Status 現在の状態
type Status struct {
	BattleID    string
	Phase       string
	Challenger  string
	Opponent    string
	Wager       int64
	StartedAt   time.Time
	ExpiresAt   time.Time
	LastOutcome *Outcome
}
