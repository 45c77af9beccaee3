package handler

// DiceRequest チンチロリクエスト
type DiceRequest struct {
	Bet int64 `json:"bet"`
}

// HandResponse 役
type HandResponse struct {
	Dice  [3]int `json:"dice"`
	Kind  string `json:"kind"`
	Point int    `json:"point,omitempty"`
}

// DiceResponse チンチロレスポンス
type DiceResponse struct {
	Player       HandResponse `json:"player"`
	PlayerThrows int          `json:"player_throws"`
	House        HandResponse `json:"house"`
	HouseThrows  int          `json:"house_throws"`
	Outcome      string       `json:"outcome"`
	Bet          int64        `json:"bet"`
	Credit       int64        `json:"credit"`
	BalanceAfter int64        `json:"balance_after"`
}

// SlotsResponse スロットレスポンス
type SlotsResponse struct {
	Reels        [3]string `json:"reels"`
	Tier         string    `json:"tier"`
	Cost         int64     `json:"cost"`
	Payout       int64     `json:"payout"`
	BalanceAfter int64     `json:"balance_after"`
}

// CooldownResponse 連打抑止の判定レスポンス
type CooldownResponse struct {
	UserID  string `json:"user_id"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

// JoinRouletteRequest ルーレット参加リクエスト
type JoinRouletteRequest struct {
	UserID string `json:"user_id"`
}

// JoinRouletteResponse ルーレット参加レスポンス
type JoinRouletteResponse struct {
	GameID       string `json:"game_id"`
	Position     int    `json:"position"`
	Phase        string `json:"phase"`
	ResolvesAt   string `json:"resolves_at,omitempty"`
	BalanceAfter int64  `json:"balance_after"`
}

// RouletteEntryResponse 参加者
type RouletteEntryResponse struct {
	UserID   string `json:"user_id"`
	JoinedAt string `json:"joined_at"`
	BuyIn    int64  `json:"buy_in"`
}

// RouletteResultResponse 直近の結果
type RouletteResultResponse struct {
	GameID           string   `json:"game_id"`
	Participants     []string `json:"participants"`
	Victim           string   `json:"victim"`
	WardConsumed     string   `json:"ward_consumed,omitempty"`
	PenaltyApplied   bool     `json:"penalty_applied"`
	PenaltyEffectID  string   `json:"penalty_effect_id,omitempty"`
	PenaltyExpiresAt string   `json:"penalty_expires_at,omitempty"`
	Survivors        []string `json:"survivors"`
	Payout           int64    `json:"payout"`
	Failures         []string `json:"failures,omitempty"`
	ResolvedAt       string   `json:"resolved_at"`
}

// RouletteStatusResponse ルーレット状態
type RouletteStatusResponse struct {
	GameID     string                  `json:"game_id,omitempty"`
	Phase      string                  `json:"phase"`
	Entries    []RouletteEntryResponse `json:"entries"`
	StartedAt  string                  `json:"started_at,omitempty"`
	ResolvesAt string                  `json:"resolves_at,omitempty"`
	LastResult *RouletteResultResponse `json:"last_result,omitempty"`
}

// StartBattleRequest 対戦開始リクエスト
type StartBattleRequest struct {
	Challenger string `json:"challenger"`
	Opponent   string `json:"opponent"`
	Wager      int64  `json:"wager"`
}

// StartBattleResponse 対戦開始レスポンス
type StartBattleResponse struct {
	BattleID     string `json:"battle_id"`
	ExpiresAt    string `json:"expires_at"`
	BalanceAfter int64  `json:"balance_after"`
}

// BattleEventRequest 対戦への応答リクエスト
type BattleEventRequest struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
}

// BattleOutcomeResponse 対戦結果
type BattleOutcomeResponse struct {
	BattleID   string   `json:"battle_id"`
	Challenger string   `json:"challenger"`
	Opponent   string   `json:"opponent"`
	Wager      int64    `json:"wager"`
	Kind       string   `json:"kind"`
	Winner     string   `json:"winner,omitempty"`
	Pot        int64    `json:"pot,omitempty"`
	Refunded   int64    `json:"refunded,omitempty"`
	Failures   []string `json:"failures,omitempty"`
	ResolvedAt string   `json:"resolved_at"`
}

// BattleStatusResponse 対戦状態
type BattleStatusResponse struct {
	BattleID    string                 `json:"battle_id,omitempty"`
	Phase       string                 `json:"phase"`
	Challenger  string                 `json:"challenger,omitempty"`
	Opponent    string                 `json:"opponent,omitempty"`
	Wager       int64                  `json:"wager,omitempty"`
	StartedAt   string                 `json:"started_at,omitempty"`
	ExpiresAt   string                 `json:"expires_at,omitempty"`
	LastOutcome *BattleOutcomeResponse `json:"last_outcome,omitempty"`
}
