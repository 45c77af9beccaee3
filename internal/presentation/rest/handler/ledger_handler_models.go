package handler

// BalanceResponse 残高レスポンス
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// AdjustBalanceRequest 残高増減リクエスト（管理API）
type AdjustBalanceRequest struct {
	Delta    int64                  `json:"delta"`
	Type     string                 `json:"type"` // 省略時は delta の符号で grant / consume
	Metadata map[string]interface{} `json:"metadata"`
}

// SetBalanceRequest 残高上書きリクエスト（管理API）
type SetBalanceRequest struct {
	Amount   int64                  `json:"amount"`
	Metadata map[string]interface{} `json:"metadata"`
}

// BalanceChangeResponse 残高変更レスポンス
type BalanceChangeResponse struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
}
