package ledger

import "gamebot-server/internal/domain/transaction"

// GetBalanceResponse 残高取得レスポンス
type GetBalanceResponse struct {
	UserID  string
	Balance int64
}

// AdjustBalanceRequest 残高増減リクエスト
type AdjustBalanceRequest struct {
	UserID   string
	Delta    int64 // 正で加算、負で減算
	Type     transaction.TransactionType
	Metadata map[string]interface{}
}

// SetBalanceRequest 残高上書きリクエスト（管理操作）
type SetBalanceRequest struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// BalanceChange 残高変更結果
type BalanceChange struct {
	TransactionID string
	UserID        string
	BalanceBefore int64
	BalanceAfter  int64
}
