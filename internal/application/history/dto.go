package history

import "gamebot-server/internal/domain/transaction"

// GetTransactionHistoryRequest トランザクション履歴取得リクエスト
type GetTransactionHistoryRequest struct {
	UserID          string
	Limit           int
	Offset          int
	TransactionType string // optional: "purchase", "wager", etc.
}

// GetTransactionHistoryResponse トランザクション履歴取得レスポンス
type GetTransactionHistoryResponse struct {
	Transactions []*transaction.Transaction
	Limit        int
	Offset       int
	HasMore      bool
}
