package handler

// TransactionItem 仕訳1件
type TransactionItem struct {
	TransactionID   string                 `json:"transaction_id"`
	TransactionType string                 `json:"transaction_type"`
	Delta           int64                  `json:"delta"`
	BalanceBefore   int64                  `json:"balance_before"`
	BalanceAfter    int64                  `json:"balance_after"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       string                 `json:"created_at"`
}

// TransactionHistoryResponse トランザクション履歴レスポンス
type TransactionHistoryResponse struct {
	Transactions []TransactionItem `json:"transactions"`
	Limit        int               `json:"limit"`
	Offset       int               `json:"offset"`
	HasMore      bool              `json:"has_more"`
}
