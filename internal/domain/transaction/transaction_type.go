package transaction

import (
	"fmt"
)

// TransactionType トランザクションタイプを表す値オブジェクト
type TransactionType string

const (
	TransactionTypeGrant    TransactionType = "grant"     // 付与
	TransactionTypeConsume  TransactionType = "consume"   // 消費
	TransactionTypePurchase TransactionType = "purchase"  // ショップでの購入
	TransactionTypeRefund   TransactionType = "refund"    // 返金
	TransactionTypeBuyIn    TransactionType = "buy_in"    // ルーレット参加費
	TransactionTypePayout   TransactionType = "payout"    // ルーレット生存報酬
	TransactionTypeWager    TransactionType = "wager"     // 賭け金
	TransactionTypeWinnings TransactionType = "winnings"  // 賭けの払い戻し
	TransactionTypeAdminSet TransactionType = "admin_set" // 管理者による残高設定
)

var validTypes = []TransactionType{
	TransactionTypeGrant,
	TransactionTypeConsume,
	TransactionTypePurchase,
	TransactionTypeRefund,
	TransactionTypeBuyIn,
	TransactionTypePayout,
	TransactionTypeWager,
	TransactionTypeWinnings,
	TransactionTypeAdminSet,
}

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	tt := TransactionType(s)
	if !tt.Valid() {
		return "", fmt.Errorf("%w: unknown transaction type %s", ErrInvalidTransaction, s)
	}
	return tt, nil
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクションタイプかどうかを返す
func (tt TransactionType) Valid() bool {
	for _, v := range validTypes {
		if tt == v {
			return true
		}
	}
	return false
}
