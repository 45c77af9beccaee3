package balance

import (
	"regexp"
)

const (
	// MaxAmount 最大残高 (10兆)
	MaxAmount = 10_000_000_000_000
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@:]{1,255}$`)

// Balance ユーザーのトークン残高エンティティ
type Balance struct {
	userID  string
	amount  int64 // 常に0以上
	version int   // 楽観的ロック用
}

// NewBalance 新しいBalanceエンティティを作成
func NewBalance(userID string, amount int64, version int) (*Balance, error) {
	if !ValidUserID(userID) {
		return nil, ErrInvalidUserID
	}
	if amount < 0 || amount > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	return &Balance{
		userID:  userID,
		amount:  amount,
		version: version,
	}, nil
}

// ValidUserID ユーザーIDの形式が正しいかを返す
func ValidUserID(userID string) bool {
	return userIDRegex.MatchString(userID)
}

// UserID ユーザーIDを返す
func (b *Balance) UserID() string {
	return b.userID
}

// Amount 残高を返す
func (b *Balance) Amount() int64 {
	return b.amount
}

// Version バージョンを返す（楽観的ロック用）
func (b *Balance) Version() int {
	return b.version
}

// Adjust 残高を増減する
// 結果がマイナスになる場合は InsufficientFundsError を返し、残高は変更しない
func (b *Balance) Adjust(delta int64) error {
	if delta > MaxAmount || delta < -MaxAmount {
		return ErrAmountTooLarge
	}
	if delta < 0 && b.amount+delta < 0 {
		return &InsufficientFundsError{Required: -delta, Actual: b.amount}
	}
	if delta > 0 && b.amount > MaxAmount-delta {
		return ErrBalanceOutOfRange
	}
	b.amount += delta
	return nil
}

// Set 残高を無条件に上書きする（管理操作）
func (b *Balance) Set(amount int64) error {
	if amount < 0 || amount > MaxAmount {
		return ErrBalanceOutOfRange
	}
	b.amount = amount
	return nil
}

// IncrementVersion バージョンをインクリメント（保存成功後に呼ばれる）
func (b *Balance) IncrementVersion() {
	b.version++
}

// MustNewBalance テスト用ヘルパー: NewBalanceを呼び出し、エラーが発生した場合はpanicする
func MustNewBalance(userID string, amount int64, version int) *Balance {
	b, err := NewBalance(userID, amount, version)
	if err != nil {
		panic(err)
	}
	return b
}
