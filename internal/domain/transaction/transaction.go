package transaction

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrInvalidTransactionID トランザクションIDが無効
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
)

const (
	// MaxAmount 最大金額 (10兆)
	MaxAmount = 10_000_000_000_000
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@:]{1,255}$`)
)

// Transaction 残高変動の仕訳エンティティ。残高の更新と同じDBトランザクションで記録される
type Transaction struct {
	transactionID   string
	userID          string
	transactionType TransactionType
	delta           int64 // 符号付きの増減額
	balanceBefore   int64
	balanceAfter    int64
	metadata        map[string]interface{}
	createdAt       time.Time
}

// NewTransaction 新しいTransactionエンティティを作成
func NewTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	balanceBefore int64,
	balanceAfter int64,
	metadata map[string]interface{},
	createdAt time.Time,
) (*Transaction, error) {
	if !idRegex.MatchString(transactionID) {
		return nil, ErrInvalidTransactionID
	}
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !transactionType.Valid() {
		return nil, ErrInvalidTransaction
	}
	if balanceBefore < 0 || balanceBefore > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	if balanceAfter < 0 || balanceAfter > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}

	return &Transaction{
		transactionID:   transactionID,
		userID:          userID,
		transactionType: transactionType,
		delta:           balanceAfter - balanceBefore,
		balanceBefore:   balanceBefore,
		balanceAfter:    balanceAfter,
		metadata:        metadata,
		createdAt:       createdAt,
	}, nil
}

// TransactionID トランザクションIDを返す
func (t *Transaction) TransactionID() string {
	return t.transactionID
}

// UserID ユーザーIDを返す
func (t *Transaction) UserID() string {
	return t.userID
}

// TransactionType トランザクションタイプを返す
func (t *Transaction) TransactionType() TransactionType {
	return t.transactionType
}

// Delta 符号付きの増減額を返す
func (t *Transaction) Delta() int64 {
	return t.delta
}

// BalanceBefore 処理前の残高を返す
func (t *Transaction) BalanceBefore() int64 {
	return t.balanceBefore
}

// BalanceAfter 処理後の残高を返す
func (t *Transaction) BalanceAfter() int64 {
	return t.balanceAfter
}

// Metadata メタデータを返す
func (t *Transaction) Metadata() map[string]interface{} {
	return t.metadata
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// MustNewTransaction テスト用ヘルパー: NewTransactionを呼び出し、エラーが発生した場合はpanicする
func MustNewTransaction(
	transactionID string,
	userID string,
	transactionType TransactionType,
	balanceBefore int64,
	balanceAfter int64,
	metadata map[string]interface{},
	createdAt time.Time,
) *Transaction {
	tx, err := NewTransaction(transactionID, userID, transactionType, balanceBefore, balanceAfter, metadata, createdAt)
	if err != nil {
		panic(err)
	}
	return tx
}
