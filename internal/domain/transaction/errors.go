package transaction

import (
	"errors"
	"fmt"
)

var (
	// ErrTransactionNotFound トランザクションが見つからないエラー
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransaction 無効なトランザクションエラー
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrConcurrentUpdate 楽観的ロックの競合。作業単位全体をやり直せば解消する
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	// ErrStoreUnavailable 永続化層の障害。回復不能なエラーとして呼び出し元へ伝播する
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError 永続化層の障害をラップする
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError 新しいStoreErrorを作成
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap 元のエラーと ErrStoreUnavailable の両方を返す
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}
