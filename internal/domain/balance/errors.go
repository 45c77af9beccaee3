package balance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrAmountTooLarge 金額が大きすぎる
	ErrAmountTooLarge = errors.New("amount too large")
	// ErrInvalidDelta 増減額が0
	ErrInvalidDelta = errors.New("delta must not be zero")
	// ErrBalanceNotFound 残高レコードが存在しない
	ErrBalanceNotFound = errors.New("balance not found")
	// ErrInsufficientFunds 残高不足（InsufficientFundsError と errors.Is で一致する）
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// InsufficientFundsError 残高不足エラー。必要額と現在額を保持する
type InsufficientFundsError struct {
	Required int64
	Actual   int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, actual %d", e.Required, e.Actual)
}

// Is ErrInsufficientFunds との比較を可能にする
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
