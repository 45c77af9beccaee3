package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidItemID アイテムIDが無効
	ErrInvalidItemID = errors.New("invalid item id")
	// ErrQuantityOutOfRange 所持数が範囲外
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	// ErrInvalidDelta 増減数が0
	ErrInvalidDelta = errors.New("delta must not be zero")
	// ErrEntryNotFound 所持レコードが存在しない
	ErrEntryNotFound = errors.New("inventory entry not found")
	// ErrInsufficientInventory 所持数不足（InsufficientInventoryError と errors.Is で一致する）
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// InsufficientInventoryError 所持数不足エラー
type InsufficientInventoryError struct {
	ItemID   string
	Required int64
	Actual   int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory: item %s (required %d, actual %d)", e.ItemID, e.Required, e.Actual)
}

// Is ErrInsufficientInventory との比較を可能にする
func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
