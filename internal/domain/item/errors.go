package item

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound カタログに存在しないアイテム（NotFoundError と errors.Is で一致する）
	ErrItemNotFound = errors.New("item not found")
	// ErrDuplicateItem 同じIDのアイテムが複数定義されている
	ErrDuplicateItem = errors.New("duplicate item definition")
	// ErrInvalidDefinition アイテム定義が不正
	ErrInvalidDefinition = errors.New("invalid item definition")
	// ErrNotACurse 呪いではないアイテムで呪いを使おうとした
	ErrNotACurse = errors.New("item is not a curse")
)

// NotFoundError カタログに存在しないアイテム
type NotFoundError struct {
	ItemID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: %s", e.ItemID)
}

// Is ErrItemNotFound との比較を可能にする
func (e *NotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}

// InvalidDefinitionError アイテム定義の検証エラー
type InvalidDefinitionError struct {
	ItemID string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid item definition %q: %s", e.ItemID, e.Reason)
}

// Is ErrInvalidDefinition との比較を可能にする
func (e *InvalidDefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
