package item

import (
	"fmt"
)

// Category アイテムカテゴリを表す値オブジェクト
type Category string

const (
	CategoryConsumable Category = "consumable" // 汎用消費アイテム
	CategoryCurse      Category = "curse"      // 対象にステータス効果を付与
	CategoryWard       Category = "ward"       // 呪い・ルーレットの被弾を一度だけ防ぐ
	CategoryRole       Category = "role"       // ロール付与（外部で処理）
	CategoryBroadcast  Category = "broadcast"  // 告知（外部で処理）
)

// NewCategory 新しいCategoryを作成
func NewCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %s", ErrInvalidDefinition, s)
	}
	return c, nil
}

// String 文字列表現を返す
func (c Category) String() string {
	return string(c)
}

// Valid 有効なカテゴリかどうかを返す
func (c Category) Valid() bool {
	switch c {
	case CategoryConsumable, CategoryCurse, CategoryWard, CategoryRole, CategoryBroadcast:
		return true
	default:
		return false
	}
}
