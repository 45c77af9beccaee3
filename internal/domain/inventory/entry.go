package inventory

import (
	"regexp"
)

const (
	// MaxQuantity 1アイテムあたりの最大所持数
	MaxQuantity = 1_000_000
)

var (
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@:]{1,255}$`)
	itemIDRegex = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)
)

// Entry ユーザーごとのアイテム所持数エンティティ
type Entry struct {
	userID   string
	itemID   string
	quantity int64 // 常に0以上
	version  int   // 楽観的ロック用
}

// NewEntry 新しいEntryエンティティを作成
func NewEntry(userID, itemID string, quantity int64, version int) (*Entry, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !itemIDRegex.MatchString(itemID) {
		return nil, ErrInvalidItemID
	}
	if quantity < 0 || quantity > MaxQuantity {
		return nil, ErrQuantityOutOfRange
	}
	return &Entry{
		userID:   userID,
		itemID:   itemID,
		quantity: quantity,
		version:  version,
	}, nil
}

// UserID ユーザーIDを返す
func (e *Entry) UserID() string {
	return e.userID
}

// ItemID アイテムIDを返す
func (e *Entry) ItemID() string {
	return e.itemID
}

// Quantity 所持数を返す
func (e *Entry) Quantity() int64 {
	return e.quantity
}

// Version バージョンを返す（楽観的ロック用）
func (e *Entry) Version() int {
	return e.version
}

// Adjust 所持数を増減する
func (e *Entry) Adjust(delta int64) error {
	if delta < 0 && e.quantity+delta < 0 {
		return &InsufficientInventoryError{ItemID: e.itemID, Required: -delta, Actual: e.quantity}
	}
	if delta > 0 && e.quantity > MaxQuantity-delta {
		return ErrQuantityOutOfRange
	}
	e.quantity += delta
	return nil
}

// IncrementVersion バージョンをインクリメント（保存成功後に呼ばれる）
func (e *Entry) IncrementVersion() {
	e.version++
}

// MustNewEntry テスト用ヘルパー: NewEntryを呼び出し、エラーが発生した場合はpanicする
func MustNewEntry(userID, itemID string, quantity int64, version int) *Entry {
	e, err := NewEntry(userID, itemID, quantity, version)
	if err != nil {
		panic(err)
	}
	return e
}
