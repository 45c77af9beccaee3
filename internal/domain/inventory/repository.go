package inventory

import (
	"context"
)

// InventoryRepository 所持品リポジトリインターフェース
type InventoryRepository interface {
	// Find ユーザーIDとアイテムIDで所持レコードを取得（存在しない場合は ErrEntryNotFound）
	Find(ctx context.Context, userID, itemID string) (*Entry, error)

	// FindAllByUserID ユーザーの所持数が1以上のレコードを全件取得
	FindAllByUserID(ctx context.Context, userID string) ([]*Entry, error)

	// Create 所持レコードを作成（既に存在する場合は何もしない）
	Create(ctx context.Context, entry *Entry) error

	// Save 所持レコードを保存（楽観的ロック対応）
	Save(ctx context.Context, entry *Entry) error
}
