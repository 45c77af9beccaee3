package balance

import (
	"context"
)

// BalanceRepository 残高リポジトリインターフェース
type BalanceRepository interface {
	// FindByUserID ユーザーIDで残高を取得（存在しない場合は ErrBalanceNotFound）
	FindByUserID(ctx context.Context, userID string) (*Balance, error)

	// Create 残高レコードを作成（既に存在する場合は何もしない）
	Create(ctx context.Context, balance *Balance) error

	// Save 残高を保存（楽観的ロック対応）
	Save(ctx context.Context, balance *Balance) error
}
