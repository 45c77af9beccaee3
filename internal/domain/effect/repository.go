package effect

import (
	"context"
)

// EffectRepository 効果リポジトリインターフェース
type EffectRepository interface {
	// FindByUserID ユーザーの効果を取得（期限切れも含む。存在しない場合は ErrEffectNotFound）
	FindByUserID(ctx context.Context, userID string) (*ActiveEffect, error)

	// Replace ユーザーの効果を上書き保存
	Replace(ctx context.Context, effect *ActiveEffect) error

	// Delete ユーザーの効果を削除（存在しなくてもエラーにしない）
	Delete(ctx context.Context, userID string) error
}
