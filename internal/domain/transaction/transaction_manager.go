package transaction

import (
	"context"
)

// TransactionManager トランザクション管理インターフェース
// fn に渡される ctx はトランザクションを保持しており、リポジトリはそれを使って読み書きする。
// 既にトランザクション中の ctx で呼ばれた場合は外側のトランザクションに参加する
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
