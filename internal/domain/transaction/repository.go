package transaction

import (
	"context"
)

// TransactionRepository トランザクションリポジトリインターフェース
type TransactionRepository interface {
	// Save トランザクションを保存
	Save(ctx context.Context, transaction *Transaction) error

	// FindByTransactionID トランザクションIDでトランザクションを取得
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// FindByUserID ユーザーIDでトランザクション一覧を取得（新しい順、ページネーション対応）
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*Transaction, error)

	// FindByUserIDAndType ユーザーIDとタイプでトランザクション一覧を取得
	FindByUserIDAndType(ctx context.Context, userID string, transactionType TransactionType, limit, offset int) ([]*Transaction, error)
}
