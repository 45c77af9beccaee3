// Package sqlitetest テスト用の一時SQLiteデータベース
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gamebot-server/internal/infrastructure/persistence"
	"gamebot-server/internal/infrastructure/persistence/sqlite"
)

// New テストごとの一時ディレクトリにSQLiteデータベースを作成する
// テスト終了時に自動でクローズされる
func New(t testing.TB) *persistence.DB {
	t.Helper()

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
