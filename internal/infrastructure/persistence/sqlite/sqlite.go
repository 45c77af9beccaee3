package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	"gamebot-server/internal/infrastructure/persistence"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DSN ファイルパスからSQLite接続文字列を組み立てる
// WALとbusy_timeoutを有効にし、書き込み競合で即座に失敗しないようにする
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + q.Encode()
}

// Open SQLiteファイルを開き、スキーマを適用したDBを返す
func Open(ctx context.Context, path string) (*persistence.DB, error) {
	sqlDB, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLiteは単一ライターなので接続を1本に絞る
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := persistence.NewDB(sqlDB, persistence.DialectSQLite)
	if err := db.ApplySchema(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
