package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gamebot-server/internal/domain/transaction"
)

// Dialect SQL方言ごとの差分
type Dialect struct {
	Name         string
	InsertIgnore string // 主キー重複時に何もしないINSERT
}

var (
	// DialectMySQL MySQL方言
	DialectMySQL = Dialect{Name: "mysql", InsertIgnore: "INSERT IGNORE INTO"}
	// DialectSQLite SQLite方言
	DialectSQLite = Dialect{Name: "sqlite", InsertIgnore: "INSERT OR IGNORE INTO"}
)

// DB データベース接続とトランザクション管理を提供
type DB struct {
	*sql.DB
	dialect Dialect
}

// NewDB 接続済みの *sql.DB から DB を作成
func NewDB(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, dialect: dialect}
}

// Dialect SQL方言を返す
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close データベース接続を閉じる
func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck データベースのヘルスチェックを実行
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

// ApplySchema セミコロン区切りのDDLを順に実行する
func (db *DB) ApplySchema(ctx context.Context, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", transaction.NewStoreError("schema", err))
		}
	}
	return nil
}

// executor *sql.DB と *sql.Tx の共通部分
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conn ctx がトランザクションを持っていればそれを、なければ接続プールを返す
func (db *DB) conn(ctx context.Context) executor {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db.DB
}
