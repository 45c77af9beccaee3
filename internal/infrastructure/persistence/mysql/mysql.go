package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"gamebot-server/internal/infrastructure/config"
	"gamebot-server/internal/infrastructure/persistence"

	_ "github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schema string

// Schema MySQL用のDDL
func Schema() string {
	return schema
}

// Open MySQLへ接続し、スキーマを適用したDBを返す
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*persistence.DB, error) {
	sqlDB, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 接続プールの設定
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// 接続テスト
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := persistence.NewDB(sqlDB, persistence.DialectMySQL)
	if err := db.ApplySchema(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
