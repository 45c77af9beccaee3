package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/transaction"
)

// BalanceRepository BalanceRepositoryのSQL実装
type BalanceRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewBalanceRepository 新しいBalanceRepositoryを作成
func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{
		db:     db,
		tracer: otel.Tracer("balance-repository"),
	}
}

// FindByUserID ユーザーIDで残高を取得
func (r *BalanceRepository) FindByUserID(ctx context.Context, userID string) (*balance.Balance, error) {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "balances"),
	)

	query := `SELECT user_id, amount, version FROM balances WHERE user_id = ?`

	var dbUserID string
	var amount int64
	var version int

	err := r.db.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&dbUserID, &amount, &version)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "balance not found")
		return nil, balance.ErrBalanceNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find balance: %w", transaction.NewStoreError("balances.select", err))
	}

	span.SetAttributes(
		attribute.Int64("db.amount", amount),
		attribute.Int("db.version", version),
	)
	span.SetStatus(otelcodes.Ok, "balance found")

	b, err := balance.NewBalance(dbUserID, amount, version)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct balance entity: %w", err)
	}
	return b, nil
}

// Create 残高レコードを作成（既に存在する場合は何もしない）
func (r *BalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", b.UserID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "balances"),
	)

	query := r.db.dialect.InsertIgnore + ` balances (user_id, amount, version, updated_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, b.UserID(), b.Amount(), b.Version(), time.Now().UnixMilli())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create balance: %w", transaction.NewStoreError("balances.insert", err))
	}

	span.SetStatus(otelcodes.Ok, "balance created")
	return nil
}

// Save 残高を保存（楽観的ロック）
// 読み込み時のバージョンと一致しない場合は transaction.ErrConcurrentUpdate を返す
func (r *BalanceRepository) Save(ctx context.Context, b *balance.Balance) error {
	ctx, span := r.tracer.Start(ctx, "BalanceRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", b.UserID()),
		attribute.Int64("db.amount", b.Amount()),
		attribute.Int("db.version", b.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "balances"),
	)

	query := `
		UPDATE balances
		SET amount = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, b.Amount(), time.Now().UnixMilli(), b.UserID(), b.Version())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save balance: %w", transaction.NewStoreError("balances.update", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", transaction.NewStoreError("balances.update", err))
	}

	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, "optimistic lock conflict")
		return fmt.Errorf("balance of %s: %w", b.UserID(), transaction.ErrConcurrentUpdate)
	}

	b.IncrementVersion()
	span.SetStatus(otelcodes.Ok, "balance saved")
	return nil
}

var _ balance.BalanceRepository = (*BalanceRepository)(nil)
