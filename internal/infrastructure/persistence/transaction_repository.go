package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/domain/transaction"
)

const transactionColumns = `transaction_id, user_id, transaction_type, delta, balance_before, balance_after, metadata, created_at`

// TransactionRepository TransactionRepositoryのSQL実装
type TransactionRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewTransactionRepository 新しいTransactionRepositoryを作成
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		tracer: otel.Tracer("transaction-repository"),
	}
}

// Save トランザクションを保存
func (r *TransactionRepository) Save(ctx context.Context, t *transaction.Transaction) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", t.TransactionID()),
		attribute.String("db.user_id", t.UserID()),
		attribute.String("db.transaction_type", t.TransactionType().String()),
		attribute.Int64("db.delta", t.Delta()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "ledger_transactions"),
	)

	query := `INSERT INTO ledger_transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var metadataValue interface{}
	if t.Metadata() != nil {
		metadataJSON, err := json.Marshal(t.Metadata())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataValue = string(metadataJSON)
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		t.TransactionID(),
		t.UserID(),
		t.TransactionType().String(),
		t.Delta(),
		t.BalanceBefore(),
		t.BalanceAfter(),
		metadataValue,
		t.CreatedAt().UnixMilli(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save transaction: %w", transaction.NewStoreError("ledger_transactions.insert", err))
	}

	span.SetStatus(otelcodes.Ok, "transaction saved")
	return nil
}

// FindByTransactionID トランザクションIDでトランザクションを取得
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByTransactionID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", transactionID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "ledger_transactions"),
	)

	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE transaction_id = ?`

	t, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "transaction found")
	return t, nil
}

// FindByUserID ユーザーIDでトランザクション一覧を取得（新しい順）
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "ledger_transactions"),
	)

	query := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, transaction_id
		LIMIT ? OFFSET ?
	`

	return r.queryList(ctx, span, query, userID, limit, offset)
}

// FindByUserIDAndType ユーザーIDとタイプでトランザクション一覧を取得（新しい順）
func (r *TransactionRepository) FindByUserIDAndType(ctx context.Context, userID string, transactionType transaction.TransactionType, limit, offset int) ([]*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByUserIDAndType")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.transaction_type", transactionType.String()),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "ledger_transactions"),
	)

	query := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE user_id = ? AND transaction_type = ?
		ORDER BY created_at DESC, transaction_id
		LIMIT ? OFFSET ?
	`

	return r.queryList(ctx, span, query, userID, transactionType.String(), limit, offset)
}

func (r *TransactionRepository) queryList(ctx context.Context, span trace.Span, query string, args ...interface{}) ([]*transaction.Transaction, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query transactions: %w", transaction.NewStoreError("ledger_transactions.select", err))
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate transactions: %w", transaction.NewStoreError("ledger_transactions.select", err))
	}

	span.SetAttributes(attribute.Int("db.result_count", len(transactions)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d transactions", len(transactions)))
	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var transactionID, userID, transactionType string
	var delta, balanceBefore, balanceAfter, createdAtMillis int64
	var metadataJSON sql.NullString

	err := row.Scan(
		&transactionID,
		&userID,
		&transactionType,
		&delta,
		&balanceBefore,
		&balanceAfter,
		&metadataJSON,
		&createdAtMillis,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", transaction.NewStoreError("ledger_transactions.scan", err))
	}

	tt, err := transaction.NewTransactionType(transactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}

	var metadata map[string]interface{}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	t, err := transaction.NewTransaction(
		transactionID,
		userID,
		tt,
		balanceBefore,
		balanceAfter,
		metadata,
		time.UnixMilli(createdAtMillis).UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct transaction entity: %w", err)
	}
	return t, nil
}

var _ transaction.TransactionRepository = (*TransactionRepository)(nil)
