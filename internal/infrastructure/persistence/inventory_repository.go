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

	"gamebot-server/internal/domain/inventory"
	"gamebot-server/internal/domain/transaction"
)

// InventoryRepository InventoryRepositoryのSQL実装
type InventoryRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewInventoryRepository 新しいInventoryRepositoryを作成
func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{
		db:     db,
		tracer: otel.Tracer("inventory-repository"),
	}
}

// Find ユーザーIDとアイテムIDで所持レコードを取得
func (r *InventoryRepository) Find(ctx context.Context, userID, itemID string) (*inventory.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Find")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.item_id", itemID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "inventory"),
	)

	query := `SELECT user_id, item_id, quantity, version FROM inventory WHERE user_id = ? AND item_id = ?`

	var dbUserID, dbItemID string
	var quantity int64
	var version int

	err := r.db.conn(ctx).QueryRowContext(ctx, query, userID, itemID).Scan(&dbUserID, &dbItemID, &quantity, &version)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "inventory entry not found")
		return nil, inventory.ErrEntryNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find inventory entry: %w", transaction.NewStoreError("inventory.select", err))
	}

	span.SetAttributes(attribute.Int64("db.quantity", quantity))
	span.SetStatus(otelcodes.Ok, "inventory entry found")

	e, err := inventory.NewEntry(dbUserID, dbItemID, quantity, version)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct inventory entity: %w", err)
	}
	return e, nil
}

// FindAllByUserID ユーザーの所持数が1以上のレコードを全件取得
func (r *InventoryRepository) FindAllByUserID(ctx context.Context, userID string) ([]*inventory.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FindAllByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "inventory"),
	)

	query := `
		SELECT user_id, item_id, quantity, version
		FROM inventory
		WHERE user_id = ? AND quantity > 0
		ORDER BY item_id
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query inventory: %w", transaction.NewStoreError("inventory.select", err))
	}
	defer rows.Close()

	var entries []*inventory.Entry
	for rows.Next() {
		var dbUserID, dbItemID string
		var quantity int64
		var version int
		if err := rows.Scan(&dbUserID, &dbItemID, &quantity, &version); err != nil {
			return nil, fmt.Errorf("failed to scan inventory entry: %w", transaction.NewStoreError("inventory.scan", err))
		}
		e, err := inventory.NewEntry(dbUserID, dbItemID, quantity, version)
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct inventory entity: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate inventory: %w", transaction.NewStoreError("inventory.select", err))
	}

	span.SetAttributes(attribute.Int("db.result_count", len(entries)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d inventory entries", len(entries)))
	return entries, nil
}

// Create 所持レコードを作成（既に存在する場合は何もしない）
func (r *InventoryRepository) Create(ctx context.Context, e *inventory.Entry) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", e.UserID()),
		attribute.String("db.item_id", e.ItemID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "inventory"),
	)

	query := r.db.dialect.InsertIgnore + ` inventory (user_id, item_id, quantity, version, updated_at) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, e.UserID(), e.ItemID(), e.Quantity(), e.Version(), time.Now().UnixMilli())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create inventory entry: %w", transaction.NewStoreError("inventory.insert", err))
	}

	span.SetStatus(otelcodes.Ok, "inventory entry created")
	return nil
}

// Save 所持レコードを保存（楽観的ロック）
func (r *InventoryRepository) Save(ctx context.Context, e *inventory.Entry) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", e.UserID()),
		attribute.String("db.item_id", e.ItemID()),
		attribute.Int64("db.quantity", e.Quantity()),
		attribute.Int("db.version", e.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "inventory"),
	)

	query := `
		UPDATE inventory
		SET quantity = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND item_id = ? AND version = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, e.Quantity(), time.Now().UnixMilli(), e.UserID(), e.ItemID(), e.Version())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save inventory entry: %w", transaction.NewStoreError("inventory.update", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", transaction.NewStoreError("inventory.update", err))
	}

	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, "optimistic lock conflict")
		return fmt.Errorf("inventory %s/%s: %w", e.UserID(), e.ItemID(), transaction.ErrConcurrentUpdate)
	}

	e.IncrementVersion()
	span.SetStatus(otelcodes.Ok, "inventory entry saved")
	return nil
}

var _ inventory.InventoryRepository = (*InventoryRepository)(nil)
