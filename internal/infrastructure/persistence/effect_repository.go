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

	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/transaction"
)

// EffectRepository EffectRepositoryのSQL実装
type EffectRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewEffectRepository 新しいEffectRepositoryを作成
func NewEffectRepository(db *DB) *EffectRepository {
	return &EffectRepository{
		db:     db,
		tracer: otel.Tracer("effect-repository"),
	}
}

// FindByUserID ユーザーの効果を取得（期限切れも含む）
func (r *EffectRepository) FindByUserID(ctx context.Context, userID string) (*effect.ActiveEffect, error) {
	ctx, span := r.tracer.Start(ctx, "EffectRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "active_effects"),
	)

	query := `SELECT user_id, effect_id, expires_at FROM active_effects WHERE user_id = ?`

	var dbUserID, effectID string
	var expiresAtMillis int64

	err := r.db.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&dbUserID, &effectID, &expiresAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "effect not found")
		return nil, effect.ErrEffectNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find effect: %w", transaction.NewStoreError("active_effects.select", err))
	}

	span.SetAttributes(attribute.String("db.effect_id", effectID))
	span.SetStatus(otelcodes.Ok, "effect found")

	e, err := effect.NewActiveEffect(dbUserID, effectID, time.UnixMilli(expiresAtMillis).UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct effect entity: %w", err)
	}
	return e, nil
}

// Replace ユーザーの効果を上書き保存
func (r *EffectRepository) Replace(ctx context.Context, e *effect.ActiveEffect) error {
	ctx, span := r.tracer.Start(ctx, "EffectRepository.Replace")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", e.UserID()),
		attribute.String("db.effect_id", e.EffectID()),
		attribute.String("db.operation", "REPLACE"),
		attribute.String("db.table", "active_effects"),
	)

	query := `REPLACE INTO active_effects (user_id, effect_id, expires_at, updated_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, e.UserID(), e.EffectID(), e.ExpiresAt().UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to replace effect: %w", transaction.NewStoreError("active_effects.replace", err))
	}

	span.SetStatus(otelcodes.Ok, "effect saved")
	return nil
}

// Delete ユーザーの効果を削除
func (r *EffectRepository) Delete(ctx context.Context, userID string) error {
	ctx, span := r.tracer.Start(ctx, "EffectRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "active_effects"),
	)

	query := `DELETE FROM active_effects WHERE user_id = ?`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete effect: %w", transaction.NewStoreError("active_effects.delete", err))
	}

	span.SetStatus(otelcodes.Ok, "effect deleted")
	return nil
}

var _ effect.EffectRepository = (*EffectRepository)(nil)
