package effect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/unitofwork"
	"gamebot-server/internal/domain/effect"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// EffectApplicationService 状態効果のアプリケーションサービス
// 有効期限切れの判定は読み取り時に注入された時計と比較して行う
type EffectApplicationService struct {
	effectRepo effect.EffectRepository
	uow        *unitofwork.Runner
	clock      clock.Clock
	logger     *otelinfra.Logger
	tracer     trace.Tracer
}

// NewEffectApplicationService 新しいEffectApplicationServiceを作成
func NewEffectApplicationService(
	effectRepo effect.EffectRepository,
	uow *unitofwork.Runner,
	clk clock.Clock,
	logger *otelinfra.Logger,
) *EffectApplicationService {
	return &EffectApplicationService{
		effectRepo: effectRepo,
		uow:        uow,
		clock:      clk,
		logger:     logger,
		tracer:     otel.Tracer("effect-service"),
	}
}

// GetActive 有効な効果を返す。効果がない、または期限切れの場合は nil
func (s *EffectApplicationService) GetActive(ctx context.Context, userID string) (*effect.ActiveEffect, error) {
	ctx, span := s.tracer.Start(ctx, "EffectApplicationService.GetActive")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	e, err := s.effectRepo.FindByUserID(ctx, userID)
	if errors.Is(err, effect.ErrEffectNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find effect: %w", err)
	}
	if !e.IsActiveAt(s.clock.Now()) {
		return nil, nil
	}
	return e, nil
}

// SetActive 効果を duration の間有効にする。既存の効果は無条件に上書きする
func (s *EffectApplicationService) SetActive(ctx context.Context, userID, effectID string, duration time.Duration) (*effect.ActiveEffect, error) {
	ctx, span := s.tracer.Start(ctx, "EffectApplicationService.SetActive")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("effect_id", effectID),
		attribute.String("duration", duration.String()),
	)

	if duration <= 0 {
		return nil, effect.ErrInvalidDuration
	}

	e, err := effect.NewActiveEffect(userID, effectID, s.clock.Now().Add(duration).UTC())
	if err != nil {
		return nil, err
	}

	err = s.uow.Run(ctx, []string{userID}, func(ctx context.Context) error {
		return s.effectRepo.Replace(ctx, e)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to set effect", err, map[string]interface{}{
			"user_id":   userID,
			"effect_id": effectID,
		})
		return nil, err
	}

	s.logger.Info(ctx, "Effect applied", map[string]interface{}{
		"user_id":    userID,
		"effect_id":  effectID,
		"expires_at": e.ExpiresAt(),
	})
	return e, nil
}

// Clear 効果を解除する
func (s *EffectApplicationService) Clear(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "EffectApplicationService.Clear")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	err := s.uow.Run(ctx, []string{userID}, func(ctx context.Context) error {
		return s.effectRepo.Delete(ctx, userID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to clear effect: %w", err)
	}
	return nil
}
