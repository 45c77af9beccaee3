package shop

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/ledger"
	"gamebot-server/internal/application/unitofwork"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/inventory"
	"gamebot-server/internal/domain/item"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// Ledger 残高操作
type Ledger interface {
	AdjustBalance(ctx context.Context, req *ledger.AdjustBalanceRequest) (*ledger.BalanceChange, error)
}

// Inventory 所持アイテム操作
type Inventory interface {
	GetQuantity(ctx context.Context, userID, itemID string) (int64, error)
	AdjustQuantity(ctx context.Context, userID, itemID string, delta int64) (int64, error)
}

// Effects 状態効果操作
type Effects interface {
	GetActive(ctx context.Context, userID string) (*effect.ActiveEffect, error)
	SetActive(ctx context.Context, userID, effectID string, duration time.Duration) (*effect.ActiveEffect, error)
}

// ShopApplicationService 購入・消費・呪い・防御を複数のストアにまたがって実行する
// 1つの操作は1つの作業単位で実行され、途中で失敗した場合は全て巻き戻る
type ShopApplicationService struct {
	catalog   *item.Catalog
	ledger    Ledger
	inventory Inventory
	effects   Effects
	uow       *unitofwork.Runner
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
}

// NewShopApplicationService 新しいShopApplicationServiceを作成
func NewShopApplicationService(
	catalog *item.Catalog,
	ledgerService Ledger,
	inventoryService Inventory,
	effectService Effects,
	uow *unitofwork.Runner,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *ShopApplicationService {
	return &ShopApplicationService{
		catalog:   catalog,
		ledger:    ledgerService,
		inventory: inventoryService,
		effects:   effectService,
		uow:       uow,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("shop-service"),
	}
}

// Catalog カタログを返す
func (s *ShopApplicationService) Catalog() *item.Catalog {
	return s.catalog
}

// Purchase アイテムを1つ購入する。代金の引き落としとアイテムの付与は同じトランザクションで行う
func (s *ShopApplicationService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.Purchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
	)

	def, err := s.catalog.Lookup(req.ItemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	result := &PurchaseResponse{Item: def}
	err = s.uow.Run(ctx, []string{req.UserID}, func(ctx context.Context) error {
		if def.Cost > 0 {
			change, err := s.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
				UserID: req.UserID,
				Delta:  -def.Cost,
				Type:   transaction.TransactionTypePurchase,
				Metadata: map[string]interface{}{
					"item_id": def.ID,
				},
			})
			if err != nil {
				return err
			}
			result.TransactionID = change.TransactionID
			result.BalanceAfter = change.BalanceAfter
		}

		quantity, err := s.inventory.AdjustQuantity(ctx, req.UserID, def.ID, 1)
		if err != nil {
			return fmt.Errorf("failed to credit item: %w", err)
		}
		result.Quantity = quantity
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Warn(ctx, "Purchase failed", map[string]interface{}{
			"user_id": req.UserID,
			"item_id": req.ItemID,
			"error":   err.Error(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "Item purchased", map[string]interface{}{
		"user_id":        req.UserID,
		"item_id":        def.ID,
		"cost":           def.Cost,
		"transaction_id": result.TransactionID,
		"quantity":       result.Quantity,
	})
	return result, nil
}

// Consume アイテムを1つ消費し、その定義を返す（ロール付与や告知は呼び出し側が行う）
func (s *ShopApplicationService) Consume(ctx context.Context, userID, itemID string) (*ConsumeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.Consume")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("item_id", itemID),
	)

	def, err := s.catalog.Lookup(itemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	remaining, err := s.inventory.AdjustQuantity(ctx, userID, def.ID, -1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	s.logger.Info(ctx, "Item consumed", map[string]interface{}{
		"user_id":   userID,
		"item_id":   def.ID,
		"category":  def.Category.String(),
		"remaining": remaining,
	})
	return &ConsumeResponse{Item: def, Remaining: remaining}, nil
}

// ApplyCurse actor が target に呪いをかける
//
// target が防御アイテムを持っていれば1つ消費して防ぎ、actor の呪いは消費しない。
// そうでなければ呪いの効果時間だけ効果を付与し、actor の呪いを1つ消費する。
func (s *ShopApplicationService) ApplyCurse(ctx context.Context, req *ApplyCurseRequest) (*ApplyCurseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.ApplyCurse")
	defer span.End()

	span.SetAttributes(
		attribute.String("actor_id", req.ActorID),
		attribute.String("target_id", req.TargetID),
		attribute.String("item_id", req.ItemID),
	)

	def, err := s.catalog.Lookup(req.ItemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if !def.IsCurse() {
		err := fmt.Errorf("%w: %s", item.ErrNotACurse, def.ID)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var result *ApplyCurseResponse
	err = s.uow.Run(ctx, []string{req.ActorID, req.TargetID}, func(ctx context.Context) error {
		active, err := s.effects.GetActive(ctx, req.TargetID)
		if err != nil {
			return err
		}
		if active != nil {
			return &effect.ActiveCurseError{TargetID: req.TargetID, EffectID: active.EffectID()}
		}

		// 所持確認のみ。消費は効果付与が決まってから
		held, err := s.inventory.GetQuantity(ctx, req.ActorID, def.ID)
		if err != nil {
			return err
		}
		if held < 1 {
			return &inventory.InsufficientInventoryError{ItemID: def.ID, Required: 1, Actual: held}
		}

		wardID, blocked, err := s.consumeWard(ctx, req.TargetID)
		if err != nil {
			return err
		}
		if blocked {
			result = &ApplyCurseResponse{Outcome: CurseOutcomeBlocked, ItemID: def.ID, WardItemID: wardID}
			return nil
		}

		applied, err := s.effects.SetActive(ctx, req.TargetID, def.AppliedEffectID(), def.Duration)
		if err != nil {
			return err
		}
		if _, err := s.inventory.AdjustQuantity(ctx, req.ActorID, def.ID, -1); err != nil {
			return err
		}

		result = &ApplyCurseResponse{
			Outcome:   CurseOutcomeApplied,
			ItemID:    def.ID,
			EffectID:  applied.EffectID(),
			ExpiresAt: applied.ExpiresAt(),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.metrics.RecordRejection(ctx, "curse_rejected")
		return nil, err
	}

	span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
	s.logger.Info(ctx, "Curse resolved", map[string]interface{}{
		"actor_id":  req.ActorID,
		"target_id": req.TargetID,
		"item_id":   def.ID,
		"outcome":   string(result.Outcome),
		"ward_id":   result.WardItemID,
	})
	return result, nil
}

// HoldsWard 防御アイテムを1つ以上持っているか
func (s *ShopApplicationService) HoldsWard(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.HoldsWard")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	for _, ward := range s.catalog.Wards() {
		n, err := s.inventory.GetQuantity(ctx, userID, ward.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ConsumeWard 防御アイテムをカタログ順に探して1つ消費する
// 消費したアイテムIDと、消費できたかを返す
func (s *ShopApplicationService) ConsumeWard(ctx context.Context, userID string) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.ConsumeWard")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var wardID string
	var consumed bool
	err := s.uow.Run(ctx, []string{userID}, func(ctx context.Context) error {
		var err error
		wardID, consumed, err = s.consumeWard(ctx, userID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", false, err
	}
	return wardID, consumed, nil
}

// GrantItem アイテムを付与する（管理操作）
func (s *ShopApplicationService) GrantItem(ctx context.Context, userID, itemID string, quantity int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.GrantItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("item_id", itemID),
		attribute.Int64("quantity", quantity),
	)

	def, err := s.catalog.Lookup(itemID)
	if err != nil {
		return 0, err
	}
	after, err := s.inventory.AdjustQuantity(ctx, userID, def.ID, quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, err
	}

	s.logger.Info(ctx, "Item granted", map[string]interface{}{
		"user_id":  userID,
		"item_id":  def.ID,
		"quantity": quantity,
		"after":    after,
	})
	return after, nil
}

// consumeWard 作業単位の中で呼ばれる前提
func (s *ShopApplicationService) consumeWard(ctx context.Context, userID string) (string, bool, error) {
	for _, ward := range s.catalog.Wards() {
		n, err := s.inventory.GetQuantity(ctx, userID, ward.ID)
		if err != nil {
			return "", false, err
		}
		if n < 1 {
			continue
		}
		if _, err := s.inventory.AdjustQuantity(ctx, userID, ward.ID, -1); err != nil {
			return "", false, fmt.Errorf("failed to consume ward %s: %w", ward.ID, err)
		}
		return ward.ID, true, nil
	}
	return "", false, nil
}
