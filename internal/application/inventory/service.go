package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/unitofwork"
	"gamebot-server/internal/domain/inventory"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// InventoryApplicationService 所持アイテムのアプリケーションサービス
type InventoryApplicationService struct {
	inventoryRepo inventory.InventoryRepository
	uow           *unitofwork.Runner
	logger        *otelinfra.Logger
	tracer        trace.Tracer
}

// NewInventoryApplicationService 新しいInventoryApplicationServiceを作成
func NewInventoryApplicationService(
	inventoryRepo inventory.InventoryRepository,
	uow *unitofwork.Runner,
	logger *otelinfra.Logger,
) *InventoryApplicationService {
	return &InventoryApplicationService{
		inventoryRepo: inventoryRepo,
		uow:           uow,
		logger:        logger,
		tracer:        otel.Tracer("inventory-service"),
	}
}

// GetQuantity 所持数を取得（レコードがなければ0）
func (s *InventoryApplicationService) GetQuantity(ctx context.Context, userID, itemID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryApplicationService.GetQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("item_id", itemID),
	)

	e, err := s.inventoryRepo.Find(ctx, userID, itemID)
	if errors.Is(err, inventory.ErrEntryNotFound) {
		return 0, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to find inventory entry: %w", err)
	}
	return e.Quantity(), nil
}

// AdjustQuantity 所持数を増減し、変更後の所持数を返す
// 結果がマイナスになる場合は inventory.InsufficientInventoryError を返す
func (s *InventoryApplicationService) AdjustQuantity(ctx context.Context, userID, itemID string, delta int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryApplicationService.AdjustQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("item_id", itemID),
		attribute.Int64("delta", delta),
	)

	if delta == 0 {
		return 0, inventory.ErrInvalidDelta
	}

	var after int64
	err := s.uow.Run(ctx, []string{userID}, func(ctx context.Context) error {
		e, err := s.inventoryRepo.Find(ctx, userID, itemID)
		if errors.Is(err, inventory.ErrEntryNotFound) {
			e, err = inventory.NewEntry(userID, itemID, 0, 0)
			if err != nil {
				return err
			}
			if err := s.inventoryRepo.Create(ctx, e); err != nil {
				return fmt.Errorf("failed to create inventory entry: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to find inventory entry: %w", err)
		}

		if err := e.Adjust(delta); err != nil {
			return err
		}
		if err := s.inventoryRepo.Save(ctx, e); err != nil {
			return fmt.Errorf("failed to save inventory entry: %w", err)
		}
		after = e.Quantity()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if !errors.Is(err, inventory.ErrInsufficientInventory) {
			s.logger.Error(ctx, "Failed to adjust inventory", err, map[string]interface{}{
				"user_id": userID,
				"item_id": itemID,
				"delta":   delta,
			})
		}
		return 0, err
	}

	s.logger.Debug(ctx, "Inventory adjusted", map[string]interface{}{
		"user_id":  userID,
		"item_id":  itemID,
		"delta":    delta,
		"quantity": after,
	})
	return after, nil
}

// GetAll 所持数が1以上のアイテムを item_id => 所持数 で返す
func (s *InventoryApplicationService) GetAll(ctx context.Context, userID string) (map[string]int64, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryApplicationService.GetAll")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	entries, err := s.inventoryRepo.FindAllByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find inventory: %w", err)
	}

	items := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.Quantity() > 0 {
			items[e.ItemID()] = e.Quantity()
		}
	}
	return items, nil
}
