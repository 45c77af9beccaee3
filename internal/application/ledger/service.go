package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/unitofwork"
	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// LedgerApplicationService 残高台帳アプリケーションサービス
type LedgerApplicationService struct {
	balanceRepo     balance.BalanceRepository
	transactionRepo transaction.TransactionRepository
	uow             *unitofwork.Runner
	clock           clock.Clock
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
	newID           func() string
}

// NewLedgerApplicationService 新しいLedgerApplicationServiceを作成
func NewLedgerApplicationService(
	balanceRepo balance.BalanceRepository,
	transactionRepo transaction.TransactionRepository,
	uow *unitofwork.Runner,
	clk clock.Clock,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		balanceRepo:     balanceRepo,
		transactionRepo: transactionRepo,
		uow:             uow,
		clock:           clk,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("ledger-service"),
		newID:           uuid.NewString,
	}
}

// GetBalance 残高を取得（レコードがなければ0）
func (s *LedgerApplicationService) GetBalance(ctx context.Context, userID string) (*GetBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.GetBalance")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if !balance.ValidUserID(userID) {
		return nil, balance.ErrInvalidUserID
	}

	b, err := s.balanceRepo.FindByUserID(ctx, userID)
	if errors.Is(err, balance.ErrBalanceNotFound) {
		return &GetBalanceResponse{UserID: userID, Balance: 0}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to find balance", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to find balance: %w", err)
	}

	s.metrics.RecordBalance(ctx, userID, b.Amount())
	return &GetBalanceResponse{UserID: userID, Balance: b.Amount()}, nil
}

// AdjustBalance 残高を増減し、台帳に記録する
// 減算後の残高がマイナスになる場合は balance.InsufficientFundsError を返す
func (s *LedgerApplicationService) AdjustBalance(ctx context.Context, req *AdjustBalanceRequest) (*BalanceChange, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.AdjustBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("delta", req.Delta),
		attribute.String("transaction_type", req.Type.String()),
	)

	if req.Delta == 0 {
		return nil, balance.ErrInvalidDelta
	}
	if !req.Type.Valid() {
		return nil, transaction.ErrInvalidTransaction
	}

	result, err := s.mutate(ctx, req.UserID, req.Type, req.Metadata, func(b *balance.Balance) error {
		return b.Adjust(req.Delta)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, balance.ErrInsufficientFunds) {
			s.metrics.RecordRejection(ctx, "insufficient_funds")
			s.logger.Warn(ctx, "Insufficient funds", map[string]interface{}{
				"user_id": req.UserID,
				"delta":   req.Delta,
				"error":   err.Error(),
			})
		} else {
			s.logger.Error(ctx, "Failed to adjust balance", err, map[string]interface{}{
				"user_id": req.UserID,
				"delta":   req.Delta,
			})
			s.metrics.RecordError(ctx, "adjust_balance_failed")
		}
		return nil, err
	}

	s.logger.Debug(ctx, "Balance adjusted", map[string]interface{}{
		"user_id":        req.UserID,
		"transaction_id": result.TransactionID,
		"balance_before": result.BalanceBefore,
		"balance_after":  result.BalanceAfter,
	})
	return result, nil
}

// SetBalance 残高を無条件に上書きする（管理操作）
func (s *LedgerApplicationService) SetBalance(ctx context.Context, req *SetBalanceRequest) (*BalanceChange, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.SetBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
	)

	result, err := s.mutate(ctx, req.UserID, transaction.TransactionTypeAdminSet, req.Metadata, func(b *balance.Balance) error {
		return b.Set(req.Amount)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to set balance", err, map[string]interface{}{
			"user_id": req.UserID,
			"amount":  req.Amount,
		})
		return nil, err
	}

	s.logger.Info(ctx, "Balance set", map[string]interface{}{
		"user_id":        req.UserID,
		"transaction_id": result.TransactionID,
		"balance_before": result.BalanceBefore,
		"balance_after":  result.BalanceAfter,
	})
	return result, nil
}

// mutate 作業単位の中で残高を読み込み、変更を適用して台帳行と一緒に保存する
func (s *LedgerApplicationService) mutate(
	ctx context.Context,
	userID string,
	txType transaction.TransactionType,
	metadata map[string]interface{},
	apply func(b *balance.Balance) error,
) (*BalanceChange, error) {
	if !balance.ValidUserID(userID) {
		return nil, balance.ErrInvalidUserID
	}

	var result *BalanceChange
	err := s.uow.Run(ctx, []string{userID}, func(ctx context.Context) error {
		b, err := s.balanceRepo.FindByUserID(ctx, userID)
		if errors.Is(err, balance.ErrBalanceNotFound) {
			// 残高が存在しない場合は0で作成
			b = balance.MustNewBalance(userID, 0, 0)
			if err := s.balanceRepo.Create(ctx, b); err != nil {
				return fmt.Errorf("failed to create balance: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to find balance: %w", err)
		}

		balanceBefore := b.Amount()
		if err := apply(b); err != nil {
			return err
		}

		if err := s.balanceRepo.Save(ctx, b); err != nil {
			return fmt.Errorf("failed to save balance: %w", err)
		}

		txn, err := transaction.NewTransaction(
			s.newID(),
			userID,
			txType,
			balanceBefore,
			b.Amount(),
			metadata,
			s.clock.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to build transaction: %w", err)
		}
		if err := s.transactionRepo.Save(ctx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		result = &BalanceChange{
			TransactionID: txn.TransactionID(),
			UserID:        userID,
			BalanceBefore: balanceBefore,
			BalanceAfter:  b.Amount(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// メトリクス記録
	s.metrics.RecordTransaction(ctx, txType.String())
	s.metrics.RecordBalance(ctx, userID, result.BalanceAfter)
	return result, nil
}
