package history

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// HistoryApplicationService 履歴アプリケーションサービス
type HistoryApplicationService struct {
	transactionRepo transaction.TransactionRepository
	logger          *otelinfra.Logger
	tracer          trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	transactionRepo transaction.TransactionRepository,
	logger *otelinfra.Logger,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		transactionRepo: transactionRepo,
		logger:          logger,
		tracer:          otel.Tracer("history-service"),
	}
}

// GetTransactionHistory トランザクション履歴を新しい順に取得
func (s *HistoryApplicationService) GetTransactionHistory(ctx context.Context, req *GetTransactionHistoryRequest) (*GetTransactionHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetTransactionHistory")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
		attribute.String("transaction_type", req.TransactionType),
	)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := max(req.Offset, 0)

	// 1件多く取得して続きがあるかを判定する
	var (
		transactions []*transaction.Transaction
		err          error
	)
	if req.TransactionType != "" {
		transactionType, typeErr := transaction.NewTransactionType(req.TransactionType)
		if typeErr != nil {
			span.RecordError(typeErr)
			span.SetStatus(otelcodes.Error, typeErr.Error())
			return nil, typeErr
		}
		transactions, err = s.transactionRepo.FindByUserIDAndType(ctx, req.UserID, transactionType, limit+1, offset)
	} else {
		transactions, err = s.transactionRepo.FindByUserID(ctx, req.UserID, limit+1, offset)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to get transaction history", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}

	hasMore := len(transactions) > limit
	if hasMore {
		transactions = transactions[:limit]
	}

	s.logger.Debug(ctx, "Transaction history fetched", map[string]interface{}{
		"user_id": req.UserID,
		"count":   len(transactions),
	})

	return &GetTransactionHistoryResponse{
		Transactions: transactions,
		Limit:        limit,
		Offset:       offset,
		HasMore:      hasMore,
	}, nil
}
