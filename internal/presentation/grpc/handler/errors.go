package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/inventory"
	"gamebot-server/internal/domain/transaction"
)

// toStatus ドメインエラーをgRPCステータスに変換
func toStatus(err error) error {
	switch {
	case errors.Is(err, transaction.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, balance.ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, balance.ErrInvalidUserID),
		errors.Is(err, inventory.ErrInvalidUserID),
		errors.Is(err, balance.ErrInvalidDelta),
		errors.Is(err, balance.ErrAmountTooLarge),
		errors.Is(err, balance.ErrBalanceOutOfRange),
		errors.Is(err, transaction.ErrInvalidTransaction):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, transaction.ErrConcurrentUpdate):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
