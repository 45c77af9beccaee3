package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/domain/transaction"
)

// ErrLockNotHeld ネストした作業単位が外側で保持していないユーザーに触れようとした
var ErrLockNotHeld = errors.New("unit of work: user lock not held by enclosing unit")

type unitKey struct{}

// Runner ユーザー単位のロックとDBトランザクションを組み合わせた作業単位を実行する
//
// 同一ユーザーへの操作は直列化され、異なるユーザーへの操作は並行に進む。
// 楽観的ロックの競合（transaction.ErrConcurrentUpdate）はトランザクション全体をやり直す。
type Runner struct {
	txManager  transaction.TransactionManager
	locks      *userLocks
	tracer     trace.Tracer
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// NewRunner 新しいRunnerを作成
func NewRunner(txManager transaction.TransactionManager) *Runner {
	return &Runner{
		txManager:  txManager,
		locks:      newUserLocks(),
		tracer:     otel.Tracer("unit-of-work"),
		maxRetries: 5,
		backoff: func(attempt int) time.Duration {
			// 指数バックオフ
			return time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
		},
	}
}

// Run userIDs のロックを取得し、1つのトランザクション内で fn を実行する
// ctx が既に作業単位の中にある場合は外側の作業単位に参加する。その場合 userIDs は外側で保持済みでなければならない
func (r *Runner) Run(ctx context.Context, userIDs []string, fn func(ctx context.Context) error) error {
	users := normalize(userIDs)

	if held, ok := ctx.Value(unitKey{}).([]string); ok {
		for _, u := range users {
			if _, found := slices.BinarySearch(held, u); !found {
				return fmt.Errorf("%w: %s", ErrLockNotHeld, u)
			}
		}
		return fn(ctx)
	}

	ctx, span := r.tracer.Start(ctx, "UnitOfWork.Run")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("user_ids", users))

	// デッドロックを避けるため常にソート順で取得する
	acquired := make([]string, 0, len(users))
	defer func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			r.locks.release(acquired[i])
		}
	}()
	for _, u := range users {
		if err := r.locks.acquire(ctx, u); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to acquire lock for %s: %w", u, err)
		}
		acquired = append(acquired, u)
	}

	unitCtx := context.WithValue(ctx, unitKey{}, users)

	var err error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = r.txManager.WithTransaction(unitCtx, fn)
		if !errors.Is(err, transaction.ErrConcurrentUpdate) {
			break
		}
		span.AddEvent("optimistic lock conflict", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	span.SetStatus(otelcodes.Ok, "committed")
	return nil
}

// InUnit ctx が作業単位の中にあるかを返す
func InUnit(ctx context.Context) bool {
	_, ok := ctx.Value(unitKey{}).([]string)
	return ok
}

func normalize(userIDs []string) []string {
	users := slices.Clone(userIDs)
	slices.Sort(users)
	return slices.Compact(users)
}
