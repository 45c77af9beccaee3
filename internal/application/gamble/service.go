package gamble

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/cooldown"
	"gamebot-server/internal/application/ledger"
	"gamebot-server/internal/application/unitofwork"
	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/ceelo"
	"gamebot-server/internal/domain/game"
	"gamebot-server/internal/domain/slots"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// Ledger 残高操作
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (*ledger.GetBalanceResponse, error)
	AdjustBalance(ctx context.Context, req *ledger.AdjustBalanceRequest) (*ledger.BalanceChange, error)
}

// Gate 連打抑止
type Gate interface {
	Allow(ctx context.Context, userID string, action cooldown.Action) error
}

// Roller 乱数源
type Roller interface {
	IntN(n int) int
	Float64() float64
}

// globalRoller math/rand/v2 のトップレベル関数（並行呼び出し可）
type globalRoller struct{}

func (globalRoller) IntN(n int) int   { return rand.IntN(n) }
func (globalRoller) Float64() float64 { return rand.Float64() }

// GambleApplicationService サイコロとスロット
// 抽選は作業単位の外で1回だけ行い、賭け金の引き落としと払い戻しは1つの作業単位で行う
type GambleApplicationService struct {
	ledger  Ledger
	gate    Gate
	uow     *unitofwork.Runner
	machine slots.Machine
	roller  Roller
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewGambleApplicationService 新しいGambleApplicationServiceを作成
// roller が nil の場合は math/rand/v2 を使う
func NewGambleApplicationService(
	ledgerService Ledger,
	gate Gate,
	uow *unitofwork.Runner,
	machine slots.Machine,
	roller Roller,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) (*GambleApplicationService, error) {
	if err := machine.Validate(); err != nil {
		return nil, err
	}
	if roller == nil {
		roller = globalRoller{}
	}
	return &GambleApplicationService{
		ledger:  ledgerService,
		gate:    gate,
		uow:     uow,
		machine: machine,
		roller:  roller,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("gamble-service"),
	}, nil
}

// PlayDice 親とチンチロで勝負する
func (s *GambleApplicationService) PlayDice(ctx context.Context, req *DiceRequest) (*DiceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "GambleApplicationService.PlayDice")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("bet", req.Bet),
	)

	if req.Bet <= 0 {
		return nil, game.ErrInvalidBet
	}
	if err := s.ensureFunds(ctx, req.UserID, req.Bet); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if err := s.gate.Allow(ctx, req.UserID, cooldown.ActionDice); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	player, playerThrows := ceelo.Roll(s.roller)
	house, houseThrows := ceelo.Roll(s.roller)
	settlement := ceelo.Settle(req.Bet, player, house)

	res := &DiceResponse{
		Player:       player,
		PlayerThrows: playerThrows,
		House:        house,
		HouseThrows:  houseThrows,
		Outcome:      settlement.Outcome.String(),
		Bet:          req.Bet,
		Credit:       settlement.Credit,
	}

	metadata := map[string]interface{}{
		"game":    "ceelo",
		"player":  player.Dice[:],
		"house":   house.Dice[:],
		"outcome": res.Outcome,
	}
	balanceAfter, err := s.settle(ctx, req.UserID, req.Bet, settlement.Credit, metadata)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	res.BalanceAfter = balanceAfter

	s.metrics.RecordGameRound(ctx, "ceelo", res.Outcome)
	s.logger.Info(ctx, "Dice round settled", map[string]interface{}{
		"user_id":       req.UserID,
		"bet":           req.Bet,
		"player":        player.Kind.String(),
		"house":         house.Kind.String(),
		"outcome":       res.Outcome,
		"credit":        res.Credit,
		"balance_after": balanceAfter,
	})
	return res, nil
}

// PlaySlots スロットを1回回す
func (s *GambleApplicationService) PlaySlots(ctx context.Context, userID string) (*SlotsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "GambleApplicationService.PlaySlots")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if err := s.ensureFunds(ctx, userID, s.machine.Cost); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if err := s.gate.Allow(ctx, userID, cooldown.ActionPull); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	result := s.machine.Spin(s.roller)
	metadata := map[string]interface{}{
		"game":  "slots",
		"reels": result.Reels[:],
		"tier":  string(result.Tier),
	}
	balanceAfter, err := s.settle(ctx, userID, s.machine.Cost, result.Payout, metadata)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	s.metrics.RecordGameRound(ctx, "slots", string(result.Tier))
	s.logger.Info(ctx, "Slots round settled", map[string]interface{}{
		"user_id":       userID,
		"tier":          string(result.Tier),
		"payout":        result.Payout,
		"balance_after": balanceAfter,
	})
	return &SlotsResponse{
		Reels:        result.Reels,
		Tier:         string(result.Tier),
		Cost:         s.machine.Cost,
		Payout:       result.Payout,
		BalanceAfter: balanceAfter,
	}, nil
}

// ensureFunds 賭け金に足りない挑戦で連打抑止の枠を消費しないよう、先に残高を確かめる
// 確認後に残高が減った場合は settle の引き落としで失敗する
func (s *GambleApplicationService) ensureFunds(ctx context.Context, userID string, stake int64) error {
	if stake <= 0 {
		return nil
	}
	res, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	if res.Balance < stake {
		return &balance.InsufficientFundsError{Required: stake, Actual: res.Balance}
	}
	return nil
}

// settle 賭け金の引き落としと払い戻しを1つの作業単位で行う
func (s *GambleApplicationService) settle(ctx context.Context, userID string, stake, credit int64, metadata map[string]interface{}) (int64, error) {
	var balanceAfter int64
	err := s.uow.Run(ctx, []string{userID}, func(ctx context.Context) error {
		debit, err := s.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
			UserID:   userID,
			Delta:    -stake,
			Type:     transaction.TransactionTypeWager,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}
		balanceAfter = debit.BalanceAfter

		if credit > 0 {
			payout, err := s.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
				UserID:   userID,
				Delta:    credit,
				Type:     transaction.TransactionTypeWinnings,
				Metadata: metadata,
			})
			if err != nil {
				return fmt.Errorf("failed to credit winnings: %w", err)
			}
			balanceAfter = payout.BalanceAfter
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balanceAfter, nil
}
