package battle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/game"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// Ledger 残高操作
type Ledger interface {
	AdjustBalance(ctx context.Context, req *ledger.AdjustBalanceRequest) (*ledger.BalanceChange, error)
}

// Notifier 結果の通知先
type Notifier interface {
	BattleResolved(ctx context.Context, outcome Outcome)
}

// Config 対戦の設定
type Config struct {
	ResponseWindow time.Duration
	MaxWager       int64
	ResolveTimeout time.Duration
}

// Validate 設定を検証
func (c Config) Validate() error {
	if c.ResponseWindow <= 0 || c.ResolveTimeout <= 0 {
		return fmt.Errorf("battle: durations must be positive")
	}
	if c.MaxWager <= 0 {
		return fmt.Errorf("battle: max wager must be positive")
	}
	return nil
}

// Engine 2人の対戦。プロセスに1つで、同時に1戦のみ
type Engine struct {
	mu          sync.Mutex
	cfg         Config
	clock       clock.Clock
	ledger      Ledger
	notifier    Notifier
	flip        func() bool // true なら挑戦者の勝ち
	phase       Phase
	battleID    string
	challenger  string
	opponent    string
	wager       int64
	startedAt   time.Time
	timer       *clock.Timer
	outcomes    chan Outcome
	lastOutcome *Outcome
	inflight    sync.WaitGroup
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
}

// NewEngine 新しいEngineを作成
func NewEngine(
	cfg Config,
	clk clock.Clock,
	ledgerService Ledger,
	notifier Notifier,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		clock:    clk,
		ledger:   ledgerService,
		notifier: notifier,
		flip:     func() bool { return rand.IntN(2) == 0 },
		phase:    PhaseIdle,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("battle-engine"),
	}, nil
}

// Start 挑戦者の賭け金を預かり、相手の応答を待つ
func (e *Engine) Start(ctx context.Context, challenger, opponent string, wager int64) (*StartResponse, error) {
	ctx, span := e.tracer.Start(ctx, "BattleEngine.Start")
	defer span.End()

	span.SetAttributes(
		attribute.String("challenger", challenger),
		attribute.String("opponent", opponent),
		attribute.Int64("wager", wager),
	)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.admitLocked(challenger, opponent, wager); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	battleID := uuid.NewString()
	change, err := e.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
		UserID: challenger,
		Delta:  -wager,
		Type:   transaction.TransactionTypeWager,
		Metadata: map[string]interface{}{
			"game":      "battle",
			"battle_id": battleID,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	e.mustTransitionLocked(ctx, PhaseActive)
	e.battleID = battleID
	e.challenger = challenger
	e.opponent = opponent
	e.wager = wager
	e.startedAt = e.clock.Now()
	e.outcomes = make(chan Outcome, 1)

	e.inflight.Add(1)
	e.timer = e.clock.AfterFunc(e.cfg.ResponseWindow, func() { e.expire(battleID) })

	e.logger.Info(ctx, "Battle started", map[string]interface{}{
		"battle_id":  battleID,
		"challenger": challenger,
		"opponent":   opponent,
		"wager":      wager,
	})

	return &StartResponse{
		BattleID:     battleID,
		ExpiresAt:    e.startedAt.Add(e.cfg.ResponseWindow),
		BalanceAfter: change.BalanceAfter,
		Outcome:      e.outcomes,
	}, nil
}

// Deliver 参加者のイベントを処理し、決着した結果を返す
func (e *Engine) Deliver(ctx context.Context, ev Event) (*Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "BattleEngine.Deliver")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", ev.UserID),
		attribute.String("event", string(ev.Kind)),
	)

	e.mu.Lock()
	if err := e.checkEventLocked(ev); err != nil {
		e.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 相手の賭け金はロック中に引き落とす。失敗しても対戦は続く
	if ev.Kind == EventAccept {
		_, err := e.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
			UserID: e.opponent,
			Delta:  -e.wager,
			Type:   transaction.TransactionTypeWager,
			Metadata: map[string]interface{}{
				"game":      "battle",
				"battle_id": e.battleID,
			},
		})
		if err != nil {
			e.mu.Unlock()
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	e.inflight.Add(1)
	defer e.inflight.Done()
	out := e.claimLocked(ctx)
	e.mu.Unlock()

	switch ev.Kind {
	case EventAccept:
		out.Pot = 2 * out.Wager
		if e.flip() {
			out.Kind, out.Winner = OutcomeChallengerWon, out.Challenger
		} else {
			out.Kind, out.Winner = OutcomeOpponentWon, out.Opponent
		}
		e.credit(ctx, &out, out.Winner, out.Pot, transaction.TransactionTypeWinnings)
	case EventDecline:
		out.Kind = OutcomeDeclined
		e.refund(ctx, &out)
	case EventWithdraw:
		out.Kind = OutcomeWithdrawn
		e.refund(ctx, &out)
	}

	e.finish(ctx, out)
	return &out, nil
}

// Status 現在の状態を返す
func (e *Engine) Status(ctx context.Context) *Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := &Status{
		BattleID:    e.battleID,
		Phase:       e.phase.String(),
		Challenger:  e.challenger,
		Opponent:    e.opponent,
		Wager:       e.wager,
		StartedAt:   e.startedAt,
		LastOutcome: e.lastOutcome,
	}
	if e.phase == PhaseActive {
		st.ExpiresAt = e.startedAt.Add(e.cfg.ResponseWindow)
	}
	return st
}

// Wait 実行中の決着処理が終わるまで待つ
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) admitLocked(challenger, opponent string, wager int64) error {
	if !canTransition(e.phase, PhaseActive) {
		return game.ErrGameInProgress
	}
	if opponent == "" || challenger == opponent {
		return game.ErrInvalidOpponent
	}
	if wager <= 0 || wager > e.cfg.MaxWager {
		return fmt.Errorf("%w: wager must be between 1 and %d", game.ErrInvalidBet, e.cfg.MaxWager)
	}
	return nil
}

func (e *Engine) checkEventLocked(ev Event) error {
	if e.phase != PhaseActive {
		return game.ErrNoActiveGame
	}
	switch ev.Kind {
	case EventAccept, EventDecline:
		if ev.UserID != e.opponent {
			return game.ErrNotParticipant
		}
	case EventWithdraw:
		if ev.UserID != e.challenger {
			return game.ErrNotParticipant
		}
	default:
		return fmt.Errorf("%w: unknown battle event %q", game.ErrInvalidTransition, ev.Kind)
	}
	return nil
}

// claimLocked Active から Resolved へ進め、決着処理を1つに限定する
func (e *Engine) claimLocked(ctx context.Context) Outcome {
	e.mustTransitionLocked(ctx, PhaseResolved)
	if e.timer != nil && e.timer.Stop() {
		// 止めたタイマーの分
		e.inflight.Done()
	}
	e.timer = nil
	return Outcome{
		BattleID:   e.battleID,
		Challenger: e.challenger,
		Opponent:   e.opponent,
		Wager:      e.wager,
	}
}

// expire 応答がないまま時間切れになった対戦を返金して終える
func (e *Engine) expire(battleID string) {
	defer e.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ResolveTimeout)
	defer cancel()

	e.mu.Lock()
	if e.phase != PhaseActive || e.battleID != battleID {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	out := e.claimLocked(ctx)
	e.mu.Unlock()

	out.Kind = OutcomeTimedOut
	e.refund(ctx, &out)
	e.finish(ctx, out)
}

func (e *Engine) refund(ctx context.Context, out *Outcome) {
	if e.credit(ctx, out, out.Challenger, out.Wager, transaction.TransactionTypeRefund) {
		out.Refunded = out.Wager
	}
}

func (e *Engine) credit(ctx context.Context, out *Outcome, userID string, amount int64, t transaction.TransactionType) bool {
	_, err := e.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
		UserID: userID,
		Delta:  amount,
		Type:   t,
		Metadata: map[string]interface{}{
			"game":      "battle",
			"battle_id": out.BattleID,
		},
	})
	if err != nil {
		op := string(t) + ":" + userID
		out.Failures = append(out.Failures, op)
		e.metrics.RecordError(ctx, "battle_resolution")
		e.logger.Error(ctx, "Battle resolution step failed", err, map[string]interface{}{
			"battle_id": out.BattleID,
			"op":        op,
		})
		return false
	}
	return true
}

func (e *Engine) mustTransitionLocked(ctx context.Context, to Phase) {
	if !canTransition(e.phase, to) {
		e.logger.Error(ctx, "Invalid battle transition", transitionError(e.phase, to), nil)
		return
	}
	e.phase = to
}

// finish 結果を記録して Idle に戻し、通知する
func (e *Engine) finish(ctx context.Context, out Outcome) {
	out.ResolvedAt = e.clock.Now()

	e.mu.Lock()
	outcomes := e.outcomes
	e.lastOutcome = &out
	e.mustTransitionLocked(ctx, PhaseIdle)
	e.battleID = ""
	e.challenger = ""
	e.opponent = ""
	e.wager = 0
	e.startedAt = time.Time{}
	e.outcomes = nil
	e.mu.Unlock()

	outcomes <- out
	close(outcomes)

	e.metrics.RecordGameRound(ctx, "battle", string(out.Kind))
	e.logger.Info(ctx, "Battle resolved", map[string]interface{}{
		"battle_id": out.BattleID,
		"outcome":   string(out.Kind),
		"winner":    out.Winner,
		"failures":  len(out.Failures),
	})
	if e.notifier != nil {
		e.notifier.BattleResolved(ctx, out)
	}
}
