package roulette

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/game"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// Ledger 残高操作
type Ledger interface {
	AdjustBalance(ctx context.Context, req *ledger.AdjustBalanceRequest) (*ledger.BalanceChange, error)
}

// Wards 防御アイテム操作
type Wards interface {
	HoldsWard(ctx context.Context, userID string) (bool, error)
	ConsumeWard(ctx context.Context, userID string) (string, bool, error)
}

// Effects 状態効果操作
type Effects interface {
	SetActive(ctx context.Context, userID, effectID string, duration time.Duration) (*effect.ActiveEffect, error)
}

// Notifier 結果の通知先
type Notifier interface {
	RouletteResolved(ctx context.Context, result Result)
}

// Config ルーレットの設定
type Config struct {
	BuyIn           int64
	Payout          int64
	Capacity        int
	Quorum          int
	Countdown       time.Duration // 最初の参加から抽選までの時間
	EntryTTL        time.Duration // Collecting 中にこれより古い参加は返金して取り除く
	PenaltyEffectID string
	PenaltyDuration time.Duration
	ResolveTimeout  time.Duration
}

// Validate 設定を検証
func (c Config) Validate() error {
	switch {
	case c.BuyIn <= 0 || c.Payout < 0:
		return fmt.Errorf("roulette: buy-in must be positive and payout non-negative")
	case c.Quorum < 2 || c.Capacity < c.Quorum:
		return fmt.Errorf("roulette: need 2 <= quorum <= capacity")
	case c.Countdown <= 0 || c.EntryTTL <= 0 || c.PenaltyDuration <= 0 || c.ResolveTimeout <= 0:
		return fmt.Errorf("roulette: durations must be positive")
	case c.PenaltyEffectID == "":
		return fmt.Errorf("roulette: penalty effect id is required")
	}
	return nil
}

// Engine 参加者から1人を脱落させるルーレット。プロセスに1つ
type Engine struct {
	mu         sync.Mutex
	cfg        Config
	clock      clock.Clock
	ledger     Ledger
	wards      Wards
	effects    Effects
	notifier   Notifier
	pick       func(n int) int
	phase      Phase
	gameID     string
	entries    []Entry
	startedAt  time.Time
	timer      *clock.Timer
	lastResult *Result
	inflight   sync.WaitGroup
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
}

// NewEngine 新しいEngineを作成
func NewEngine(
	cfg Config,
	clk clock.Clock,
	ledgerService Ledger,
	wards Wards,
	effects Effects,
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
		wards:    wards,
		effects:  effects,
		notifier: notifier,
		pick:     rand.IntN,
		phase:    PhaseIdle,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("roulette-engine"),
	}, nil
}

// Join 参加費を引き落として参加待ちに加える
func (e *Engine) Join(ctx context.Context, userID string) (*JoinResponse, error) {
	ctx, span := e.tracer.Start(ctx, "RouletteEngine.Join")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pruneLocked(ctx)

	if err := e.admitLocked(userID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		e.metrics.RecordRejection(ctx, "roulette_"+rejectionReason(err))
		return nil, err
	}

	change, err := e.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
		UserID: userID,
		Delta:  -e.cfg.BuyIn,
		Type:   transaction.TransactionTypeBuyIn,
		Metadata: map[string]interface{}{
			"game": "roulette",
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	now := e.clock.Now()
	e.entries = append(e.entries, Entry{UserID: userID, JoinedAt: now, BuyIn: e.cfg.BuyIn})

	if e.phase == PhaseIdle {
		e.mustTransitionLocked(ctx, PhaseCollecting)
		e.gameID = uuid.NewString()
		e.startedAt = now
	}
	if e.phase == PhaseCollecting && len(e.entries) >= e.cfg.Quorum {
		e.mustTransitionLocked(ctx, PhaseCountdown)
		e.armLocked()
	}

	res := &JoinResponse{
		GameID:       e.gameID,
		Position:     len(e.entries),
		Phase:        e.phase.String(),
		BalanceAfter: change.BalanceAfter,
	}
	if e.phase == PhaseCountdown {
		res.ResolvesAt = e.startedAt.Add(e.cfg.Countdown)
	}

	e.logger.Info(ctx, "Roulette joined", map[string]interface{}{
		"user_id":  userID,
		"game_id":  e.gameID,
		"position": res.Position,
		"phase":    res.Phase,
	})
	return res, nil
}

// Status 現在の状態を返す
func (e *Engine) Status(ctx context.Context) *Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pruneLocked(ctx)

	st := &Status{
		GameID:     e.gameID,
		Phase:      e.phase.String(),
		Entries:    slices.Clone(e.entries),
		StartedAt:  e.startedAt,
		LastResult: e.lastResult,
	}
	if e.phase == PhaseCountdown {
		st.ResolvesAt = e.startedAt.Add(e.cfg.Countdown)
	}
	return st
}

// Run ctx が終わるまで interval ごとに期限切れの参加を返金する
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := e.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			e.pruneLocked(ctx)
			e.mu.Unlock()
		}
	}
}

// Wait 実行中の抽選が終わるまで待つ
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) admitLocked(userID string) error {
	switch e.phase {
	case PhaseSpinning, PhaseResolved:
		return game.ErrGameInProgress
	}
	if slices.ContainsFunc(e.entries, func(en Entry) bool { return en.UserID == userID }) {
		return game.ErrAlreadyQueued
	}
	if len(e.entries) >= e.cfg.Capacity {
		return game.ErrQueueFull
	}
	return nil
}

// pruneLocked Collecting 中の期限切れ参加を返金して取り除く
// 返金に失敗した参加は残し、次回再試行する
func (e *Engine) pruneLocked(ctx context.Context) {
	if e.phase != PhaseCollecting {
		return
	}

	cutoff := e.clock.Now().Add(-e.cfg.EntryTTL)
	kept := e.entries[:0]
	for _, en := range e.entries {
		if en.JoinedAt.After(cutoff) {
			kept = append(kept, en)
			continue
		}
		_, err := e.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
			UserID: en.UserID,
			Delta:  en.BuyIn,
			Type:   transaction.TransactionTypeRefund,
			Metadata: map[string]interface{}{
				"game":    "roulette",
				"game_id": e.gameID,
				"reason":  "expired",
			},
		})
		if err != nil {
			e.logger.Error(ctx, "Failed to refund expired roulette entry", err, map[string]interface{}{
				"user_id": en.UserID,
				"game_id": e.gameID,
			})
			kept = append(kept, en)
			continue
		}
		e.logger.Info(ctx, "Expired roulette entry refunded", map[string]interface{}{
			"user_id": en.UserID,
			"game_id": e.gameID,
		})
	}
	e.entries = kept

	if len(e.entries) == 0 {
		e.mustTransitionLocked(ctx, PhaseIdle)
		e.gameID = ""
		e.startedAt = time.Time{}
		return
	}
	e.startedAt = e.entries[0].JoinedAt
}

// armLocked 最初の参加から Countdown 後に抽選を予約する。既に過ぎていれば即座に抽選する
func (e *Engine) armLocked() {
	delay := e.startedAt.Add(e.cfg.Countdown).Sub(e.clock.Now())
	e.inflight.Add(1)
	if delay <= 0 {
		go e.fire()
		return
	}
	e.timer = e.clock.AfterFunc(delay, e.fire)
}

func (e *Engine) fire() {
	defer e.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ResolveTimeout)
	defer cancel()
	e.resolve(ctx)
}

// resolve 抽選して結果を反映する。台帳操作が失敗しても状態遷移は必ず完了させる
func (e *Engine) resolve(ctx context.Context) {
	ctx, span := e.tracer.Start(ctx, "RouletteEngine.Resolve")
	defer span.End()

	e.mu.Lock()
	if e.phase != PhaseCountdown {
		e.mu.Unlock()
		return
	}
	e.mustTransitionLocked(ctx, PhaseSpinning)
	e.timer = nil
	entries := slices.Clone(e.entries)
	gameID := e.gameID
	e.mu.Unlock()

	participants := make([]string, len(entries))
	for i, en := range entries {
		participants[i] = en.UserID
	}
	victim := participants[e.pick(len(participants))]

	res := Result{
		GameID:       gameID,
		Participants: participants,
		Victim:       victim,
		Payout:       e.cfg.Payout,
	}
	span.SetAttributes(
		attribute.String("game_id", gameID),
		attribute.String("victim", victim),
		attribute.Int("participants", len(participants)),
	)

	e.applyPenalty(ctx, &res)

	for _, p := range participants {
		if p == victim {
			continue
		}
		res.Survivors = append(res.Survivors, p)
		if e.cfg.Payout == 0 {
			continue
		}
		_, err := e.ledger.AdjustBalance(ctx, &ledger.AdjustBalanceRequest{
			UserID: p,
			Delta:  e.cfg.Payout,
			Type:   transaction.TransactionTypePayout,
			Metadata: map[string]interface{}{
				"game":    "roulette",
				"game_id": gameID,
			},
		})
		if err != nil {
			e.fail(ctx, &res, "payout:"+p, err)
		}
	}
	res.ResolvedAt = e.clock.Now()

	e.mu.Lock()
	e.mustTransitionLocked(ctx, PhaseResolved)
	e.lastResult = &res
	e.entries = nil
	e.gameID = ""
	e.startedAt = time.Time{}
	e.mustTransitionLocked(ctx, PhaseIdle)
	e.mu.Unlock()

	outcome := "penalized"
	if res.WardConsumed != "" {
		outcome = "warded"
	}
	e.metrics.RecordGameRound(ctx, "roulette", outcome)
	e.logger.Info(ctx, "Roulette resolved", map[string]interface{}{
		"game_id":       gameID,
		"victim":        victim,
		"ward_consumed": res.WardConsumed,
		"survivors":     len(res.Survivors),
		"failures":      len(res.Failures),
	})
	if e.notifier != nil {
		e.notifier.RouletteResolved(ctx, res)
	}
}

// applyPenalty 脱落者に効果を付与する
// 脱落者が防御アイテムを持っていれば1つ消費して防ぐ。ただし全員が持っている場合は防げず、消費もしない
func (e *Engine) applyPenalty(ctx context.Context, res *Result) {
	warded := 0
	victimWarded := false
	for _, p := range res.Participants {
		held, err := e.wards.HoldsWard(ctx, p)
		if err != nil {
			e.fail(ctx, res, "holds_ward:"+p, err)
			continue
		}
		if held {
			warded++
			if p == res.Victim {
				victimWarded = true
			}
		}
	}

	if victimWarded && warded < len(res.Participants) {
		wardID, consumed, err := e.wards.ConsumeWard(ctx, res.Victim)
		if err != nil {
			e.fail(ctx, res, "consume_ward:"+res.Victim, err)
		}
		if consumed {
			res.WardConsumed = wardID
			return
		}
	}

	applied, err := e.effects.SetActive(ctx, res.Victim, e.cfg.PenaltyEffectID, e.cfg.PenaltyDuration)
	if err != nil {
		e.fail(ctx, res, "penalty:"+res.Victim, err)
		return
	}
	res.PenaltyApplied = true
	res.PenaltyEffectID = applied.EffectID()
	res.PenaltyExpiresAt = applied.ExpiresAt()
}

func (e *Engine) fail(ctx context.Context, res *Result, op string, err error) {
	res.Failures = append(res.Failures, op)
	e.metrics.RecordError(ctx, "roulette_resolution")
	e.logger.Error(ctx, "Roulette resolution step failed", err, map[string]interface{}{
		"game_id": res.GameID,
		"op":      op,
	})
}

// mustTransitionLocked 遷移表にない遷移はプログラムの誤りとして記録し、状態は変えない
func (e *Engine) mustTransitionLocked(ctx context.Context, to Phase) {
	if !canTransition(e.phase, to) {
		e.logger.Error(ctx, "Invalid roulette transition", transitionError(e.phase, to), nil)
		return
	}
	e.phase = to
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, game.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, game.ErrAlreadyQueued):
		return "already_queued"
	case errors.Is(err, game.ErrQueueFull):
		return "queue_full"
	default:
		return "other"
	}
}
