package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat/distuv"

	"gamebot-server/internal/domain/game"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// Action 連打抑止の対象となるアクション種別
type Action string

const (
	ActionDice    Action = "dice"
	ActionPull    Action = "pull"
	ActionTarot   Action = "tarot"
	ActionWeather Action = "weather"
)

// Actions 全てのアクション種別
func Actions() []Action {
	return []Action{ActionDice, ActionPull, ActionTarot, ActionWeather}
}

// Policy アクションごとの抑止設定
type Policy struct {
	Window    time.Duration // 直近の実行を数える期間
	Threshold int           // Window 内でこの回数に達すると抑止される
	WaitLow   time.Duration // 待機時間の三角分布の下限
	WaitMode  time.Duration // 最頻値
	WaitHigh  time.Duration // 上限
}

// Validate 設定を検証
func (p Policy) Validate() error {
	if p.Window <= 0 || p.Threshold <= 0 {
		return fmt.Errorf("cooldown policy: window and threshold must be positive")
	}
	if !(p.WaitLow < p.WaitHigh && p.WaitLow <= p.WaitMode && p.WaitMode <= p.WaitHigh) {
		return fmt.Errorf("cooldown policy: wait must satisfy low <= mode <= high and low < high")
	}
	return nil
}

// Sampler 抑止時の待機時間を決める
type Sampler func(p Policy) time.Duration

// TriangularSampler 三角分布から待機時間を引く
func TriangularSampler(p Policy) time.Duration {
	d := distuv.NewTriangle(float64(p.WaitLow), float64(p.WaitHigh), float64(p.WaitMode), nil)
	return time.Duration(d.Rand())
}

type stateKey struct {
	userID string
	action Action
}

type state struct {
	recent      []time.Time
	escalatedAt time.Time
	wait        time.Duration
}

// Governor ユーザー×アクションごとの連打を抑止する
// 状態はメモリ上にのみ持ち、プロセス再起動でリセットされる
type Governor struct {
	mu       sync.Mutex
	clock    clock.Clock
	policies map[Action]Policy
	states   map[stateKey]*state
	sample   Sampler
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
}

// NewGovernor 新しいGovernorを作成
func NewGovernor(
	clk clock.Clock,
	policies map[Action]Policy,
	sample Sampler,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) (*Governor, error) {
	for action, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", action, err)
		}
	}
	if sample == nil {
		sample = TriangularSampler
	}
	return &Governor{
		clock:    clk,
		policies: policies,
		states:   make(map[stateKey]*state),
		sample:   sample,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("cooldown-governor"),
	}, nil
}

// Allow アクションの実行可否を判定し、許可した場合は実行として記録する
// 抑止中は game.RateLimitedError を返す
func (g *Governor) Allow(ctx context.Context, userID string, action Action) error {
	ctx, span := g.tracer.Start(ctx, "Governor.Allow")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("action", string(action)),
	)

	policy, ok := g.policies[action]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action)
	}

	retryAfter, allowed := g.check(stateKey{userID: userID, action: action}, policy)
	if allowed {
		return nil
	}

	span.SetAttributes(attribute.String("retry_after", retryAfter.String()))
	g.metrics.RecordCooldownRejection(ctx, string(action))
	g.logger.Info(ctx, "Action rate limited", map[string]interface{}{
		"user_id":     userID,
		"action":      string(action),
		"retry_after": retryAfter.String(),
	})
	return &game.RateLimitedError{Action: string(action), RetryAfter: retryAfter}
}

func (g *Governor) check(key stateKey, policy Policy) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	st, ok := g.states[key]
	if !ok {
		st = &state{}
		g.states[key] = st
	}

	if st.wait > 0 {
		until := st.escalatedAt.Add(st.wait)
		if now.Before(until) {
			return until.Sub(now), false
		}
		// 待機時間が明けたら履歴ごとリセットする
		st.recent = st.recent[:0]
		st.wait = 0
		st.escalatedAt = time.Time{}
	}

	cutoff := now.Add(-policy.Window)
	kept := st.recent[:0]
	for _, ts := range st.recent {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	st.recent = kept

	if len(st.recent) >= policy.Threshold {
		st.wait = g.sample(policy)
		st.escalatedAt = now
		return st.wait, false
	}

	st.recent = append(st.recent, now)
	return 0, true
}

// Sweep 期間外の履歴しか持たない状態を破棄する
func (g *Governor) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	removed := 0
	for key, st := range g.states {
		policy := g.policies[key.action]
		if st.wait > 0 && now.Before(st.escalatedAt.Add(st.wait)) {
			continue
		}
		if n := len(st.recent); n > 0 && st.recent[n-1].After(now.Add(-policy.Window)) {
			continue
		}
		delete(g.states, key)
		removed++
	}
	return removed
}

// RunSweeper ctx が終わるまで interval ごとに Sweep を実行する
func (g *Governor) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := g.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.Sweep(); n > 0 {
				g.logger.Debug(ctx, "Cooldown states swept", map[string]interface{}{
					"removed": n,
				})
			}
		}
	}
}
