package roulette

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/game"
	"gamebot-server/internal/domain/transaction"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

var testConfig = Config{
	BuyIn:           20,
	Payout:          30,
	Capacity:        6,
	Quorum:          3,
	Countdown:       25 * time.Second,
	EntryTTL:        time.Hour,
	PenaltyEffectID: "roulette_shot",
	PenaltyDuration: 10 * time.Minute,
	ResolveTimeout:  5 * time.Second,
}

type testEnv struct {
	engine   *Engine
	clock    *clock.Mock
	ledger   *fakeLedger
	wards    *fakeWards
	effects  *fakeEffects
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	env := &testEnv{
		clock:    clk,
		ledger:   newFakeLedger(),
		wards:    &fakeWards{wards: map[string]int{}},
		effects:  &fakeEffects{clock: clk, applied: map[string]string{}},
		notifier: &recordingNotifier{},
	}
	env.engine, err = NewEngine(testConfig, clk, env.ledger, env.wards, env.effects, env.notifier, otelinfra.NewLogger(nil), metrics)
	require.NoError(t, err)
	// 常に最初の参加者が脱落する
	env.engine.pick = func(int) int { return 0 }
	return env
}

func (env *testEnv) fund(users ...string) {
	for _, u := range users {
		env.ledger.balances[u] = 100
	}
}

func (env *testEnv) waitResolved(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return env.notifier.count() == n }, 2*time.Second, 5*time.Millisecond)
	env.engine.Wait()
}

func TestEngine_Join_ReachesCountdownAndResolves(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice", "bob", "carol")
	ctx := context.Background()

	first, err := env.engine.Join(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "collecting", first.Phase)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, int64(80), first.BalanceAfter)

	env.clock.Add(10 * time.Second)
	_, err = env.engine.Join(ctx, "bob")
	require.NoError(t, err)

	third, err := env.engine.Join(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "countdown", third.Phase)
	// 最初の参加から25秒後
	assert.Equal(t, env.clock.Now().Add(15*time.Second), third.ResolvesAt)

	env.clock.Add(14 * time.Second)
	assert.Equal(t, 0, env.notifier.count())

	env.clock.Add(time.Second)
	env.waitResolved(t, 1)

	status := env.engine.Status(ctx)
	assert.Equal(t, "idle", status.Phase)
	assert.Empty(t, status.Entries)
	require.NotNil(t, status.LastResult)

	res := status.LastResult
	assert.Equal(t, "alice", res.Victim)
	assert.True(t, res.PenaltyApplied)
	assert.Equal(t, "roulette_shot", res.PenaltyEffectID)
	assert.ElementsMatch(t, []string{"bob", "carol"}, res.Survivors)
	assert.Empty(t, res.Failures)

	assert.Equal(t, "roulette_shot", env.effects.effectOf("alice"))
	assert.Equal(t, int64(80), env.ledger.balance("alice"))
	assert.Equal(t, int64(110), env.ledger.balance("bob"))
	assert.Equal(t, int64(110), env.ledger.balance("carol"))
}

func TestEngine_Join_Rejections(t *testing.T) {
	t.Run("異常系: 参加費不足", func(t *testing.T) {
		env := newTestEnv(t)
		env.ledger.balances["alice"] = 19

		_, err := env.engine.Join(context.Background(), "alice")
		assert.ErrorIs(t, err, balance.ErrInsufficientFunds)

		status := env.engine.Status(context.Background())
		assert.Equal(t, "idle", status.Phase)
		assert.Empty(t, status.Entries)
		assert.Equal(t, int64(19), env.ledger.balance("alice"))
	})

	t.Run("異常系: 二重参加", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund("alice")

		_, err := env.engine.Join(context.Background(), "alice")
		require.NoError(t, err)
		_, err = env.engine.Join(context.Background(), "alice")
		assert.ErrorIs(t, err, game.ErrAlreadyQueued)
		assert.Equal(t, int64(80), env.ledger.balance("alice"))
	})

	t.Run("異常系: 7人目は満員", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()
		for i := 1; i <= 7; i++ {
			env.fund(fmt.Sprintf("user%d", i))
		}

		for i := 1; i <= 6; i++ {
			_, err := env.engine.Join(ctx, fmt.Sprintf("user%d", i))
			require.NoError(t, err)
		}
		_, err := env.engine.Join(ctx, "user7")
		assert.ErrorIs(t, err, game.ErrQueueFull)
		assert.Equal(t, int64(100), env.ledger.balance("user7"))
		assert.Len(t, env.engine.Status(ctx).Entries, 6)
	})

	t.Run("異常系: 抽選中は参加できない", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund("alice")
		env.engine.phase = PhaseSpinning

		_, err := env.engine.Join(context.Background(), "alice")
		assert.ErrorIs(t, err, game.ErrGameInProgress)
		assert.Equal(t, int64(100), env.ledger.balance("alice"))
	})
}

func TestEngine_Join_ResolvesImmediatelyWhenCountdownPassed(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice", "bob", "carol")
	ctx := context.Background()

	_, err := env.engine.Join(ctx, "alice")
	require.NoError(t, err)
	env.clock.Add(40 * time.Second)
	_, err = env.engine.Join(ctx, "bob")
	require.NoError(t, err)
	_, err = env.engine.Join(ctx, "carol")
	require.NoError(t, err)

	env.waitResolved(t, 1)
	assert.Equal(t, "idle", env.engine.Status(ctx).Phase)
}

func TestEngine_ExpiredEntryRefundedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice", "bob")
	ctx := context.Background()

	_, err := env.engine.Join(ctx, "alice")
	require.NoError(t, err)
	env.clock.Add(30 * time.Minute)
	_, err = env.engine.Join(ctx, "bob")
	require.NoError(t, err)

	env.clock.Add(30 * time.Minute)
	status := env.engine.Status(ctx)
	require.Len(t, status.Entries, 1)
	assert.Equal(t, "bob", status.Entries[0].UserID)
	assert.Equal(t, "collecting", status.Phase)
	assert.Equal(t, status.Entries[0].JoinedAt, status.StartedAt)

	// 何度状態を見ても返金は1回だけ
	env.engine.Status(ctx)
	_, err = env.engine.Join(ctx, "carol")
	assert.ErrorIs(t, err, balance.ErrInsufficientFunds)

	assert.Equal(t, int64(100), env.ledger.balance("alice"))
	assert.Equal(t, 1, env.ledger.count("alice", transaction.TransactionTypeRefund))

	env.clock.Add(30 * time.Minute)
	status = env.engine.Status(ctx)
	assert.Equal(t, "idle", status.Phase)
	assert.Equal(t, int64(100), env.ledger.balance("bob"))
}

func TestEngine_ExpiredEntryRefundRetriedAfterFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice")
	ctx := context.Background()

	_, err := env.engine.Join(ctx, "alice")
	require.NoError(t, err)

	env.ledger.failFor["alice"] = true
	env.clock.Add(time.Hour)
	assert.Len(t, env.engine.Status(ctx).Entries, 1)

	env.ledger.failFor["alice"] = false
	assert.Empty(t, env.engine.Status(ctx).Entries)
	assert.Equal(t, 1, env.ledger.count("alice", transaction.TransactionTypeRefund))
	assert.Equal(t, int64(100), env.ledger.balance("alice"))
}

func TestEngine_Run_Janitor(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice")

	_, err := env.engine.Join(context.Background(), "alice")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		env.engine.Run(ctx, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool {
		env.clock.Add(time.Minute)
		return env.ledger.balance("alice") == 100
	}, 2*time.Second, time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 1, env.ledger.count("alice", transaction.TransactionTypeRefund))
}

func TestEngine_Wards(t *testing.T) {
	t.Run("正常系: 脱落者の防御アイテムが消費され効果は付与されない", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund("alice", "bob", "carol")
		env.wards.wards["alice"] = 1
		ctx := context.Background()

		for _, u := range []string{"alice", "bob", "carol"} {
			_, err := env.engine.Join(ctx, u)
			require.NoError(t, err)
		}
		env.clock.Add(25 * time.Second)
		env.waitResolved(t, 1)

		res := env.engine.Status(ctx).LastResult
		assert.Equal(t, "alice", res.Victim)
		assert.Equal(t, "ward", res.WardConsumed)
		assert.False(t, res.PenaltyApplied)
		assert.Equal(t, 0, env.wards.count("alice"))
		assert.Empty(t, env.effects.effectOf("alice"))
	})

	t.Run("正常系: 全員が防御アイテムを持っていれば効果が付与され消費されない", func(t *testing.T) {
		env := newTestEnv(t)
		env.fund("alice", "bob", "carol")
		ctx := context.Background()
		for _, u := range []string{"alice", "bob", "carol"} {
			env.wards.wards[u] = 1
			_, err := env.engine.Join(ctx, u)
			require.NoError(t, err)
		}
		env.clock.Add(25 * time.Second)
		env.waitResolved(t, 1)

		res := env.engine.Status(ctx).LastResult
		assert.True(t, res.PenaltyApplied)
		assert.Empty(t, res.WardConsumed)
		assert.Equal(t, "roulette_shot", env.effects.effectOf("alice"))
		for _, u := range []string{"alice", "bob", "carol"} {
			assert.Equal(t, 1, env.wards.count(u), u)
		}
	})
}

func TestEngine_ResolutionCompletesDespiteFailures(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice", "bob", "carol")
	env.effects.fail = true
	ctx := context.Background()

	for _, u := range []string{"alice", "bob", "carol"} {
		_, err := env.engine.Join(ctx, u)
		require.NoError(t, err)
	}
	env.ledger.failFor["bob"] = true
	env.clock.Add(25 * time.Second)
	env.waitResolved(t, 1)

	status := env.engine.Status(ctx)
	assert.Equal(t, "idle", status.Phase)
	assert.ElementsMatch(t, []string{"penalty:alice", "payout:bob"}, status.LastResult.Failures)
	assert.Equal(t, int64(110), env.ledger.balance("carol"))

	// 次のゲームを始められる
	env.ledger.failFor["bob"] = false
	_, err := env.engine.Join(ctx, "bob")
	require.NoError(t, err)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseIdle, PhaseCollecting, true},
		{PhaseCollecting, PhaseCountdown, true},
		{PhaseCollecting, PhaseIdle, true},
		{PhaseCountdown, PhaseSpinning, true},
		{PhaseSpinning, PhaseResolved, true},
		{PhaseResolved, PhaseIdle, true},
		{PhaseIdle, PhaseSpinning, false},
		{PhaseCountdown, PhaseIdle, false},
		{PhaseSpinning, PhaseIdle, false},
		{PhaseResolved, PhaseCollecting, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig.Validate())

	bad := testConfig
	bad.Capacity = 2
	assert.Error(t, bad.Validate())

	bad = testConfig
	bad.PenaltyEffectID = ""
	assert.Error(t, bad.Validate())
}
