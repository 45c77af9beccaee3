package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gamebot-server/internal/application/battle"
	"gamebot-server/internal/application/roulette"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

func TestLogNotifier_RouletteResolved(t *testing.T) {
	tests := []struct {
		name      string
		result    roulette.Result
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name:      "正常系: 結果を出力",
			result:    roulette.Result{GameID: "g1", Victim: "alice", Survivors: []string{"bob"}, PenaltyApplied: true},
			wantLevel: zapcore.InfoLevel,
			wantMsg:   "Roulette result published",
		},
		{
			name:      "正常系: 失敗があれば警告",
			result:    roulette.Result{GameID: "g1", Victim: "alice", Failures: []string{"payout:bob"}},
			wantLevel: zapcore.WarnLevel,
			wantMsg:   "Roulette result published with failures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			n := NewLogNotifier(otelinfra.NewLogger(zap.New(core)))

			n.RouletteResolved(context.Background(), tt.result)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, "alice", entry.ContextMap()["victim"])
		})
	}
}

func TestLogNotifier_BattleResolved(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLogNotifier(otelinfra.NewLogger(zap.New(core)))

	n.BattleResolved(context.Background(), battle.Outcome{
		BattleID:   "b1",
		Challenger: "alice",
		Opponent:   "bob",
		Kind:       battle.OutcomeChallengerWon,
		Winner:     "alice",
		Pot:        80,
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "challenger_won", entry.ContextMap()["outcome"])
	assert.Equal(t, int64(80), entry.ContextMap()["pot"])
}
