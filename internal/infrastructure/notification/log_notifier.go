package notification

import (
	"context"

	"gamebot-server/internal/application/battle"
	"gamebot-server/internal/application/roulette"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// LogNotifier ゲーム結果をログに出力する通知先
type LogNotifier struct {
	logger *otelinfra.Logger
}

// NewLogNotifier 新しいLogNotifierを作成
func NewLogNotifier(logger *otelinfra.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// RouletteResolved ルーレットの結果を通知
func (n *LogNotifier) RouletteResolved(ctx context.Context, result roulette.Result) {
	fields := map[string]interface{}{
		"game_id":         result.GameID,
		"participants":    result.Participants,
		"victim":          result.Victim,
		"survivors":       result.Survivors,
		"payout":          result.Payout,
		"penalty_applied": result.PenaltyApplied,
	}
	if result.WardConsumed != "" {
		fields["ward_consumed"] = result.WardConsumed
	}
	if len(result.Failures) > 0 {
		fields["failures"] = result.Failures
		n.logger.Warn(ctx, "Roulette result published with failures", fields)
		return
	}
	n.logger.Info(ctx, "Roulette result published", fields)
}

// BattleResolved 対戦の結果を通知
func (n *LogNotifier) BattleResolved(ctx context.Context, outcome battle.Outcome) {
	fields := map[string]interface{}{
		"battle_id":  outcome.BattleID,
		"challenger": outcome.Challenger,
		"opponent":   outcome.Opponent,
		"outcome":    string(outcome.Kind),
		"winner":     outcome.Winner,
		"pot":        outcome.Pot,
		"refunded":   outcome.Refunded,
	}
	if len(outcome.Failures) > 0 {
		fields["failures"] = outcome.Failures
		n.logger.Warn(ctx, "Battle result published with failures", fields)
		return
	}
	n.logger.Info(ctx, "Battle result published", fields)
}
