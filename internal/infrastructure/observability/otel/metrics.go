package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 残高変動の件数
	TransactionCount metric.Int64Counter

	// ユーザー残高
	Balance metric.Int64Gauge

	// 残高・所持数不足などで拒否された操作の件数
	RejectionCount metric.Int64Counter

	// ゲームの決着数
	GameRoundCount metric.Int64Counter

	// 連打抑止で拒否された件数
	CooldownRejectionCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	transactionCount, err := meter.Int64Counter(
		"ledger_transactions_total",
		metric.WithDescription("Total number of committed balance mutations"),
	)
	if err != nil {
		return nil, err
	}

	balance, err := meter.Int64Gauge(
		"ledger_balance",
		metric.WithDescription("Token balance after the last mutation"),
	)
	if err != nil {
		return nil, err
	}

	rejectionCount, err := meter.Int64Counter(
		"ledger_rejections_total",
		metric.WithDescription("Total number of operations rejected by a domain rule"),
	)
	if err != nil {
		return nil, err
	}

	gameRoundCount, err := meter.Int64Counter(
		"game_rounds_total",
		metric.WithDescription("Total number of resolved game rounds"),
	)
	if err != nil {
		return nil, err
	}

	cooldownRejectionCount, err := meter.Int64Counter(
		"cooldown_rejections_total",
		metric.WithDescription("Total number of actions rejected by the cooldown governor"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TransactionCount:       transactionCount,
		Balance:                balance,
		RejectionCount:         rejectionCount,
		GameRoundCount:         gameRoundCount,
		CooldownRejectionCount: cooldownRejectionCount,
		RequestCount:           requestCount,
		ResponseTime:           responseTime,
		ErrorCount:             errorCount,
	}, nil
}

// RecordTransaction 残高変動を記録
func (m *Metrics) RecordTransaction(ctx context.Context, transactionType string) {
	m.TransactionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("transaction_type", transactionType),
		),
	)
}

// RecordBalance 残高を記録
func (m *Metrics) RecordBalance(ctx context.Context, userID string, balance int64) {
	m.Balance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
}

// RecordRejection ドメインルールによる拒否を記録
func (m *Metrics) RecordRejection(ctx context.Context, reason string) {
	m.RejectionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("reason", reason),
		),
	)
}

// RecordGameRound ゲームの決着を記録
func (m *Metrics) RecordGameRound(ctx context.Context, game, outcome string) {
	m.GameRoundCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("game", game),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordCooldownRejection 連打抑止による拒否を記録
func (m *Metrics) RecordCooldownRejection(ctx context.Context, action string) {
	m.CooldownRejectionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
