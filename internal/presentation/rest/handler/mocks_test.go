package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	battleapp "gamebot-server/internal/application/battle"
	"gamebot-server/internal/application/cooldown"
	gambleapp "gamebot-server/internal/application/gamble"
	historyapp "gamebot-server/internal/application/history"
	ledgerapp "gamebot-server/internal/application/ledger"
	rouletteapp "gamebot-server/internal/application/roulette"
	shopapp "gamebot-server/internal/application/shop"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/item"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
	restmiddleware "gamebot-server/internal/presentation/rest/middleware"
)

// serve ハンドラーをエラーハンドリングミドルウェア越しに実行する
func serve(t *testing.T, handler echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	err := restmiddleware.ErrorHandlerMiddleware(otelinfra.NewLogger(nil))(handler)(c)
	require.NoError(t, err)
	return rec
}

// MockLedgerService モック残高サービス
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID string) (*ledgerapp.GetBalanceResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.GetBalanceResponse), args.Error(1)
}

func (m *MockLedgerService) AdjustBalance(ctx context.Context, req *ledgerapp.AdjustBalanceRequest) (*ledgerapp.BalanceChange, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.BalanceChange), args.Error(1)
}

func (m *MockLedgerService) SetBalance(ctx context.Context, req *ledgerapp.SetBalanceRequest) (*ledgerapp.BalanceChange, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.BalanceChange), args.Error(1)
}

// MockInventoryService モック所持品サービス
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) GetAll(ctx context.Context, userID string) (map[string]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockEffectService モック状態効果サービス
type MockEffectService struct {
	mock.Mock
}

func (m *MockEffectService) GetActive(ctx context.Context, userID string) (*effect.ActiveEffect, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*effect.ActiveEffect), args.Error(1)
}

func (m *MockEffectService) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockShopService モックショップサービス
type MockShopService struct {
	mock.Mock
}

func (m *MockShopService) Catalog() *item.Catalog {
	args := m.Called()
	return args.Get(0).(*item.Catalog)
}

func (m *MockShopService) Purchase(ctx context.Context, req *shopapp.PurchaseRequest) (*shopapp.PurchaseResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopapp.PurchaseResponse), args.Error(1)
}

func (m *MockShopService) Consume(ctx context.Context, userID, itemID string) (*shopapp.ConsumeResponse, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopapp.ConsumeResponse), args.Error(1)
}

func (m *MockShopService) ApplyCurse(ctx context.Context, req *shopapp.ApplyCurseRequest) (*shopapp.ApplyCurseResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopapp.ApplyCurseResponse), args.Error(1)
}

func (m *MockShopService) GrantItem(ctx context.Context, userID, itemID string, quantity int64) (int64, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	return args.Get(0).(int64), args.Error(1)
}

// MockGambleService モックギャンブルサービス
type MockGambleService struct {
	mock.Mock
}

func (m *MockGambleService) PlayDice(ctx context.Context, req *gambleapp.DiceRequest) (*gambleapp.DiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gambleapp.DiceResponse), args.Error(1)
}

func (m *MockGambleService) PlaySlots(ctx context.Context, userID string) (*gambleapp.SlotsResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gambleapp.SlotsResponse), args.Error(1)
}

// MockCooldownGate モック連打抑止
type MockCooldownGate struct {
	mock.Mock
}

func (m *MockCooldownGate) Allow(ctx context.Context, userID string, action cooldown.Action) error {
	args := m.Called(ctx, userID, action)
	return args.Error(0)
}

// MockRouletteEngine モックルーレット
type MockRouletteEngine struct {
	mock.Mock
}

func (m *MockRouletteEngine) Join(ctx context.Context, userID string) (*rouletteapp.JoinResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rouletteapp.JoinResponse), args.Error(1)
}

func (m *MockRouletteEngine) Status(ctx context.Context) *rouletteapp.Status {
	args := m.Called(ctx)
	return args.Get(0).(*rouletteapp.Status)
}

// MockBattleEngine モック対戦
type MockBattleEngine struct {
	mock.Mock
}

func (m *MockBattleEngine) Start(ctx context.Context, challenger, opponent string, wager int64) (*battleapp.StartResponse, error) {
	args := m.Called(ctx, challenger, opponent, wager)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*battleapp.StartResponse), args.Error(1)
}

func (m *MockBattleEngine) Deliver(ctx context.Context, ev battleapp.Event) (*battleapp.Outcome, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*battleapp.Outcome), args.Error(1)
}

func (m *MockBattleEngine) Status(ctx context.Context) *battleapp.Status {
	args := m.Called(ctx)
	return args.Get(0).(*battleapp.Status)
}

// MockHistoryService モック履歴サービス
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) GetTransactionHistory(ctx context.Context, req *historyapp.GetTransactionHistoryRequest) (*historyapp.GetTransactionHistoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*historyapp.GetTransactionHistoryResponse), args.Error(1)
}
