package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	ledgerapp "gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/transaction"
	"gamebot-server/internal/infrastructure/config"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

type stubLedger struct {
	balances map[string]int64
	err      error
}

func (s *stubLedger) GetBalance(ctx context.Context, userID string) (*ledgerapp.GetBalanceResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ledgerapp.GetBalanceResponse{UserID: userID, Balance: s.balances[userID]}, nil
}

func (s *stubLedger) AdjustBalance(ctx context.Context, req *ledgerapp.AdjustBalanceRequest) (*ledgerapp.BalanceChange, error) {
	before := s.balances[req.UserID]
	if before+req.Delta < 0 {
		return nil, &balance.InsufficientFundsError{Required: -req.Delta, Actual: before}
	}
	s.balances[req.UserID] = before + req.Delta
	return &ledgerapp.BalanceChange{
		TransactionID: "txn1",
		UserID:        req.UserID,
		BalanceBefore: before,
		BalanceAfter:  before + req.Delta,
	}, nil
}

type stubInventory struct {
	items map[string]int64
}

func (s *stubInventory) GetAll(ctx context.Context, userID string) (map[string]int64, error) {
	return s.items, nil
}

const bufSize = 1024 * 1024

func newTestServer(t *testing.T, ledger *stubLedger) *grpc.ClientConn {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{Secret: "test-secret", Issuer: "gamebot-server"},
		Admin:       config.AdminConfig{APIKey: "test-api-key"},
	}
	listener := bufconn.Listen(bufSize)
	server := NewServerWithListener(cfg, otelinfra.NewLogger(nil), Services{
		Ledger:    ledger,
		Adjuster:  ledger,
		Inventory: &stubInventory{items: map[string]int64{"charm": 2}},
	}, listener, 0)

	go func() {
		_ = server.Start()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "discord-bot",
		Issuer:    "gamebot-server",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestServer_GetBalance(t *testing.T) {
	tests := []struct {
		name          string
		ledger        *stubLedger
		authorize     bool
		userID        string
		expectedCode  codes.Code
		expectedValue int64
	}{
		{
			name:          "正常系: 残高取得",
			ledger:        &stubLedger{balances: map[string]int64{"user123": 250}},
			authorize:     true,
			userID:        "user123",
			expectedCode:  codes.OK,
			expectedValue: 250,
		},
		{
			name:         "異常系: トークンなし",
			ledger:       &stubLedger{balances: map[string]int64{}},
			userID:       "user123",
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "異常系: user_idが空",
			ledger:       &stubLedger{balances: map[string]int64{}},
			authorize:    true,
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "異常系: ストア障害",
			ledger:       &stubLedger{err: transaction.NewStoreError("get balance", errors.New("database is locked"))},
			authorize:    true,
			userID:       "user123",
			expectedCode: codes.Unavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newTestServer(t, tt.ledger)

			ctx := context.Background()
			if tt.authorize {
				ctx = metadata.AppendToOutgoingContext(ctx, "authorization", bearer(t))
			}
			out := new(wrapperspb.Int64Value)
			err := conn.Invoke(ctx, "/gamebot.v1.LedgerService/GetBalance", wrapperspb.String(tt.userID), out)

			assert.Equal(t, tt.expectedCode, status.Code(err))
			if tt.expectedCode == codes.OK {
				assert.Equal(t, tt.expectedValue, out.GetValue())
			}
		})
	}
}

func TestServer_GetInventory(t *testing.T) {
	conn := newTestServer(t, &stubLedger{balances: map[string]int64{}})

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", bearer(t))
	out := new(structpb.Struct)
	err := conn.Invoke(ctx, "/gamebot.v1.LedgerService/GetInventory", wrapperspb.String("user123"), out)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"charm": float64(2)}, out.AsMap())
}

func TestServer_AdjustBalance(t *testing.T) {
	tests := []struct {
		name          string
		apiKey        string
		request       map[string]interface{}
		expectedCode  codes.Code
		expectedAfter float64
	}{
		{
			name:          "正常系: 付与",
			apiKey:        "test-api-key",
			request:       map[string]interface{}{"user_id": "user123", "delta": 50},
			expectedCode:  codes.OK,
			expectedAfter: 150,
		},
		{
			name:         "異常系: APIキーなし",
			request:      map[string]interface{}{"user_id": "user123", "delta": 50},
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "異常系: 残高不足",
			apiKey:       "test-api-key",
			request:      map[string]interface{}{"user_id": "user123", "delta": -500},
			expectedCode: codes.FailedPrecondition,
		},
		{
			name:         "異常系: deltaが整数ではない",
			apiKey:       "test-api-key",
			request:      map[string]interface{}{"user_id": "user123", "delta": 1.5},
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "異常系: 不明なtype",
			apiKey:       "test-api-key",
			request:      map[string]interface{}{"user_id": "user123", "delta": 10, "type": "bogus"},
			expectedCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newTestServer(t, &stubLedger{balances: map[string]int64{"user123": 100}})

			ctx := context.Background()
			if tt.apiKey != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", tt.apiKey)
			}
			in, err := structpb.NewStruct(tt.request)
			require.NoError(t, err)
			out := new(structpb.Struct)
			err = conn.Invoke(ctx, "/gamebot.v1.AdminService/AdjustBalance", in, out)

			assert.Equal(t, tt.expectedCode, status.Code(err))
			if tt.expectedCode == codes.OK {
				assert.Equal(t, tt.expectedAfter, out.AsMap()["balance_after"])
			}
		})
	}
}

func TestServer_Health(t *testing.T) {
	conn := newTestServer(t, &stubLedger{balances: map[string]int64{}})

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: "gamebot.v1.LedgerService",
	})

	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
