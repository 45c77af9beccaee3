package interceptor

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"gamebot-server/internal/infrastructure/config"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

func TestAPIKeyInterceptor(t *testing.T) {
	tests := []struct {
		name         string
		md           metadata.MD
		peerAddr     net.Addr
		config       *config.AdminConfig
		expectedCode codes.Code
	}{
		{
			name:         "正常系: 有効なAPIキー",
			md:           metadata.Pairs("x-api-key", "test-api-key"),
			config:       &config.AdminConfig{APIKey: "test-api-key"},
			expectedCode: codes.OK,
		},
		{
			name:         "異常系: APIキーが空",
			md:           metadata.Pairs("x-other", "1"),
			config:       &config.AdminConfig{APIKey: "test-api-key"},
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "異常系: APIキーが違う",
			md:           metadata.Pairs("x-api-key", "wrong"),
			config:       &config.AdminConfig{APIKey: "test-api-key"},
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "異常系: サーバー側のキーが未設定",
			md:           metadata.Pairs("x-api-key", "anything"),
			config:       &config.AdminConfig{},
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "正常系: 転送元IPがCIDRに含まれる",
			md:           metadata.Pairs("x-api-key", "test-api-key", "x-forwarded-for", "10.1.2.3, 172.16.0.1"),
			config:       &config.AdminConfig{APIKey: "test-api-key", AllowedIPs: []string{"10.0.0.0/8"}},
			expectedCode: codes.OK,
		},
		{
			name:         "正常系: 接続元アドレスで判定",
			md:           metadata.Pairs("x-api-key", "test-api-key"),
			peerAddr:     &net.TCPAddr{IP: net.ParseIP("192.168.1.10"), Port: 50000},
			config:       &config.AdminConfig{APIKey: "test-api-key", AllowedIPs: []string{"192.168.1.10"}},
			expectedCode: codes.OK,
		},
		{
			name:         "異常系: 許可されていないIP",
			md:           metadata.Pairs("x-api-key", "test-api-key", "x-real-ip", "203.0.113.5"),
			config:       &config.AdminConfig{APIKey: "test-api-key", AllowedIPs: []string{"10.0.0.0/8"}},
			expectedCode: codes.PermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), tt.md)
			if tt.peerAddr != nil {
				ctx = peer.NewContext(ctx, &peer.Peer{Addr: tt.peerAddr})
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return "ok", nil
			}

			ic := APIKeyInterceptor(tt.config, otelinfra.NewLogger(nil))
			resp, err := ic(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/gamebot.v1.AdminService/AdjustBalance"}, handler)

			if tt.expectedCode == codes.OK {
				require.NoError(t, err)
				assert.Equal(t, "ok", resp)
				return
			}
			assert.Equal(t, tt.expectedCode, status.Code(err))
		})
	}
}

func TestForService(t *testing.T) {
	deny := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return nil, status.Error(codes.PermissionDenied, "denied")
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}
	ic := ForService("gamebot.v1.AdminService", deny)

	tests := []struct {
		name         string
		method       string
		expectedCode codes.Code
	}{
		{"正常系: 対象外のサービスは素通り", "/gamebot.v1.LedgerService/GetBalance", codes.OK},
		{"正常系: 名前が前方一致するだけのサービスは対象外", "/gamebot.v1.AdminServiceV2/AdjustBalance", codes.OK},
		{"異常系: 対象サービスには適用される", "/gamebot.v1.AdminService/AdjustBalance", codes.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			assert.Equal(t, tt.expectedCode, status.Code(err))
		})
	}
}
