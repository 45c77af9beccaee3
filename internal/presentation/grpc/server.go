package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"gamebot-server/internal/infrastructure/config"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
	"gamebot-server/internal/presentation/grpc/handler"
	"gamebot-server/internal/presentation/grpc/interceptor"
)

// Services gRPCで公開するアプリケーションサービス
type Services struct {
	Ledger    handler.LedgerService
	Adjuster  handler.BalanceAdjuster
	Inventory handler.InventoryService
}

// Server gRPCサーバー
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	logger   *otelinfra.Logger
	port     int
}

// NewServer 新しいgRPCサーバーを作成
func NewServer(cfg *config.Config, logger *otelinfra.Logger, services Services) (*Server, error) {
	address := fmt.Sprintf(":%d", cfg.GRPC.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return NewServerWithListener(cfg, logger, services, listener, cfg.GRPC.Port), nil
}

// NewServerWithListener リスナーを指定してgRPCサーバーを作成（テスト用）
func NewServerWithListener(
	cfg *config.Config,
	logger *otelinfra.Logger,
	services Services,
	listener net.Listener,
	port int,
) *Server {
	// 参照系はJWT、管理系はAPIキーで認証する
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptor.ForService(handler.LedgerServiceName, interceptor.AuthInterceptor(&cfg.JWT, logger)),
			interceptor.ForService(handler.AdminServiceName, interceptor.APIKeyInterceptor(&cfg.Admin, logger)),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Second,
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Second,
			Timeout:               1 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	grpcServer := grpc.NewServer(opts...)

	// ハンドラーを登録
	handler.RegisterLedgerServiceServer(grpcServer, handler.NewLedgerHandler(services.Ledger, services.Inventory))
	handler.RegisterAdminServiceServer(grpcServer, handler.NewAdminHandler(services.Adjuster))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.LedgerServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(handler.AdminServiceName, healthpb.HealthCheckResponse_SERVING)

	// リフレクションを有効化（開発環境用）
	if cfg.IsDevelopment() {
		reflection.Register(grpcServer)
	}

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: listener,
		logger:   logger,
		port:     port,
	}
}

// Start サーバーを起動
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "gRPC server starting", map[string]interface{}{
		"port": s.port,
	})
	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop サーバーを停止
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info(ctx, "Stopping gRPC server", nil)
	s.health.Shutdown()

	// グレースフルシャットダウン
	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info(ctx, "gRPC server stopped", nil)
		return nil
	case <-ctx.Done():
		// タイムアウトした場合は強制停止
		s.logger.Warn(ctx, "gRPC server shutdown timeout, forcing stop", nil)
		s.server.Stop()
		return ctx.Err()
	}
}

// Port サーバーのポート番号を返す
func (s *Server) Port() int {
	return s.port
}
