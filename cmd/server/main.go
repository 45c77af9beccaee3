package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"

	authapp "gamebot-server/internal/application/auth"
	battleapp "gamebot-server/internal/application/battle"
	"gamebot-server/internal/application/cooldown"
	effectapp "gamebot-server/internal/application/effect"
	gambleapp "gamebot-server/internal/application/gamble"
	historyapp "gamebot-server/internal/application/history"
	inventoryapp "gamebot-server/internal/application/inventory"
	ledgerapp "gamebot-server/internal/application/ledger"
	rouletteapp "gamebot-server/internal/application/roulette"
	shopapp "gamebot-server/internal/application/shop"
	"gamebot-server/internal/application/unitofwork"
	"gamebot-server/internal/domain/slots"
	"gamebot-server/internal/infrastructure/catalog"
	"gamebot-server/internal/infrastructure/config"
	"gamebot-server/internal/infrastructure/notification"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
	"gamebot-server/internal/infrastructure/persistence"
	"gamebot-server/internal/infrastructure/persistence/mysql"
	"gamebot-server/internal/infrastructure/persistence/sqlite"
	grpcserver "gamebot-server/internal/presentation/grpc"
	"gamebot-server/internal/presentation/rest"
)

// 結果処理がハングした場合の上限
const resolveTimeout = 10 * time.Second

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// ロガーの初期化
	zapLogger, err := otelinfra.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger := otelinfra.NewLogger(zapLogger)
	defer func() { _ = logger.Sync() }()

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer shutdownWithTimeout(logger, "tracer", tracerShutdown)

	meterShutdown, metricsHandler, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer shutdownWithTimeout(logger, "meter", meterShutdown)

	metrics, err := otelinfra.NewMetrics(cfg.OpenTelemetry.ServiceName)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// データベース接続の初期化
	db, err := openDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	items, err := catalog.Load(cfg.Game.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load item catalog: %v", err)
	}

	clk := clock.New()

	// リポジトリとユニットオブワークの初期化
	balanceRepo := persistence.NewBalanceRepository(db)
	transactionRepo := persistence.NewTransactionRepository(db)
	inventoryRepo := persistence.NewInventoryRepository(db)
	effectRepo := persistence.NewEffectRepository(db)
	uow := unitofwork.NewRunner(persistence.NewTransactionManager(db))

	// アプリケーションサービスの初期化
	ledgerService := ledgerapp.NewLedgerApplicationService(balanceRepo, transactionRepo, uow, clk, logger, metrics)
	inventoryService := inventoryapp.NewInventoryApplicationService(inventoryRepo, uow, logger)
	effectService := effectapp.NewEffectApplicationService(effectRepo, uow, clk, logger)
	shopService := shopapp.NewShopApplicationService(items, ledgerService, inventoryService, effectService, uow, logger, metrics)
	historyService := historyapp.NewHistoryApplicationService(transactionRepo, logger)
	authService := authapp.NewAuthApplicationService(&cfg.JWT, clk, logger)

	actionConfigs := cfg.Game.Cooldown.Actions()
	policies := make(map[cooldown.Action]cooldown.Policy)
	for _, action := range cooldown.Actions() {
		ac := actionConfigs[string(action)]
		policies[action] = cooldown.Policy{
			Window:    ac.Window,
			Threshold: ac.Threshold,
			WaitLow:   ac.WaitLow,
			WaitMode:  ac.WaitMode,
			WaitHigh:  ac.WaitHigh,
		}
	}
	governor, err := cooldown.NewGovernor(clk, policies, cooldown.TriangularSampler, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to create cooldown governor: %v", err)
	}

	machine := slots.DefaultMachine()
	machine.Cost = cfg.Game.SlotsCost
	gambleService, err := gambleapp.NewGambleApplicationService(ledgerService, governor, uow, machine, nil, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to create gamble service: %v", err)
	}

	notifier := notification.NewLogNotifier(logger)

	rouletteEngine, err := rouletteapp.NewEngine(rouletteapp.Config{
		BuyIn:           cfg.Game.Roulette.BuyIn,
		Payout:          cfg.Game.Roulette.Payout,
		Capacity:        cfg.Game.Roulette.Capacity,
		Quorum:          cfg.Game.Roulette.Quorum,
		Countdown:       cfg.Game.Roulette.Countdown,
		EntryTTL:        cfg.Game.Roulette.EntryTTL,
		PenaltyEffectID: cfg.Game.Roulette.PenaltyEffectID,
		PenaltyDuration: cfg.Game.Roulette.PenaltyDuration,
		ResolveTimeout:  resolveTimeout,
	}, clk, ledgerService, shopService, effectService, notifier, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to create roulette engine: %v", err)
	}

	battleEngine, err := battleapp.NewEngine(battleapp.Config{
		ResponseWindow: cfg.Game.Battle.ResponseWindow,
		MaxWager:       cfg.Game.Battle.MaxWager,
		ResolveTimeout: resolveTimeout,
	}, clk, ledgerService, notifier, logger, metrics)
	if err != nil {
		log.Fatalf("Failed to create battle engine: %v", err)
	}

	// 期限切れエントリの掃除
	go governor.RunSweeper(ctx, cfg.Game.Cooldown.Window)
	go rouletteEngine.Run(ctx, cfg.Game.Roulette.JanitorInterval)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, rest.Services{
		Auth:      authService,
		Ledger:    ledgerService,
		Inventory: inventoryService,
		Effect:    effectService,
		Shop:      shopService,
		Gamble:    gambleService,
		Cooldown:  governor,
		Roulette:  rouletteEngine,
		Battle:    battleEngine,
		History:   historyService,
		Clock:     clk,
	}, db, metricsHandler)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "REST API server error", err, nil)
			stop()
		}
	}()

	// gRPCサーバーを別ゴルーチンで起動
	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg, logger, grpcserver.Services{
			Ledger:    ledgerService,
			Adjuster:  ledgerService,
			Inventory: inventoryService,
		})
		if err != nil {
			log.Fatalf("Failed to create gRPC server: %v", err)
		}
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Error(ctx, "gRPC server error", err, nil)
				stop()
			}
		}()
	}

	// シグナルを待機
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down servers", nil)

	// グレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down REST API server", err, nil)
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Error shutting down gRPC server", err, nil)
		}
	}

	// 進行中の結果処理を待つ
	rouletteEngine.Wait()
	battleEngine.Wait()

	logger.Info(context.Background(), "Servers stopped", nil)
}

// openDB 設定に応じてSQLiteまたはMySQLを開く
func openDB(ctx context.Context, cfg *config.DatabaseConfig) (*persistence.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	case config.DriverMySQL:
		return mysql.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func shutdownWithTimeout(logger *otelinfra.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error(ctx, "Failed to shutdown "+name, err, nil)
	}
}
