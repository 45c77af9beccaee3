package rest

import (
	"context"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"gamebot-server/internal/infrastructure/config"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
	"gamebot-server/internal/presentation/rest/handler"
	restmiddleware "gamebot-server/internal/presentation/rest/middleware"
)

// HealthChecker 依存先の疎通確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services ルーターが公開するアプリケーションサービス
type Services struct {
	Auth      handler.TokenIssuer
	Ledger    handler.LedgerService
	Inventory handler.InventoryService
	Effect    handler.EffectService
	Shop      handler.ShopService
	Gamble    handler.GambleService
	Cooldown  handler.CooldownGate
	Roulette  handler.RouletteEngine
	Battle    handler.BattleEngine
	History   handler.HistoryService
	Clock     clock.Clock
}

// Router REST APIルーター
type Router struct {
	echo *echo.Echo
}

// NewRouter 新しいRouterを作成
// metricsHandler が nil でなければ /metrics で公開する
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services Services,
	health HealthChecker,
	metricsHandler http.Handler,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, logger, metrics)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, services)

	// ヘルスチェックとメトリクス（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if err := health.HealthCheck(c.Request().Context()); err != nil {
			logger.Error(c.Request().Context(), "Health check failed", err, nil)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	return &Router{echo: e}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	if metrics != nil {
		e.Use(restmiddleware.MetricsMiddleware(metrics))
	}

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, s Services) {
	authHandler := handler.NewAuthHandler(s.Auth)
	ledgerHandler := handler.NewLedgerHandler(s.Ledger)
	inventoryHandler := handler.NewInventoryHandler(s.Inventory, s.Effect, s.Clock)
	shopHandler := handler.NewShopHandler(s.Shop)
	gameHandler := handler.NewGameHandler(s.Gamble, s.Cooldown)
	rouletteHandler := handler.NewRouletteHandler(s.Roulette)
	battleHandler := handler.NewBattleHandler(s.Battle)
	historyHandler := handler.NewHistoryHandler(s.History)

	// API v1グループ
	api := e.Group("/api/v1")

	// 認証が必要なエンドポイント
	authGroup := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	// ユーザー関連エンドポイント
	authGroup.GET("/users/:user_id/balance", ledgerHandler.GetBalance)
	authGroup.GET("/users/:user_id/inventory", inventoryHandler.GetInventory)
	authGroup.GET("/users/:user_id/effect", inventoryHandler.GetEffect)
	authGroup.GET("/users/:user_id/transactions", historyHandler.GetTransactionHistory)

	// ショップ関連エンドポイント
	authGroup.GET("/items", shopHandler.ListItems)
	authGroup.POST("/users/:user_id/purchase", shopHandler.Purchase)
	authGroup.POST("/users/:user_id/consume", shopHandler.Consume)
	authGroup.POST("/users/:user_id/curse", shopHandler.ApplyCurse)

	// ゲーム関連エンドポイント
	authGroup.POST("/users/:user_id/dice", gameHandler.PlayDice)
	authGroup.POST("/users/:user_id/slots", gameHandler.PlaySlots)
	authGroup.POST("/users/:user_id/cooldown/:action", gameHandler.CheckCooldown)
	authGroup.GET("/roulette", rouletteHandler.GetStatus)
	authGroup.POST("/roulette/join", rouletteHandler.Join)
	authGroup.GET("/battles", battleHandler.GetStatus)
	authGroup.POST("/battles", battleHandler.Start)
	authGroup.POST("/battles/events", battleHandler.Deliver)

	// 管理APIグループ
	admin := e.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.Admin, logger))
	admin.POST("/tokens", authHandler.IssueToken)
	admin.POST("/users/:user_id/adjust", ledgerHandler.AdjustBalance)
	admin.PUT("/users/:user_id/balance", ledgerHandler.SetBalance)
	admin.POST("/users/:user_id/items", shopHandler.GrantItem)
	admin.DELETE("/users/:user_id/effect", inventoryHandler.ClearEffect)
	admin.GET("/users/:user_id/transactions", historyHandler.GetTransactionHistory)
}

// ServeHTTP http.Handler を実装する
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.echo.ServeHTTP(w, req)
}
