package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// DriverMySQL 本番向けのMySQL
	DriverMySQL = "mysql"
	// DriverSQLite 単体で動かすための組み込みSQLite
	DriverSQLite = "sqlite"
)

// Config アプリケーション全体の設定
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	GRPC          GRPCConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Admin         AdminConfig
	Log           LogConfig
	OpenTelemetry OpenTelemetryConfig
	Game          GameConfig
}

// ServerConfig RESTサーバー設定
type ServerConfig struct {
	Port         int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"45s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

// GRPCConfig gRPCサーバー設定
type GRPCConfig struct {
	Enabled bool `env:"GRPC_ENABLED" envDefault:"true"`
	Port    int  `env:"GRPC_PORT" envDefault:"9090"`
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"3306"`
	User            string        `env:"DB_USER" envDefault:"root"`
	Password        string        `env:"DB_PASSWORD"`
	Database        string        `env:"DB_NAME" envDefault:"gamebot"`
	SQLitePath      string        `env:"DB_SQLITE_PATH" envDefault:"gamebot.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`
}

// JWTConfig ボットフロントエンドのサービストークン設定
type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"gamebot-server"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"720h"`
}

// AdminConfig 管理APIの設定
type AdminConfig struct {
	APIKey     string   `env:"ADMIN_API_KEY"`
	AllowedIPs []string `env:"ADMIN_ALLOWED_IPS" envSeparator:","` // IPまたはCIDR。空なら制限なし
}

// LogConfig ログ設定
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName     string `env:"OTEL_SERVICE_NAME" envDefault:"gamebot-server"`
	ServiceVersion  string `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTLPInsecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	TraceExporter   string `env:"OTEL_TRACES_EXPORTER" envDefault:"otlp"`        // "otlp", "stdout"
	MetricsExporter string `env:"OTEL_METRICS_EXPORTER" envDefault:"prometheus"` // "otlp", "prometheus", "stdout"
}

// GameConfig ゲームとカタログの設定
type GameConfig struct {
	CatalogPath string `env:"CATALOG_PATH"` // 空の場合は組み込みカタログ
	Roulette    RouletteConfig
	Battle      BattleConfig
	Cooldown    CooldownConfig
	SlotsCost   int64 `env:"SLOTS_COST" envDefault:"10"`
}

// RouletteConfig ルーレットの設定
type RouletteConfig struct {
	BuyIn           int64         `env:"ROULETTE_BUY_IN" envDefault:"20"`
	Capacity        int           `env:"ROULETTE_CAPACITY" envDefault:"6"`
	Quorum          int           `env:"ROULETTE_QUORUM" envDefault:"3"`
	Countdown       time.Duration `env:"ROULETTE_COUNTDOWN" envDefault:"25s"`
	EntryTTL        time.Duration `env:"ROULETTE_ENTRY_TTL" envDefault:"1h"`
	Payout          int64         `env:"ROULETTE_PAYOUT" envDefault:"30"`
	PenaltyEffectID string        `env:"ROULETTE_PENALTY_EFFECT" envDefault:"roulette_shot"`
	PenaltyDuration time.Duration `env:"ROULETTE_PENALTY_DURATION" envDefault:"10m"`
	JanitorInterval time.Duration `env:"ROULETTE_JANITOR_INTERVAL" envDefault:"1m"`
}

// BattleConfig 対戦の設定
type BattleConfig struct {
	ResponseWindow time.Duration `env:"BATTLE_RESPONSE_WINDOW" envDefault:"30s"`
	MaxWager       int64         `env:"BATTLE_MAX_WAGER" envDefault:"1000"`
}

// CooldownConfig 連打抑止の設定
// 共通値はアクション別の設定で上書きされなかった項目に使われる
type CooldownConfig struct {
	Window    time.Duration `env:"COOLDOWN_WINDOW" envDefault:"180s"`
	Threshold int           `env:"COOLDOWN_THRESHOLD" envDefault:"15"`
	WaitLow   time.Duration `env:"COOLDOWN_WAIT_LOW" envDefault:"30s"`
	WaitMode  time.Duration `env:"COOLDOWN_WAIT_MODE" envDefault:"60s"`
	WaitHigh  time.Duration `env:"COOLDOWN_WAIT_HIGH" envDefault:"180s"`

	Dice    ActionCooldownConfig `envPrefix:"COOLDOWN_DICE_"`
	Pull    ActionCooldownConfig `envPrefix:"COOLDOWN_PULL_"`
	Tarot   ActionCooldownConfig `envPrefix:"COOLDOWN_TAROT_"`
	Weather ActionCooldownConfig `envPrefix:"COOLDOWN_WEATHER_"`
}

// ActionCooldownConfig アクション別の連打抑止設定。0 の項目は共通値を使う
type ActionCooldownConfig struct {
	Window    time.Duration `env:"WINDOW"`
	Threshold int           `env:"THRESHOLD"`
	WaitLow   time.Duration `env:"WAIT_LOW"`
	WaitMode  time.Duration `env:"WAIT_MODE"`
	WaitHigh  time.Duration `env:"WAIT_HIGH"`
}

// Actions アクション名ごとに共通値で補完した設定を返す
func (c CooldownConfig) Actions() map[string]ActionCooldownConfig {
	return map[string]ActionCooldownConfig{
		"dice":    c.merge(c.Dice),
		"pull":    c.merge(c.Pull),
		"tarot":   c.merge(c.Tarot),
		"weather": c.merge(c.Weather),
	}
}

func (c CooldownConfig) merge(a ActionCooldownConfig) ActionCooldownConfig {
	if a.Window == 0 {
		a.Window = c.Window
	}
	if a.Threshold == 0 {
		a.Threshold = c.Threshold
	}
	if a.WaitLow == 0 {
		a.WaitLow = c.WaitLow
	}
	if a.WaitMode == 0 {
		a.WaitMode = c.WaitMode
	}
	if a.WaitHigh == 0 {
		a.WaitHigh = c.WaitHigh
	}
	return a
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsDevelopment 開発環境かどうか
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate 設定の検証
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}
	if c.Admin.APIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}

	r := c.Game.Roulette
	if r.BuyIn < 0 || r.Payout < 0 {
		return fmt.Errorf("roulette buy-in and payout must not be negative")
	}
	if r.Quorum < 2 || r.Quorum > r.Capacity {
		return fmt.Errorf("ROULETTE_QUORUM must be between 2 and ROULETTE_CAPACITY")
	}
	if r.PenaltyDuration <= 0 {
		return fmt.Errorf("ROULETTE_PENALTY_DURATION must be positive")
	}

	for name, cd := range c.Game.Cooldown.Actions() {
		if cd.Window <= 0 || cd.Threshold <= 0 {
			return fmt.Errorf("cooldown %s: window and threshold must be positive", name)
		}
		if !(cd.WaitLow < cd.WaitHigh && cd.WaitLow <= cd.WaitMode && cd.WaitMode <= cd.WaitHigh) {
			return fmt.Errorf("cooldown %s: wait must satisfy LOW <= MODE <= HIGH and LOW < HIGH", name)
		}
	}

	if c.Game.Battle.ResponseWindow <= 0 {
		return fmt.Errorf("BATTLE_RESPONSE_WINDOW must be positive")
	}
	return nil
}

// DSN MySQLの接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}
