package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "luxethreads"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Gateway      GatewayConfig
	Pricing      PricingConfig
	Orders       OrdersConfig
	Chat         ChatConfig
	LLM          LLMConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUXETHREADS_APP_ENV" required:"true"`
	Port         string `envconfig:"LUXETHREADS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LUXETHREADS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUXETHREADS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"LUXETHREADS_DB_DSN" required:"true"`

	MaxOpenConns     int           `envconfig:"LUXETHREADS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns     int           `envconfig:"LUXETHREADS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime  time.Duration `envconfig:"LUXETHREADS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime  time.Duration `envconfig:"LUXETHREADS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	StatementTimeout time.Duration `envconfig:"LUXETHREADS_DB_STATEMENT_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LUXETHREADS_REDIS_URL"`
	Address      string        `envconfig:"LUXETHREADS_REDIS_ADDR"`
	Password     string        `envconfig:"LUXETHREADS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LUXETHREADS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LUXETHREADS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUXETHREADS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUXETHREADS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUXETHREADS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUXETHREADS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LUXETHREADS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LUXETHREADS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LUXETHREADS_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"LUXETHREADS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LUXETHREADS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LUXETHREADS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LUXETHREADS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LUXETHREADS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LUXETHREADS_ARGON_KEY_LEN" default:"32"`
}

// GatewayConfig tunes the simulated payment processor. Outcome rates must sum
// to at most 1; the remainder is treated as timeout.
type GatewayConfig struct {
	SuccessRate  float64       `envconfig:"LUXETHREADS_GATEWAY_SUCCESS_RATE" default:"0.85"`
	DeclineRate  float64       `envconfig:"LUXETHREADS_GATEWAY_DECLINE_RATE" default:"0.10"`
	RefundRate   float64       `envconfig:"LUXETHREADS_GATEWAY_REFUND_SUCCESS_RATE" default:"0.95"`
	ProcessDelay time.Duration `envconfig:"LUXETHREADS_GATEWAY_PROCESS_DELAY" default:"1s"`
	RefundDelay  time.Duration `envconfig:"LUXETHREADS_GATEWAY_REFUND_DELAY" default:"500ms"`
	CallTimeout  time.Duration `envconfig:"LUXETHREADS_GATEWAY_CALL_TIMEOUT" default:"10s"`
}

type PricingConfig struct {
	TaxRate               string `envconfig:"LUXETHREADS_PRICING_TAX_RATE" default:"0.08875"`
	ShippingFee           string `envconfig:"LUXETHREADS_PRICING_SHIPPING_FEE" default:"199.00"`
	FreeShippingThreshold string `envconfig:"LUXETHREADS_PRICING_FREE_SHIPPING_THRESHOLD" default:"1000.00"`
}

type OrdersConfig struct {
	PendingTTL time.Duration `envconfig:"LUXETHREADS_ORDERS_PENDING_TTL" default:"240h"`
}

type ChatConfig struct {
	MaxActiveSessions int           `envconfig:"LUXETHREADS_CHAT_MAX_ACTIVE_SESSIONS" default:"10"`
	IdleTTL           time.Duration `envconfig:"LUXETHREADS_CHAT_IDLE_TTL" default:"24h"`
	HistoryLimit      int           `envconfig:"LUXETHREADS_CHAT_HISTORY_LIMIT" default:"10"`
}

type LLMConfig struct {
	APIKey      string        `envconfig:"LUXETHREADS_LLM_API_KEY"`
	BaseURL     string        `envconfig:"LUXETHREADS_LLM_BASE_URL" default:"https://openrouter.ai/api/v1/chat/completions"`
	Model       string        `envconfig:"LUXETHREADS_LLM_MODEL" default:"meta-llama/llama-3.1-8b-instruct"`
	Temperature float64       `envconfig:"LUXETHREADS_LLM_TEMPERATURE" default:"0.7"`
	CallTimeout time.Duration `envconfig:"LUXETHREADS_LLM_CALL_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LUXETHREADS_AUTO_MIGRATE" default:"false"`
}
