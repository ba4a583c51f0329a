package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Marketplace  MarketplaceConfig
	Wallet       WalletConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SILKMALL_APP_ENV" required:"true"`
	Port         string `envconfig:"SILKMALL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SILKMALL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SILKMALL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SILKMALL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SILKMALL_DB_DSN"`
	Driver string `envconfig:"SILKMALL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SILKMALL_DB_HOST"`
	LegacyPort     int    `envconfig:"SILKMALL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SILKMALL_DB_USER"`
	LegacyPassword string `envconfig:"SILKMALL_DB_PASSWORD"`
	LegacyName     string `envconfig:"SILKMALL_DB_NAME"`
	LegacySSLMode  string `envconfig:"SILKMALL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SILKMALL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SILKMALL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SILKMALL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SILKMALL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SILKMALL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SILKMALL_REDIS_ADDR"`
	Password     string        `envconfig:"SILKMALL_REDIS_PASSWORD"`
	DB           int           `envconfig:"SILKMALL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SILKMALL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SILKMALL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SILKMALL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SILKMALL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SILKMALL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SILKMALL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SILKMALL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SILKMALL_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SILKMALL_AUTO_MIGRATE" default:"false"`
}

// MarketplaceConfig carries the order-economics knobs.
type MarketplaceConfig struct {
	CommissionRate  decimal.Decimal `envconfig:"SILKMALL_COMMISSION_RATE" default:"0.05"`
	TxMaxRetries    int             `envconfig:"SILKMALL_TX_MAX_RETRIES" default:"3"`
	TxRetryBackoff  time.Duration   `envconfig:"SILKMALL_TX_RETRY_BACKOFF" default:"25ms"`
	ReturnWindowDay int             `envconfig:"SILKMALL_RETURN_WINDOW_DAYS" default:"30"`
}

type WalletConfig struct {
	RedeemAmount decimal.Decimal `envconfig:"SILKMALL_WALLET_REDEEM_AMOUNT" default:"100"`
	// RedeemCodeHashes holds md5 hex digests of the accepted top-up codes.
	RedeemCodeHashes []string      `envconfig:"SILKMALL_WALLET_REDEEM_CODE_HASHES"`
	RedeemWindow     time.Duration `envconfig:"SILKMALL_WALLET_REDEEM_WINDOW" default:"1m"`
	RedeemPerWindow  int           `envconfig:"SILKMALL_WALLET_REDEEM_PER_WINDOW" default:"5"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SILKMALL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SILKMALL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SILKMALL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"SILKMALL_PUBSUB_DOMAIN_TOPIC" default:"silkmall-domain-events"`
	DomainSubscription string `envconfig:"SILKMALL_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SILKMALL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SILKMALL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SILKMALL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
