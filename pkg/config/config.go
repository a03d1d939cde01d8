package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	LocalStore   LocalStoreConfig
	DB           DBConfig
	Redis        RedisConfig
	Sync         SyncConfig
	Checkout     CheckoutConfig
	Breaker      BreakerConfig
	Connectivity ConnectivityConfig
	Promotions   PromotionsConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Sync.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLUXO_APP_ENV" required:"true"`
	Port         string `envconfig:"FLUXO_APP_PORT" default:"8787"`
	LogLevel     string `envconfig:"FLUXO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLUXO_LOG_WARN_STACK" default:"false"`
	CompanyID    string `envconfig:"FLUXO_COMPANY_ID" required:"true"`
	TerminalID   string `envconfig:"FLUXO_TERMINAL_ID"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLUXO_SERVICE_KIND" default:"pos-agent"`
}

// LocalStoreConfig points at the terminal's durable SQLite file.
type LocalStoreConfig struct {
	Path        string        `envconfig:"FLUXO_LOCAL_STORE_PATH" default:"fluxo_offline.db"`
	BusyTimeout time.Duration `envconfig:"FLUXO_LOCAL_STORE_BUSY_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN string `envconfig:"FLUXO_DB_DSN"`

	LegacyHost     string `envconfig:"FLUXO_DB_HOST"`
	LegacyPort     int    `envconfig:"FLUXO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLUXO_DB_USER"`
	LegacyPassword string `envconfig:"FLUXO_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLUXO_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLUXO_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"FLUXO_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"FLUXO_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"FLUXO_DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"FLUXO_DB_CONN_MAX_IDLE_TIME" default:"5m"`
}

// RedisConfig is optional on a terminal; an empty URL and address disables
// the distributed sync lock and the checkout idempotency cache.
type RedisConfig struct {
	URL          string        `envconfig:"FLUXO_REDIS_URL"`
	Address      string        `envconfig:"FLUXO_REDIS_ADDR"`
	Password     string        `envconfig:"FLUXO_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLUXO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLUXO_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"FLUXO_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"FLUXO_REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"FLUXO_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"FLUXO_REDIS_WRITE_TIMEOUT" default:"2s"`
}

// Enabled reports whether a redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SyncConfig struct {
	Interval        time.Duration `envconfig:"FLUXO_SYNC_INTERVAL" default:"30s"`
	SubmitTimeout   time.Duration `envconfig:"FLUXO_SYNC_SUBMIT_TIMEOUT" default:"15s"`
	RetryMode       string        `envconfig:"FLUXO_SYNC_RETRY_MODE" default:"pending_only"`
	MaxAttempts     int           `envconfig:"FLUXO_SYNC_MAX_ATTEMPTS" default:"0"`
	BackoffBase     time.Duration `envconfig:"FLUXO_SYNC_BACKOFF_BASE" default:"30s"`
	BackoffMax      time.Duration `envconfig:"FLUXO_SYNC_BACKOFF_MAX" default:"15m"`
	RecoverStuck    bool          `envconfig:"FLUXO_SYNC_RECOVER_STUCK" default:"false"`
	DistributedLock bool          `envconfig:"FLUXO_SYNC_DISTRIBUTED_LOCK" default:"false"`
	LockTTL         time.Duration `envconfig:"FLUXO_SYNC_LOCK_TTL" default:"10m"`
}

func (s SyncConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.RetryMode)) {
	case SyncRetryModePendingOnly, SyncRetryModeRetryErrors:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvSyncRetryMode, SyncRetryModePendingOnly, SyncRetryModeRetryErrors)
	}
	if s.MaxAttempts < 0 {
		return fmt.Errorf("%s cannot be negative", EnvSyncMaxAttempts)
	}
	return nil
}

// CheckoutConfig bounds the live remote submit before an order falls back to
// the local queue.
type CheckoutConfig struct {
	SubmitTimeout time.Duration `envconfig:"FLUXO_CHECKOUT_SUBMIT_TIMEOUT" default:"8s"`
}

// BreakerConfig tunes the circuit breaker around remote order submission.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `envconfig:"FLUXO_BREAKER_CONSECUTIVE_FAILURES" default:"3"`
	OpenTimeout         time.Duration `envconfig:"FLUXO_BREAKER_OPEN_TIMEOUT" default:"20s"`
}

type ConnectivityConfig struct {
	ProbeInterval time.Duration `envconfig:"FLUXO_CONNECTIVITY_PROBE_INTERVAL" default:"10s"`
	ProbeTimeout  time.Duration `envconfig:"FLUXO_CONNECTIVITY_PROBE_TIMEOUT" default:"3s"`
}

type PromotionsConfig struct {
	ClampNegativeTotals bool `envconfig:"FLUXO_PROMOTIONS_CLAMP_NEGATIVE" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLUXO_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FLUXO_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
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
