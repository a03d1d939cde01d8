package config

const EnvPrefix = "FLUXO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	SyncRetryModePendingOnly = "pending_only"
	SyncRetryModeRetryErrors = "retry_errors"
)

const (
	EnvAppEnv          = "FLUXO_APP_ENV"
	EnvPort            = "FLUXO_APP_PORT"
	EnvCompanyID       = "FLUXO_COMPANY_ID"
	EnvTerminalID      = "FLUXO_TERMINAL_ID"
	EnvLocalStorePath  = "FLUXO_LOCAL_STORE_PATH"
	EnvDBDSN           = "FLUXO_DB_DSN"
	EnvDBHost          = "FLUXO_DB_HOST"
	EnvDBUser          = "FLUXO_DB_USER"
	EnvDBPassword      = "FLUXO_DB_PASSWORD"
	EnvDBName          = "FLUXO_DB_NAME"
	EnvRedisURL        = "FLUXO_REDIS_URL"
	EnvSyncInterval    = "FLUXO_SYNC_INTERVAL"
	EnvSyncRetryMode   = "FLUXO_SYNC_RETRY_MODE"
	EnvSyncMaxAttempts = "FLUXO_SYNC_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
