package config

// EnvPrefix scopes every envconfig lookup.
const EnvPrefix = "SILKMALL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SILKMALL_DB_DSN"
	EnvDBHost = "SILKMALL_DB_HOST"
	EnvDBUser = "SILKMALL_DB_USER"
	EnvDBName = "SILKMALL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
