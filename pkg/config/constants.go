package config

// EnvPrefix is the envconfig prefix shared by every section.
const EnvPrefix = "TERRAVIA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names used by tests and tooling.
const (
	EnvAppEnv   = "TERRAVIA_APP_ENV"
	EnvPort     = "TERRAVIA_APP_PORT"
	EnvDBDSN    = "TERRAVIA_DB_DSN"
	EnvRedisURL = "TERRAVIA_REDIS_URL"
	EnvJWTSecret = "TERRAVIA_JWT_SECRET"
	EnvJWTIssuer = "TERRAVIA_JWT_ISSUER"
)
