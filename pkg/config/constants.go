package config

const (
	EnvPrefix = "PARTSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	MinBcryptCost = 10
)

const (
	EnvAppEnv             = "PARTSHOP_APP_ENV"
	EnvPort               = "PARTSHOP_APP_PORT"
	EnvLogLevel           = "PARTSHOP_LOG_LEVEL"
	EnvDBDSN              = "PARTSHOP_DB_DSN"
	EnvDBHost             = "PARTSHOP_DB_HOST"
	EnvDBPort             = "PARTSHOP_DB_PORT"
	EnvDBUser             = "PARTSHOP_DB_USER"
	EnvDBPassword         = "PARTSHOP_DB_PASSWORD"
	EnvDBName             = "PARTSHOP_DB_NAME"
	EnvRedisURL           = "PARTSHOP_REDIS_URL"
	EnvJWTSecret          = "PARTSHOP_JWT_SECRET"
	EnvJWTIssuer          = "PARTSHOP_JWT_ISSUER"
	EnvJWTExpMins         = "PARTSHOP_JWT_EXPIRATION_MINUTES"
	EnvBcryptCost         = "PARTSHOP_BCRYPT_COST"
	EnvLockoutMaxAttempts = "PARTSHOP_LOCKOUT_MAX_ATTEMPTS"
	EnvIdempotencyTTL     = "PARTSHOP_IDEMPOTENCY_TTL"
	EnvAutoMigrate        = "PARTSHOP_AUTO_MIGRATE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
