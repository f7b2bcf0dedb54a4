package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "HAVEN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "HAVEN_APP_ENV"
	EnvPort       = "HAVEN_APP_PORT"
	EnvDBDSN      = "HAVEN_DB_DSN"
	EnvDBHost     = "HAVEN_DB_HOST"
	EnvDBUser     = "HAVEN_DB_USER"
	EnvDBName     = "HAVEN_DB_NAME"
	EnvRedisURL   = "HAVEN_REDIS_URL"
	EnvJWTSecret  = "HAVEN_JWT_SECRET"
	EnvJWTIssuer  = "HAVEN_JWT_ISSUER"
	EnvJWTExpMins = "HAVEN_JWT_EXPIRATION_MINUTES"

	EnvRefreshTokenTTLMinutes = "HAVEN_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "HAVEN_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "HAVEN_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "HAVEN_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
