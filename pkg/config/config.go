package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Cache    CacheConfig
	Delivery DeliveryConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Square   SquareConfig
	Mailer   MailerConfig

	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"HAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"HAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HAVEN_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"HAVEN_PUBLIC_URL" default:"https://havenandoak.com"`
	AutoMigrate  bool   `envconfig:"HAVEN_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HAVEN_DB_DSN"`
	Driver string `envconfig:"HAVEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HAVEN_DB_HOST"`
	LegacyPort     int    `envconfig:"HAVEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HAVEN_DB_USER"`
	LegacyPassword string `envconfig:"HAVEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"HAVEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"HAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"HAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"HAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HAVEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HAVEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HAVEN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HAVEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HAVEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HAVEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HAVEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HAVEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HAVEN_ARGON_KEY_LEN" default:"32"`
}

type CacheConfig struct {
	// Backend selects the cache implementation: "redis" or "noop".
	Backend    string        `envconfig:"HAVEN_CACHE_BACKEND" default:"redis"`
	DefaultTTL time.Duration `envconfig:"HAVEN_CACHE_DEFAULT_TTL" default:"5m"`
}

type DeliveryConfig struct {
	DefaultLeadDays int `envconfig:"HAVEN_DELIVERY_DEFAULT_LEAD_DAYS" default:"5"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HAVEN_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"HAVEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HAVEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"HAVEN_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"HAVEN_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HAVEN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HAVEN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HAVEN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"HAVEN_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"HAVEN_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"HAVEN_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"HAVEN_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"HAVEN_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"HAVEN_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"HAVEN_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"8"`
}

type MailerConfig struct {
	APIKey      string `envconfig:"HAVEN_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"HAVEN_SENDGRID_FROM_EMAIL" default:"orders@havenandoak.com"`
	BaseURL     string `envconfig:"HAVEN_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
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
