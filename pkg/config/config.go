package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Lockout       LockoutConfig
	AuthRateLimit AuthRateLimitConfig
	Idempotency   IdempotencyConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Password.BcryptCost < MinBcryptCost {
		return fmt.Errorf("%s must be at least %d", EnvBcryptCost, MinBcryptCost)
	}
	if c.Lockout.MaxFailedAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvLockoutMaxAttempts)
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	return nil
}

type AppConfig struct {
	Env             string        `envconfig:"PARTSHOP_APP_ENV" required:"true"`
	Port            string        `envconfig:"PARTSHOP_APP_PORT" default:"3000"`
	LogLevel        string        `envconfig:"PARTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"PARTSHOP_LOG_WARN_STACK" default:"false"`
	LogFormat       string        `envconfig:"PARTSHOP_LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"PARTSHOP_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `envconfig:"PARTSHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"PARTSHOP_DB_DSN"`
	Driver string `envconfig:"PARTSHOP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PARTSHOP_DB_HOST"`
	Port     int    `envconfig:"PARTSHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"PARTSHOP_DB_USER"`
	Password string `envconfig:"PARTSHOP_DB_PASSWORD"`
	Name     string `envconfig:"PARTSHOP_DB_NAME"`
	SSLMode  string `envconfig:"PARTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PARTSHOP_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTSHOP_REDIS_URL"`
	Address      string        `envconfig:"PARTSHOP_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"PARTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PARTSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PARTSHOP_JWT_ISSUER" default:"partshop"`
	ExpirationMinutes int    `envconfig:"PARTSHOP_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"PARTSHOP_BCRYPT_COST" default:"10"`
}

// LockoutConfig controls when repeated invalid logins block an account.
type LockoutConfig struct {
	MaxFailedAttempts int `envconfig:"PARTSHOP_LOCKOUT_MAX_ATTEMPTS" default:"3"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PARTSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PARTSHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PARTSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PARTSHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PARTSHOP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PARTSHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"PARTSHOP_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PARTSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
