package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable read by the service.
	EnvPrefix = "storeline"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "STORELINE_APP_ENV"
	EnvDBDSN  = "STORELINE_DB_DSN"
	EnvDBHost = "STORELINE_DB_HOST"
	EnvDBUser = "STORELINE_DB_USER"
	EnvDBName = "STORELINE_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	SMS           SMSConfig
	Payment       PaymentConfig
	Catalog       CatalogConfig
	Orders        OrdersConfig
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
	Env          string `envconfig:"STORELINE_APP_ENV" required:"true"`
	Port         string `envconfig:"STORELINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORELINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORELINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STORELINE_DB_DSN"`
	Driver string `envconfig:"STORELINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STORELINE_DB_HOST"`
	Port     int    `envconfig:"STORELINE_DB_PORT" default:"5432"`
	User     string `envconfig:"STORELINE_DB_USER"`
	Password string `envconfig:"STORELINE_DB_PASSWORD"`
	Name     string `envconfig:"STORELINE_DB_NAME"`
	SSLMode  string `envconfig:"STORELINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORELINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORELINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORELINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORELINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORELINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORELINE_REDIS_ADDR"`
	Password     string        `envconfig:"STORELINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORELINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORELINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORELINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORELINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORELINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORELINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STORELINE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STORELINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STORELINE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STORELINE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STORELINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STORELINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STORELINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STORELINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STORELINE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STORELINE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"STORELINE_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STORELINE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STORELINE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"STORELINE_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STORELINE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STORELINE_AUTO_MIGRATE" default:"false"`
}

type SMSConfig struct {
	GatewayURL string        `envconfig:"STORELINE_SMS_GATEWAY_URL"`
	Username   string        `envconfig:"STORELINE_SMS_USERNAME"`
	Password   string        `envconfig:"STORELINE_SMS_PASSWORD"`
	Originator string        `envconfig:"STORELINE_SMS_ORIGINATOR"`
	Timeout    time.Duration `envconfig:"STORELINE_SMS_TIMEOUT" default:"10s"`
	CodeTTL    time.Duration `envconfig:"STORELINE_SMS_CODE_TTL" default:"5m"`
	CodeDigits int           `envconfig:"STORELINE_SMS_CODE_DIGITS" default:"5"`
}

type PaymentConfig struct {
	GatewayURL    string        `envconfig:"STORELINE_PAYMENT_GATEWAY_URL"`
	MerchantID    string        `envconfig:"STORELINE_PAYMENT_MERCHANT_ID"`
	CallbackURL   string        `envconfig:"STORELINE_PAYMENT_CALLBACK_URL"`
	Timeout       time.Duration `envconfig:"STORELINE_PAYMENT_TIMEOUT" default:"15s"`
	VerifyRetries uint64        `envconfig:"STORELINE_PAYMENT_VERIFY_RETRIES" default:"3"`
}

type CatalogConfig struct {
	DefaultPageSize int `envconfig:"STORELINE_CATALOG_DEFAULT_PAGE_SIZE" default:"24"`
	MaxPageSize     int `envconfig:"STORELINE_CATALOG_MAX_PAGE_SIZE" default:"100"`
}

type OrdersConfig struct {
	ReturnWindowDays int `envconfig:"STORELINE_ORDERS_RETURN_WINDOW_DAYS" default:"7"`
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
	for _, env := range requiredDBEnvVars {
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
