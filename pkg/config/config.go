package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SPINSHELF"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "SPINSHELF_APP_ENV"
	EnvDBDSN  = "SPINSHELF_DB_DSN"
	EnvDBHost = "SPINSHELF_DB_HOST"
	EnvDBUser = "SPINSHELF_DB_USER"
	EnvDBName = "SPINSHELF_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"SPINSHELF_APP_ENV" required:"true"`
	Port         string `envconfig:"SPINSHELF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SPINSHELF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPINSHELF_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SPINSHELF_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SPINSHELF_DB_DSN"`
	Driver string `envconfig:"SPINSHELF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SPINSHELF_DB_HOST"`
	LegacyPort     int    `envconfig:"SPINSHELF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SPINSHELF_DB_USER"`
	LegacyPassword string `envconfig:"SPINSHELF_DB_PASSWORD"`
	LegacyName     string `envconfig:"SPINSHELF_DB_NAME"`
	LegacySSLMode  string `envconfig:"SPINSHELF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SPINSHELF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPINSHELF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPINSHELF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPINSHELF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPINSHELF_REDIS_URL"`
	Address      string        `envconfig:"SPINSHELF_REDIS_ADDR"`
	Password     string        `envconfig:"SPINSHELF_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPINSHELF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPINSHELF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPINSHELF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPINSHELF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPINSHELF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPINSHELF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SPINSHELF_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SPINSHELF_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SPINSHELF_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// PricingConfig carries the checkout pricing constants. The defaults mirror
// the historical hard-coded values: 12% tax, free shipping from 200.00,
// otherwise a 25.00 flat fee.
type PricingConfig struct {
	TaxRateBps                 int `envconfig:"SPINSHELF_PRICING_TAX_RATE_BPS" default:"1200"`
	FreeShippingThresholdCents int `envconfig:"SPINSHELF_PRICING_FREE_SHIPPING_THRESHOLD_CENTS" default:"20000"`
	ShippingFeeCents           int `envconfig:"SPINSHELF_PRICING_SHIPPING_FEE_CENTS" default:"2500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SPINSHELF_AUTO_MIGRATE" default:"false"`
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
