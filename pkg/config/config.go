package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed here.
	EnvPrefix = "STANTON"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"STANTON_APP_ENV" required:"true"`
	Port         string `envconfig:"STANTON_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STANTON_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STANTON_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STANTON_DB_DSN"`

	Host     string `envconfig:"STANTON_DB_HOST"`
	Port     int    `envconfig:"STANTON_DB_PORT" default:"5432"`
	User     string `envconfig:"STANTON_DB_USER"`
	Password string `envconfig:"STANTON_DB_PASSWORD"`
	Name     string `envconfig:"STANTON_DB_NAME"`
	SSLMode  string `envconfig:"STANTON_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STANTON_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STANTON_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STANTON_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STANTON_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STANTON_REDIS_URL"`
	Address      string        `envconfig:"STANTON_REDIS_ADDR"`
	Password     string        `envconfig:"STANTON_REDIS_PASSWORD"`
	DB           int           `envconfig:"STANTON_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STANTON_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STANTON_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STANTON_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STANTON_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STANTON_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STANTON_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STANTON_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STANTON_JWT_EXPIRATION_MINUTES" default:"720"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STANTON_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STANTON_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"STANTON_PUBSUB_DOMAIN_TOPIC" default:"stanton-domain-events"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"STANTON_DB_HOST": db.Host,
		"STANTON_DB_USER": db.User,
		"STANTON_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either STANTON_DB_DSN or %s are required", strings.Join(missing, ", "))
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
