package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	SMTP         SMTPConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"TERRAVIA_APP_ENV" required:"true"`
	Port         string `envconfig:"TERRAVIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TERRAVIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TERRAVIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TERRAVIA_DB_DSN"`
	Driver string `envconfig:"TERRAVIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TERRAVIA_DB_HOST"`
	LegacyPort     int    `envconfig:"TERRAVIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TERRAVIA_DB_USER"`
	LegacyPassword string `envconfig:"TERRAVIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"TERRAVIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"TERRAVIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TERRAVIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TERRAVIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TERRAVIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TERRAVIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either TERRAVIA_DB_DSN or TERRAVIA_DB_HOST/USER/NAME must be set")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.LegacyUser),
		url.QueryEscape(d.LegacyPassword),
		d.LegacyHost,
		d.LegacyPort,
		d.LegacyName,
		d.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TERRAVIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TERRAVIA_REDIS_ADDR"`
	Password     string        `envconfig:"TERRAVIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TERRAVIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TERRAVIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TERRAVIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TERRAVIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TERRAVIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TERRAVIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TERRAVIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TERRAVIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TERRAVIA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TERRAVIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TERRAVIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TERRAVIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TERRAVIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TERRAVIA_ARGON_KEY_LEN" default:"32"`
}

type SMTPConfig struct {
	Host     string `envconfig:"TERRAVIA_SMTP_HOST"`
	Port     int    `envconfig:"TERRAVIA_SMTP_PORT" default:"587"`
	Username string `envconfig:"TERRAVIA_SMTP_USER"`
	Password string `envconfig:"TERRAVIA_SMTP_PASS"`
	From     string `envconfig:"TERRAVIA_SMTP_FROM" default:"notificaciones@terravia.com"`
}

// Enabled reports whether SMTP delivery has enough configuration to run.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type GCPConfig struct {
	ProjectID string `envconfig:"TERRAVIA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"TERRAVIA_PUBSUB_DOMAIN_TOPIC" default:"terravia-domain-events"`
	DomainSubscription string `envconfig:"TERRAVIA_PUBSUB_DOMAIN_SUBSCRIPTION" default:"terravia-domain-events-notifications"`
}

type OutboxConfig struct {
	PollInterval   time.Duration `envconfig:"TERRAVIA_OUTBOX_POLL_INTERVAL" default:"2s"`
	BatchSize      int           `envconfig:"TERRAVIA_OUTBOX_BATCH_SIZE" default:"50"`
	MaxAttempts    int           `envconfig:"TERRAVIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"TERRAVIA_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TERRAVIA_AUTO_MIGRATE" default:"false"`
}
