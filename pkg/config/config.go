package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const EnvPrefix = "SCANNIMART"

// Every field carries its full SCANNIMART_* name; envconfig falls back to the
// bare tag when the nested PREFIX_FIELD_TAG key is unset.
type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig
	AI    AIConfig
	Gate  GateConfig
}

// Load reads the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Gate.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env         string `envconfig:"SCANNIMART_APP_ENV" default:"dev"`
	Port        string `envconfig:"SCANNIMART_PORT" default:"3000"`
	Name        string `envconfig:"SCANNIMART_APP_NAME" default:"Scannimart API v1.0"`
	LogLevel    string `envconfig:"SCANNIMART_LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"SCANNIMART_LOG_FORMAT" default:"json"`
	CORSOrigins string `envconfig:"SCANNIMART_CORS_ORIGINS" default:"*"`

	// Seeded on first boot when no account with this username exists.
	AdminUsername string `envconfig:"SCANNIMART_ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"SCANNIMART_ADMIN_PASSWORD" default:"admin123"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	URL      string `envconfig:"SCANNIMART_DATABASE_URL"`
	Host     string `envconfig:"SCANNIMART_DB_HOST" default:"localhost"`
	Port     string `envconfig:"SCANNIMART_DB_PORT" default:"5432"`
	User     string `envconfig:"SCANNIMART_DB_USER" default:"postgres"`
	Password string `envconfig:"SCANNIMART_DB_PASSWORD"`
	Name     string `envconfig:"SCANNIMART_DB_NAME" default:"scannimart"`
	TimeZone string `envconfig:"SCANNIMART_DB_TIMEZONE" default:"UTC"`

	MaxIdleConns    int           `envconfig:"SCANNIMART_DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"SCANNIMART_DB_MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"SCANNIMART_DB_CONN_MAX_LIFETIME" default:"1h"`
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.TimeZone,
	)
}

// RedisConfig is optional. An empty URL keeps gate sessions and order events in-process.
type RedisConfig struct {
	URL         string        `envconfig:"SCANNIMART_REDIS_URL"`
	PoolSize    int           `envconfig:"SCANNIMART_REDIS_POOL_SIZE" default:"10"`
	DialTimeout time.Duration `envconfig:"SCANNIMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	Channel     string        `envconfig:"SCANNIMART_REDIS_EVENTS_CHANNEL" default:"scannimart:events"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type JWTConfig struct {
	Secret          string `envconfig:"SCANNIMART_JWT_SECRET" default:"change-me-in-production"`
	Issuer          string `envconfig:"SCANNIMART_JWT_ISSUER" default:"scannimart"`
	ExpirationHours int    `envconfig:"SCANNIMART_JWT_EXPIRATION_HOURS" default:"24"`
}

type AIConfig struct {
	APIKey string `envconfig:"SCANNIMART_GEMINI_API_KEY"`
	Model  string `envconfig:"SCANNIMART_GEMINI_MODEL" default:"gemini-2.0-flash-001"`
}

func (a AIConfig) Enabled() bool {
	return a.APIKey != ""
}

type GateConfig struct {
	SessionTTL          time.Duration `envconfig:"SCANNIMART_GATE_SESSION_TTL" default:"30m"`
	WeightToleranceRate float64       `envconfig:"SCANNIMART_GATE_WEIGHT_TOLERANCE_RATE" default:"0.10"`
	WeightToleranceAbs  float64       `envconfig:"SCANNIMART_GATE_WEIGHT_TOLERANCE_GRAMS" default:"50"`
	HighRiskAmount      string        `envconfig:"SCANNIMART_GATE_HIGH_RISK_AMOUNT" default:"5000"`
	MediumRiskAmount    string        `envconfig:"SCANNIMART_GATE_MEDIUM_RISK_AMOUNT" default:"1000"`
	MediumRiskItemCount int           `envconfig:"SCANNIMART_GATE_MEDIUM_RISK_ITEMS" default:"5"`
	AuditSampleRate     int           `envconfig:"SCANNIMART_GATE_AUDIT_SAMPLE_PERCENT" default:"10"`
}

// HighRisk parses SCANNIMART_GATE_HIGH_RISK_AMOUNT.
func (g GateConfig) HighRisk() decimal.Decimal {
	return decimal.RequireFromString(g.HighRiskAmount)
}

// MediumRisk parses SCANNIMART_GATE_MEDIUM_RISK_AMOUNT.
func (g GateConfig) MediumRisk() decimal.Decimal {
	return decimal.RequireFromString(g.MediumRiskAmount)
}

func (g GateConfig) validate() error {
	if _, err := decimal.NewFromString(g.HighRiskAmount); err != nil {
		return fmt.Errorf("invalid SCANNIMART_GATE_HIGH_RISK_AMOUNT %q: %w", g.HighRiskAmount, err)
	}
	if _, err := decimal.NewFromString(g.MediumRiskAmount); err != nil {
		return fmt.Errorf("invalid SCANNIMART_GATE_MEDIUM_RISK_AMOUNT %q: %w", g.MediumRiskAmount, err)
	}
	if g.AuditSampleRate < 0 || g.AuditSampleRate > 100 {
		return fmt.Errorf("SCANNIMART_GATE_AUDIT_SAMPLE_PERCENT must be within 0..100, got %d", g.AuditSampleRate)
	}
	if g.WeightToleranceRate < 0 || g.WeightToleranceAbs < 0 {
		return fmt.Errorf("weight tolerances must not be negative")
	}
	return nil
}
