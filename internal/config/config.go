package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Role policies applied when a verified login updates an existing profile.
const (
	RolePolicyOverwrite = "overwrite"
	RolePolicyMerge     = "merge"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"PORT" envDefault:"3000"`
	DevMode bool   `env:"DEV_MODE" envDefault:"true"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	DynamoBootstrap bool `env:"DYNAMO_BOOTSTRAP" envDefault:"false"`

	CodeTTL    time.Duration `env:"CODE_TTL" envDefault:"10m"`
	RolePolicy string        `env:"ROLE_POLICY" envDefault:"overwrite" validate:"oneof=overwrite merge"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	RedisURL       string        `env:"REDIS_URL"`
	SendCodeWindow time.Duration `env:"SEND_CODE_WINDOW" envDefault:"10m"`
	SendCodeMax    int           `env:"SEND_CODE_MAX" envDefault:"5" validate:"min=1"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins
	DebugEndpoints bool     `env:"DEBUG_ENDPOINTS" envDefault:"false"`
	TrustedProxy   bool     `env:"TRUSTED_PROXY" envDefault:"false"` // honor X-Forwarded-For / X-Real-IP
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	LoginCodes   string `env:"DYNAMO_TABLE_LOGIN_CODES" envDefault:"login_codes"`
	UserProfiles string `env:"DYNAMO_TABLE_USER_PROFILES" envDefault:"user_profiles"`
	Identities   string `env:"DYNAMO_TABLE_IDENTITIES" envDefault:"identities"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// JWTEnabled reports whether both key paths are configured.
func (c *Config) JWTEnabled() bool {
	return c.JWTPrivateKeyPath != "" && c.JWTPublicKeyPath != ""
}
