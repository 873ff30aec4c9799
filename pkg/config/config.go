package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full service configuration, read from environment
// variables with cleanenv.
type Config struct {
	// Server
	Host string `env:"TRUST_HOST" env-default:"localhost"`
	Port uint16 `env:"TRUST_PORT" env-default:"4000"`

	// Persistence: inmem, file, or postgres
	PersistenceType string `env:"TRUST_PERSISTENCE_TYPE" env-default:"inmem"`
	DataDir         string `env:"TRUST_DATA_DIR" env-default:"./data"`

	// Secure local store
	StorePassphrase string `env:"TRUST_STORE_PASSPHRASE" env-default:""`

	// Database
	DBHost     string `env:"TRUST_PG_HOST" env-default:"localhost"`
	DBPort     uint16 `env:"TRUST_PG_PORT" env-default:"5432"`
	DBDatabase string `env:"TRUST_PG_DATABASE" env-default:"trust_db"`
	DBUser     string `env:"TRUST_PG_USER" env-default:"trust"`
	DBPassword string `env:"TRUST_PG_PASSWORD" env-default:"pwd"`
	DBSchema   string `env:"TRUST_PG_SCHEMA" env-default:"public"`

	// JWT
	JWTSecret   string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	JWTIssuer   string `env:"JWT_ISSUER" env-default:"device-trust"`
	JWTAudience string `env:"JWT_AUDIENCE" env-default:"device-trust"`

	// Token expiry durations
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" env-default:"15m"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" env-default:"168h"`

	// Prompt text
	SetupReason  string `env:"TRUST_SETUP_REASON" env-default:"Enable quick sign-in"`
	UnlockReason string `env:"TRUST_UNLOCK_REASON" env-default:"Unlock your account"`

	// Biometric prompt backing: noop (no hardware) or approve
	// (auto-approves every challenge, development only)
	PromptMode string `env:"TRUST_PROMPT_MODE" env-default:"noop"`
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseURL builds the postgres connection string
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBDatabase, c.DBSchema)
}

// ParseExpiry parses a duration string, falling back to the given
// default on empty or malformed values.
func ParseExpiry(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
