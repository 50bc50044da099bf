package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Database driver constants
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// Token settings
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AuthCodeTTL     time.Duration

	// Signing key material (PEM)
	JWTPrivateKey string
	JWTPublicKey  string
	JWTKeyID      string

	// Verification settings
	ClockSkew time.Duration

	// Introspection cache
	IntrospectionCacheTTL time.Duration

	// Credential hashing
	BcryptCost int

	// Session settings
	SessionSecret string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Cache backend; empty address selects the in-memory cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Management API; empty leaves the surface open for dev setups
	AdminToken string
}

// Load reads configuration from the environment, consulting a .env file
// when present. Values with defaults never fail; required values are
// checked by Validate.
func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", DriverSQLite)
	var dsn string
	if driver == DriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "identity.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),

		Issuer:          getEnv("ISSUER", ""),
		AccessTokenTTL:  getEnvSeconds("ACCESS_TOKEN_TTL_SECONDS", 1800),
		RefreshTokenTTL: getEnvSeconds("REFRESH_TOKEN_TTL_SECONDS", 604800),
		AuthCodeTTL:     getEnvSeconds("AUTH_CODE_TTL_SECONDS", 600),

		JWTPrivateKey: getEnv("JWT_PRIVATE_KEY", ""),
		JWTPublicKey:  getEnv("JWT_PUBLIC_KEY", ""),
		JWTKeyID:      getEnv("JWT_KID", "identity-key-1"),

		ClockSkew: getEnvSeconds("CLOCK_SKEW_SECONDS", 0),

		IntrospectionCacheTTL: getEnvSeconds("INTROSPECTION_CACHE_TTL_SECONDS", 300),

		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		AdminToken: getEnv("ADMIN_TOKEN", ""),
	}
}

// Validate reports settings without which the server cannot issue tokens.
func (c *Config) Validate() error {
	if c.Issuer == "" {
		return errors.New("config: ISSUER is required")
	}
	if c.JWTPrivateKey == "" || c.JWTPublicKey == "" {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required")
	}
	if c.BcryptCost < 12 {
		return fmt.Errorf("config: BCRYPT_COST must be at least 12, got %d", c.BcryptCost)
	}
	if c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres {
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
