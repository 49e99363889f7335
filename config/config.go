package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AdminFailurePolicy decides where an admin-gated navigation lands when the
// role lookup itself fails.
type AdminFailurePolicy string

const (
	// AdminFailureLenient sends the user to the dashboard on lookup errors
	AdminFailureLenient AdminFailurePolicy = "lenient"
	// AdminFailureStrict sends the user to the forbidden page on lookup errors
	AdminFailureStrict AdminFailurePolicy = "strict"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Supabase      SupabaseConfig
	Guard         GuardConfig
	Facilities    FacilitiesConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// SupabaseConfig holds the hosted backend (GoTrue) configuration
type SupabaseConfig struct {
	URL         string // Project URL, e.g. https://xyzcompany.supabase.co
	AnonKey     string // Public API key sent as the apikey header
	JWTSecret   string // HS256 secret used to verify access tokens locally
	HTTPTimeout time.Duration
}

// GuardConfig holds navigation guard and session cookie settings
type GuardConfig struct {
	AdminFailurePolicy AdminFailurePolicy
	Defaced            bool // Serve the maintenance route table
	CookieName         string
	CookieSecure       bool
	CookieMaxAge       int
}

// FacilitiesConfig holds the upstream facilities catalog configuration
type FacilitiesConfig struct {
	URL     string
	Timeout time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://*"}),
		},
		Database: loadDatabaseConfig(),
		Supabase: SupabaseConfig{
			URL:         strings.TrimSuffix(getEnv("SUPABASE_URL", ""), "/"),
			AnonKey:     getEnv("SUPABASE_ANON_KEY", ""),
			JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
			HTTPTimeout: getEnvAsDuration("SUPABASE_HTTP_TIMEOUT", 10*time.Second),
		},
		Guard: GuardConfig{
			AdminFailurePolicy: AdminFailurePolicy(strings.ToLower(getEnv("GUARD_ADMIN_FAILURE_POLICY", string(AdminFailureLenient)))),
			Defaced:            getEnvAsBool("PORTAL_DEFACED", false),
			CookieName:         getEnv("SESSION_COOKIE_NAME", "sb-access-token"),
			CookieSecure:       getEnvAsBool("SESSION_COOKIE_SECURE", true),
			CookieMaxAge:       getEnvAsInt("SESSION_COOKIE_MAX_AGE", 3600),
		},
		Facilities: FacilitiesConfig{
			URL:     getEnv("FACILITIES_URL", "https://api.restful-api.dev/objects/facilities"),
			Timeout: getEnvAsDuration("FACILITIES_TIMEOUT", 10*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Supabase validation (required in production)
	if c.IsProduction() {
		if c.Supabase.URL == "" {
			return fmt.Errorf("supabase URL is required in production")
		}
		if c.Supabase.AnonKey == "" {
			return fmt.Errorf("supabase anon key is required in production")
		}
		if c.Supabase.JWTSecret == "" {
			return fmt.Errorf("supabase JWT secret is required in production")
		}
	}

	switch c.Guard.AdminFailurePolicy {
	case AdminFailureLenient, AdminFailureStrict:
	default:
		return fmt.Errorf("invalid admin failure policy %q: must be lenient or strict", c.Guard.AdminFailurePolicy)
	}

	if c.Guard.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// SupabaseConfigured reports whether the auth backend can be reached
func (c *Config) SupabaseConfigured() bool {
	return c.Supabase.URL != "" && c.Supabase.AnonKey != ""
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Database:        getEnv("DB_NAME", "postgres"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
