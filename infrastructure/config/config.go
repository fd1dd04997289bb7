package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Storage configuration
	StorageBackend  string        `yaml:"storage_backend"`
	DatabaseURL     string        `yaml:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	EventBusName  string `yaml:"event_bus_name"`

	// Authentication
	SupabaseURL       string `yaml:"supabase_url"`
	SupabaseAnonKey   string `yaml:"supabase_anon_key"`
	SupabaseJWTSecret string `yaml:"supabase_jwt_secret"`

	// Upstream services
	GeminiAPIKey       string `yaml:"gemini_api_key"`
	GeminiModel        string `yaml:"gemini_model"`
	PerplexityAPIKey   string `yaml:"perplexity_api_key"`
	PerplexityModel    string `yaml:"perplexity_model"`
	RedditClientID     string `yaml:"reddit_client_id"`
	RedditClientSecret string `yaml:"reddit_client_secret"`
	RedditUserAgent    string `yaml:"reddit_user_agent"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	OTLPEndpoint  string   `yaml:"otlp_endpoint"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`

	// AppRateLimit is how many app analyses one IP may start per minute
	AppRateLimit int `yaml:"app_rate_limit"`
	// TrustProxyHeaders reads the client IP from X-Real-IP/X-Forwarded-For
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	// TitleGrouping selects how top pain points are grouped: exact or folded
	TitleGrouping string `yaml:"title_grouping"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		LogLevel:        "info",
		StorageBackend:  StorageMemory,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		AWSRegion:       "us-east-1",
		DynamoDBTable:   "subscout",
		RedditUserAgent: "SubScout/1.0",
		EnableMetrics:   true,
		EnableCORS:      true,
		CORSOrigins:     []string{"http://localhost:5173"},
		AppRateLimit:    5,
		TitleGrouping:   "exact",
	}
}

// LoadConfig loads configuration from, in increasing priority, the defaults,
// the YAML file named by CONFIG_FILE, a .env file and the environment.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// godotenv.Load never overrides variables that are already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", c.StorageBackend))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.MaxOpenConns)
	c.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.MaxIdleConns)
	c.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.SupabaseURL = getEnv("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseAnonKey = getEnv("SUPABASE_ANON_KEY", c.SupabaseAnonKey)
	c.SupabaseJWTSecret = getEnv("SUPABASE_JWT_SECRET", c.SupabaseJWTSecret)

	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.PerplexityAPIKey = getEnv("PERPLEXITY_API_KEY", c.PerplexityAPIKey)
	c.PerplexityModel = getEnv("PERPLEXITY_MODEL", c.PerplexityModel)
	c.RedditClientID = getEnv("REDDIT_CLIENT_ID", c.RedditClientID)
	c.RedditClientSecret = getEnv("REDDIT_CLIENT_SECRET", c.RedditClientSecret)
	c.RedditUserAgent = getEnv("REDDIT_USER_AGENT", c.RedditUserAgent)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.AppRateLimit = getEnvInt("APP_RATE_LIMIT", c.AppRateLimit)
	c.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", c.TrustProxyHeaders)
	c.TitleGrouping = strings.ToLower(getEnv("TITLE_GROUPING", c.TitleGrouping))
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.TitleGrouping != "exact" && c.TitleGrouping != "folded" {
		return fmt.Errorf("unknown TITLE_GROUPING %q", c.TitleGrouping)
	}

	if c.AppRateLimit <= 0 {
		return fmt.Errorf("APP_RATE_LIMIT must be positive")
	}

	if c.IsProduction() {
		if c.SupabaseJWTSecret == "" && c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_JWT_SECRET or SUPABASE_URL is required in production")
		}
		if c.StorageBackend == StorageMemory {
			return fmt.Errorf("the memory backend cannot be used in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
