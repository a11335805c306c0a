package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Store backends for survey sessions
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the configuration for the candidate-match service
type Config struct {
	// Service configuration
	ServiceName string
	APIPort     int
	HealthPort  int
	LogLevel    string
	SiteURL     string
	CatalogPath string

	// Session configuration
	StoreBackend  string
	SessionTTLMin int

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// MQTT configuration
	EnableMQTT   bool
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Postgres configuration
	EnablePostgres             bool
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ServiceName: "candidate-match",
		APIPort:     3000,
		HealthPort:  8080,
		LogLevel:    "info",
		SiteURL:     "http://localhost:3000",
		CatalogPath: "",

		StoreBackend:  StoreMemory,
		SessionTTLMin: 120,

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		EnableMQTT:   false,
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		EnablePostgres:             false,
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "match",
		PostgresPassword:           "",
		PostgresDB:                 "match",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,
	}
}

// LoadFromEnv loads configuration from environment variables with MATCH_ prefix
func (c *Config) LoadFromEnv() {
	// Service configuration
	if v := os.Getenv("MATCH_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("MATCH_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
	if v := os.Getenv("MATCH_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("MATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MATCH_SITE_URL"); v != "" {
		c.SiteURL = v
	}
	if v := os.Getenv("MATCH_CATALOG_PATH"); v != "" {
		c.CatalogPath = v
	}

	// Session configuration
	if v := os.Getenv("MATCH_STORE_BACKEND"); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv("MATCH_SESSION_TTL_MIN"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.SessionTTLMin = ttl
		}
	}

	// Redis configuration
	if v := os.Getenv("MATCH_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("MATCH_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("MATCH_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("MATCH_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// MQTT configuration
	if v := os.Getenv("MATCH_ENABLE_MQTT"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.EnableMQTT = enable
		}
	}
	if v := os.Getenv("MATCH_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("MATCH_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("MATCH_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("MATCH_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("MATCH_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Postgres configuration
	if v := os.Getenv("MATCH_ENABLE_POSTGRES"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.EnablePostgres = enable
		}
	}
	if v := os.Getenv("MATCH_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("MATCH_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("MATCH_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("MATCH_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("MATCH_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("MATCH_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("MATCH_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = max
		}
	}
	if v := os.Getenv("MATCH_POSTGRES_MAX_IDLE_CONNECTIONS"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxIdleConnections = max
		}
	}
	if v := os.Getenv("MATCH_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostgresConnMaxLifetime = d
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// ExitOnError: Parse never returns an error here
	_ = c.LoadFromFlagSet(pflag.CommandLine, os.Args[1:])
}

// LoadFromFlagSet registers the config flags on fs and parses args
func (c *Config) LoadFromFlagSet(fs *pflag.FlagSet, args []string) error {
	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.SiteURL, "site-url", c.SiteURL, "Public site URL used in share links")
	fs.StringVar(&c.CatalogPath, "catalog", c.CatalogPath, "Candidate catalog YAML (empty uses the built-in catalog)")

	// Session flags
	fs.StringVar(&c.StoreBackend, "store", c.StoreBackend, "Session store backend (memory, redis)")
	fs.IntVar(&c.SessionTTLMin, "session-ttl-min", c.SessionTTLMin, "Session lifetime in minutes")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// MQTT flags
	fs.BoolVar(&c.EnableMQTT, "enable-mqtt", c.EnableMQTT, "Publish match results to MQTT")
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Postgres flags
	fs.BoolVar(&c.EnablePostgres, "enable-postgres", c.EnablePostgres, "Persist match results to Postgres")
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")
	fs.IntVar(&c.PostgresMaxConnections, "postgres-max-connections", c.PostgresMaxConnections, "Postgres max open connections")
	fs.IntVar(&c.PostgresMaxIdleConnections, "postgres-max-idle-connections", c.PostgresMaxIdleConnections, "Postgres max idle connections")
	fs.DurationVar(&c.PostgresConnMaxLifetime, "postgres-conn-max-lifetime", c.PostgresConnMaxLifetime, "Postgres connection max lifetime")

	return fs.Parse(args)
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.SessionTTLMin <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("Redis host is required")
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return fmt.Errorf("Redis port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory or redis)", c.StoreBackend)
	}

	if c.EnableMQTT {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT broker is required")
		}
		if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
			return fmt.Errorf("MQTT port must be between 1 and 65535")
		}
	}

	if c.EnablePostgres {
		if c.PostgresHost == "" {
			return fmt.Errorf("Postgres host is required")
		}
		if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
			return fmt.Errorf("Postgres port must be between 1 and 65535")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("Postgres database is required")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// SessionTTL returns the session lifetime as a duration
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.PostgresHost),
		fmt.Sprintf("port=%d", c.PostgresPort),
		fmt.Sprintf("user=%s", c.PostgresUser),
		fmt.Sprintf("dbname=%s", c.PostgresDB),
		fmt.Sprintf("sslmode=%s", c.PostgresSSLMode),
	}
	if c.PostgresPassword != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.PostgresPassword))
	}
	return strings.Join(parts, " ")
}

// SiteBase returns the site URL without a trailing slash
func (c *Config) SiteBase() string {
	return strings.TrimRight(c.SiteURL, "/")
}
