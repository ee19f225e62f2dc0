package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Server    ServerConfig
	Media     MediaConfig
	Blog      BlogConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL         string // postgres:// or sqlite:// URL
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string
}

// SessionConfig holds login session configuration
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
	Host string
}

// MediaConfig holds uploaded media configuration
type MediaConfig struct {
	Dir string
	URL string
}

// BlogConfig holds blog presentation settings
type BlogConfig struct {
	PageSize int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string
	Format       string // "json" or "text"
	ScalyrFormat bool   // Enable Scalyr-compatible JSON format
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	PrometheusPort    int
	ServiceName       string
}

const envPrefix = "BLOG"

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.blogicum")
	viper.AddConfigPath("/etc/blogicum")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:         getString("database_url", "sqlite://blogicum.db"),
			AutoMigrate: getBool("database_auto_migrate", true),
		},
		Redis: RedisConfig{
			URL: getString("redis_url", "redis://localhost:6379/0"),
		},
		Session: SessionConfig{
			CookieName: getString("session_cookie", "sessionid"),
			TTL:        GetDuration("session_ttl", 14*24*time.Hour),
			Secure:     getBool("session_secure", false),
		},
		Server: ServerConfig{
			Port: getInt("http_server_port", 8000),
			Host: getString("http_server_host", "0.0.0.0"),
		},
		Media: MediaConfig{
			Dir: getString("media_dir", "media"),
			URL: getString("media_url", "/media/"),
		},
		Blog: BlogConfig{
			PageSize: getInt("page_size", 10),
		},
		Logging: LoggingConfig{
			Level:        getString("log_level", "INFO"),
			Format:       getString("log_format", "json"),
			ScalyrFormat: getBool("log_scalyr_format", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", false),
			JaegerURL:         getString("jaeger_url", "http://localhost:14268/api/traces"),
			PrometheusEnabled: getBool("prometheus_enabled", true),
			PrometheusPort:    getInt("prometheus_port", 9090),
			ServiceName:       getString("service_name", "blogicum"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("database_url", "sqlite://blogicum.db")
	viper.SetDefault("database_auto_migrate", true)
	viper.SetDefault("redis_url", "redis://localhost:6379/0")
	viper.SetDefault("session_cookie", "sessionid")
	viper.SetDefault("session_ttl", "336h")
	viper.SetDefault("http_server_port", 8000)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("media_dir", "media")
	viper.SetDefault("media_url", "/media/")
	viper.SetDefault("page_size", 10)
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("telemetry_enabled", false)
	viper.SetDefault("prometheus_enabled", true)
	viper.SetDefault("prometheus_port", 9090)
	viper.SetDefault("service_name", "blogicum")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

// toEnvKey maps a config key to its environment variable, e.g. page_size -> BLOG_PAGE_SIZE
func toEnvKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("http_server_port must be between 1 and 65535")
	}
	if c.Blog.PageSize <= 0 || c.Blog.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session_cookie is required")
	}
	return nil
}

// GetDuration returns a duration from config key, with default
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}
