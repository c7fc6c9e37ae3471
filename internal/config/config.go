package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration
type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Backend BackendConfig
	Query   QueryConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DataConfig holds the paths of the three raw data sources
type DataConfig struct {
	AgriPath string
	RainPath string
	SoilPath string
}

// BackendConfig holds model backend (Gemini API) configuration
type BackendConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// QueryConfig holds generated-query execution configuration
type QueryConfig struct {
	MaxResultRows int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 180*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Data: DataConfig{
			AgriPath: getEnv("AGRI_DATA_PATH", "agri.csv"),
			RainPath: getEnv("RAIN_DATA_PATH", "rain.csv"),
			SoilPath: getEnv("SOIL_DATA_PATH", "soil.csv"),
		},
		Backend: BackendConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
			Timeout:     getEnvDuration("GEMINI_TIMEOUT", 120*time.Second),
			MaxAttempts: getEnvInt("GEMINI_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDuration("GEMINI_RETRY_BASE_DELAY", 1*time.Second),
		},
		Query: QueryConfig{
			MaxResultRows: getEnvInt("QUERY_MAX_RESULT_ROWS", 500),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
// An unset API key is deliberately not a validation error: the server starts
// without it and rejects question requests with a configuration error instead.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Data.AgriPath == "" || c.Data.RainPath == "" || c.Data.SoilPath == "" {
		return fmt.Errorf("all three data source paths must be set")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL must not be empty")
	}

	if c.Backend.Model == "" {
		return fmt.Errorf("backend model must not be empty")
	}

	if c.Backend.MaxAttempts < 1 {
		return fmt.Errorf("backend max attempts must be at least 1, got %d", c.Backend.MaxAttempts)
	}

	if c.Query.MaxResultRows < 1 {
		return fmt.Errorf("query max result rows must be at least 1, got %d", c.Query.MaxResultRows)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// BackendConfigured reports whether a model backend API key is present
func (c *Config) BackendConfigured() bool {
	return c.Backend.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
