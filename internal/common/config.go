package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Intake     IntakeConfig
}

// IntakeConfig holds drop-folder ingestion configuration. An empty Dir
// disables the watcher; only the HTTP upload endpoint ingests then.
type IntakeConfig struct {
	Dir string
}

// DatabaseConfig holds record-store configuration
type DatabaseConfig struct {
	Path        string
	DialTimeout time.Duration
	SeedDemo    bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string
	CORSOrigins  string
	MaxUploadMiB int64
}

// StorageConfig holds remote blob storage configuration.
// ContainerURL is a pre-authorized (SAS) write-capable container URL;
// when empty, originals are embedded inline as data URLs.
type StorageConfig struct {
	ContainerURL string
	Timeout      time.Duration
}

// ExtractionConfig holds document-understanding service configuration
type ExtractionConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        getEnv("DB_PATH", "./referrals.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			SeedDemo:    getEnvAsBool("SEED_DEMO_DATA", false),
		},
		Server: ServerConfig{
			Addr:         getEnv("HTTP_ADDR", ":8080"),
			CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
			MaxUploadMiB: int64(getEnvAsInt("MAX_UPLOAD_MIB", 20)),
		},
		Storage: StorageConfig{
			ContainerURL: getEnv("STORAGE_CONTAINER_URL", ""),
			Timeout:      getEnvAsDuration("STORAGE_TIMEOUT", 30*time.Second),
		},
		Extraction: ExtractionConfig{
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		Intake: IntakeConfig{
			Dir: getEnv("INTAKE_DIR", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "DB_PATH is required", ErrInvalidInput)
	}
	if c.Extraction.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
