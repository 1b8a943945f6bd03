package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// List endpoint page sizes
	Pagination PaginationConfig

	// Bulk create/delete limits
	Bulk BulkConfig

	// Import configuration
	Import ImportConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration

	// pings before New gives up on a server that is still starting
	ConnectAttempts int
}

// PaginationConfig holds default and maximum page sizes per entity
type PaginationConfig struct {
	EmployeeDefault int
	EmployeeMax     int
	ArticleDefault  int
	ArticleMax      int
}

// BulkConfig caps the number of items a bulk request may carry
type BulkConfig struct {
	MaxCreate int
	MaxDelete int
}

// ImportConfig holds import job settings
type ImportConfig struct {
	BatchSize     int
	MaxUploadSize int64 // in bytes
	UploadDir     string
	Workers       int // 0 sizes the pool from the CPU count
	PollInterval  time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "records"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:     getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			ConnectAttempts: getIntEnv("DB_CONNECT_ATTEMPTS", 5),
		},
		Pagination: PaginationConfig{
			EmployeeDefault: getIntEnv("EMPLOYEE_PAGE_SIZE", 50),
			EmployeeMax:     getIntEnv("EMPLOYEE_MAX_PAGE_SIZE", 500),
			ArticleDefault:  getIntEnv("ARTICLE_PAGE_SIZE", 50),
			ArticleMax:      getIntEnv("ARTICLE_MAX_PAGE_SIZE", 1000),
		},
		Bulk: BulkConfig{
			MaxCreate: getIntEnv("BULK_MAX_CREATE", 1000),
			MaxDelete: getIntEnv("BULK_MAX_DELETE", 100),
		},
		Import: ImportConfig{
			BatchSize:     getIntEnv("IMPORT_BATCH_SIZE", 1000),
			MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 100*1024*1024), // 100MB
			UploadDir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			Workers:       getIntEnv("IMPORT_WORKERS", 0),
			PollInterval:  getDurationEnv("IMPORT_POLL_INTERVAL", 2*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Pagination: PaginationConfig{
			EmployeeDefault: 50,
			EmployeeMax:     500,
			ArticleDefault:  50,
			ArticleMax:      1000,
		},
		Bulk: BulkConfig{
			MaxCreate: 1000,
			MaxDelete: 100,
		},
		Import: ImportConfig{
			BatchSize:     1000,
			MaxUploadSize: 100 * 1024 * 1024,
			UploadDir:     os.TempDir(),
			PollInterval:  2 * time.Second,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	p := c.Pagination
	if p.EmployeeDefault < 1 || p.EmployeeMax < p.EmployeeDefault {
		return fmt.Errorf("EMPLOYEE_PAGE_SIZE must be between 1 and EMPLOYEE_MAX_PAGE_SIZE")
	}
	if p.ArticleDefault < 1 || p.ArticleMax < p.ArticleDefault {
		return fmt.Errorf("ARTICLE_PAGE_SIZE must be between 1 and ARTICLE_MAX_PAGE_SIZE")
	}
	if c.Bulk.MaxCreate < 1 || c.Bulk.MaxDelete < 1 {
		return fmt.Errorf("BULK_MAX_CREATE and BULK_MAX_DELETE must be positive")
	}
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive")
	}
	if c.Import.Workers < 0 || c.Import.PollInterval <= 0 {
		return fmt.Errorf("IMPORT_WORKERS must not be negative and IMPORT_POLL_INTERVAL must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
