package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	StoreDriver string
	SQLitePath  string
	MaxRetries  int

	VideosFile    string
	CreatorsFile  string
	PlatformsFile string
	OutputDir     string

	ClusterCount int
	ClusterSeed  int64
	TopN         int
	TopMetric    string

	LogLevel string
}

// Load reads the given .env file (or ./.env when empty) and returns a
// populated Config struct.
func Load(envFile string) *Config {
	var err error
	if envFile != "" {
		err = godotenv.Load(envFile)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "shortform_signals"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),
		SQLitePath:  getEnv("SQLITE_PATH", "./output/shortform_signals.db"),
		MaxRetries:  getEnvInt("MAX_RETRIES", 3),

		VideosFile:    getEnv("VIDEOS_FILE", "./shortform_videos.csv"),
		CreatorsFile:  getEnv("CREATORS_FILE", "./shortform_creators.csv"),
		PlatformsFile: getEnv("PLATFORMS_FILE", "./shortform_platforms.csv"),
		OutputDir:     getEnv("OUTPUT_DIR", "./output"),

		ClusterCount: getEnvInt("CLUSTER_COUNT", 4),
		ClusterSeed:  int64(getEnvInt("CLUSTER_SEED", 42)),
		TopN:         getEnvInt("TOP_N", 10),
		TopMetric:    getEnv("TOP_METRIC", "retention_rate"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects settings no run could succeed with.
func (c *Config) Validate() error {
	if c.StoreDriver != DriverPostgres && c.StoreDriver != DriverSQLite {
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ClusterCount < 1 {
		return fmt.Errorf("config: CLUSTER_COUNT must be positive, got %d", c.ClusterCount)
	}
	if c.TopN < 0 {
		return fmt.Errorf("config: TOP_N must not be negative, got %d", c.TopN)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.StoreDriver == DriverSQLite {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
