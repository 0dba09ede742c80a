package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MarketplaceBaseURL   string
	MarketplaceSearchURL string

	MaxTrackedItems    int
	PageLoadTimeoutSec int
	RateLimitMs        int

	ListenAddr     string
	CSVCapturePath string
	ChromeBin      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	baseURL := getEnv("MARKETPLACE_BASE_URL", "https://www.marketplace.com")

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dealwatch"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dealwatch123"),
		PostgresDB:       getEnv("POSTGRES_DB", "dealwatch_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MarketplaceBaseURL:   baseURL,
		MarketplaceSearchURL: getEnv("MARKETPLACE_SEARCH_URL", baseURL+"/search?query="),

		MaxTrackedItems:    getEnvInt("MAX_TRACKED_ITEMS", 10),
		PageLoadTimeoutSec: getEnvInt("PAGE_LOAD_TIMEOUT_SEC", 30),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 2000),

		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		CSVCapturePath: getEnv("CSV_CAPTURE_PATH", ""),
		ChromeBin:      getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
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
