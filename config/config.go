package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	BaseURL         string
	DefaultCategory string

	MaxPages       int
	MaxConcurrency int
	MaxRetries     int
	ScrapeDetails  bool

	NavTimeout   time.Duration
	MinPageDelay time.Duration
	MaxPageDelay time.Duration

	Headless  bool
	ChromeBin string
	ProxyFile string

	ExpansionURL     string
	ExpansionTimeout time.Duration

	CSVOutputPath string
	ReportPath    string
	ListenAddr    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL:         getEnv("BASE_URL", "https://www.craigslist.org"),
		DefaultCategory: getEnv("DEFAULT_CATEGORY", "sss"),

		MaxPages:       getEnvInt("MAX_PAGES", 3),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		ScrapeDetails:  getEnvBool("SCRAPE_DETAILS", false),

		NavTimeout:   getEnvDuration("NAV_TIMEOUT_MS", 60000),
		MinPageDelay: getEnvDuration("MIN_PAGE_DELAY_MS", 1500),
		MaxPageDelay: getEnvDuration("MAX_PAGE_DELAY_MS", 3000),

		Headless:  getEnvBool("HEADLESS", true),
		ChromeBin: getEnv("CHROME_BIN", ""),
		ProxyFile: getEnv("PROXY_FILE", ""),

		ExpansionURL:     getEnv("EXPANSION_URL", ""),
		ExpansionTimeout: getEnvDuration("EXPANSION_TIMEOUT_MS", 10000),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
		ReportPath:    getEnv("REPORT_PATH", "./output/report.json"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "classifieds_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}
