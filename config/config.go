package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServerPort string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string

	SessionSecret      string
	SessionIdleTimeout time.Duration
	SecureCookies      bool

	MaxTables     int
	OverlapWindow time.Duration
	OpeningTime   time.Duration
	ClosingTime   time.Duration

	TaxRate        decimal.Decimal
	PaymentTimeout time.Duration

	UploadDir      string
	MaxUploadBytes int64

	SeedDemo bool
	LogLevel string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not load .env: %v", err)
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBPath:     getEnv("DB_PATH", "restaurant.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "restaurant_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RabbitURL: getEnv("RABBITMQ_URL", ""),

		SessionSecret:      getEnv("SESSION_SECRET", "change-me-in-production"),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SecureCookies:      getBool("SECURE_COOKIES", false),

		MaxTables:     getInt("MAX_TABLES", 40),
		OverlapWindow: getDuration("OVERLAP_WINDOW", 120*time.Minute),
		OpeningTime:   getClock("OPENING_TIME", 6*time.Hour),
		ClosingTime:   getClock("CLOSING_TIME", 22*time.Hour),

		TaxRate:        getDecimal("TAX_RATE", decimal.RequireFromString("0.08")),
		PaymentTimeout: getDuration("PAYMENT_TIMEOUT", 5*time.Second),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 5*1024*1024)),

		SeedDemo: getBool("SEED_DEMO", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getClock parses an "HH:MM" wall-clock value into an offset from midnight.
func getClock(key string, fallback time.Duration) time.Duration {
	t, err := time.Parse("15:04", os.Getenv(key))
	if err != nil {
		return fallback
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v, err := decimal.NewFromString(os.Getenv(key))
	if err != nil || v.IsNegative() {
		return fallback
	}
	return v
}
