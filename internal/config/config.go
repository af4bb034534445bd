package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL    string
	SessionCookie string
	RedisAddr     string
	Profile       string
	MySQLDSN      string
	PollInterval  time.Duration
	PollTimeout   time.Duration
}

// Load reads configuration from the environment, with an optional .env file.
// MySQLDSN may be empty, in which case the payment journal is disabled.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	return &Config{
		APIBaseURL:    getEnv("STOREFRONT_API_URL", "https://starva.shop/api/mobile"),
		SessionCookie: os.Getenv("STOREFRONT_SESSION_COOKIE"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Profile:       getEnv("STOREFRONT_PROFILE", "default"),
		MySQLDSN:      os.Getenv("MYSQL_DSN"),
		PollInterval:  getDuration("PAYMENT_POLL_INTERVAL", 3*time.Second),
		PollTimeout:   getDuration("PAYMENT_POLL_TIMEOUT", 120*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}
