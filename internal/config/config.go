package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port string

	// CartStore selects the persistence backend: "redis", "postgres" or "memory".
	CartStore string
	CartDBDSN string
	RedisAddr string

	RabbitURL string

	OrderAPIURL   string
	OrderAPIToken string
	SubmitTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:          getenv("PORT", "8081"),
		CartStore:     strings.ToLower(getenv("CART_STORE", "memory")),
		CartDBDSN:     getenv("CART_DB_DSN", ""),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RabbitURL:     getenv("RABBITMQ_URL", ""),
		OrderAPIURL:   getenv("ORDER_API_URL", "https://orders.hostservice.local"),
		OrderAPIToken: getenv("ORDER_API_TOKEN", ""),
		SubmitTimeout: parseDuration(getenv("SUBMIT_TIMEOUT", "15s"), 15*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
