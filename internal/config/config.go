package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresDSN        string
	MongoURI           string
	RedisAddr          string
	RabbitURL          string
	OrdersQueue        string
	RPCTimeout         time.Duration
	Currency           string
	PaymentFallbackURL string
	HTTPAddr           string
	OTLPEndpoint       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	rpcTimeout, _ := time.ParseDuration(os.Getenv("RPC_TIMEOUT"))
	if rpcTimeout == 0 {
		rpcTimeout = 5 * time.Second
	}

	queue := os.Getenv("ORDERS_QUEUE")
	if queue == "" {
		queue = "orders.q"
	}

	currency := os.Getenv("CURRENCY")
	if currency == "" {
		currency = "usd"
	}

	fallbackURL := os.Getenv("PAYMENT_FALLBACK_URL")
	if fallbackURL == "" {
		fallbackURL = "https://payments.unavailable/retry-later"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return &Config{
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		MongoURI:           os.Getenv("MONGO_URI"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RabbitURL:          os.Getenv("RABBIT_URL"),
		OrdersQueue:        queue,
		RPCTimeout:         rpcTimeout,
		Currency:           currency,
		PaymentFallbackURL: fallbackURL,
		HTTPAddr:           httpAddr,
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
