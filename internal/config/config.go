// Package config loads the server configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	StripeSecretKey         string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret     string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeProPriceID        string `env:"STRIPE_PRO_PRICE_ID"`
	StripeEnterprisePriceID string `env:"STRIPE_ENTERPRISE_PRICE_ID"`

	// FrontendURL is where checkout redirects land after payment.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	GroqAPIKey string `env:"GROQ_API_KEY"`
	AIBaseURL  string `env:"AI_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	AIModel    string `env:"AI_MODEL" envDefault:"llama-3.3-70b-versatile"`

	// RedisAddr switches the review cache from in-process memory to
	// Redis when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
