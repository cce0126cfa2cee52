package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/adionit7/devstarter"
	fiberadapter "github.com/adionit7/devstarter/adapters/fiber"
	pgxadapter "github.com/adionit7/devstarter/adapters/pgx"
	redisadapter "github.com/adionit7/devstarter/adapters/redis"
	"github.com/adionit7/devstarter/adapters/stripeapi"
	"github.com/adionit7/devstarter/core"
	"github.com/adionit7/devstarter/internal/config"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	storage := pgxadapter.New(pool)
	if err := storage.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	var cache core.Cache
	if cfg.RedisAddr != "" {
		redisCache := redisadapter.New(redisadapter.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		cache = redisCache
	}

	var provider core.BillingProvider
	if cfg.StripeSecretKey != "" {
		provider = stripeapi.New(cfg.StripeSecretKey, logger)
	}

	app := fiber.New(fiber.Config{AppName: "devstarter"})

	_, err = devstarter.New(devstarter.Config{
		Secret:       cfg.JWTSecret,
		Database:     storage,
		HTTP:         fiberadapter.New(app),
		Provider:     provider,
		CacheAdapter: cache,
		TokenTTL:     cfg.TokenTTL,
		Logger:       logger,
		Billing: devstarter.BillingConfig{
			WebhookSecret: cfg.StripeWebhookSecret,
			PriceIDs: map[devstarter.Plan]string{
				devstarter.PlanPro:        cfg.StripeProPriceID,
				devstarter.PlanEnterprise: cfg.StripeEnterprisePriceID,
			},
			SuccessURL: cfg.FrontendURL + "/dashboard?checkout=success",
			CancelURL:  cfg.FrontendURL + "/pricing?checkout=cancelled",
		},
		Review: devstarter.ReviewConfig{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
		},
	})
	if err != nil {
		return fmt.Errorf("assemble application: %w", err)
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("server listening")
		srvErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}

		logger.Info("shutdown completed")
	}

	return nil
}
