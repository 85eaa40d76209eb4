package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/config"
	"github.com/mercatto/storefront/internal/database"
	"github.com/mercatto/storefront/internal/notify"
	"github.com/mercatto/storefront/internal/order"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	db, err := database.OpenPostgres(&database.Credentials{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, "postgres", cfg.MigrationsDirPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := order.NewSQLRepository(db)

	if cfg.PaymentEventsURL != "" {
		listener := notify.NewManager(
			notify.StreamDial(cfg.PaymentEventsURL),
			order.NewPaymentListener(repo, log),
			log)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event stream stopped", zap.Error(err))
			}
		}()
	}

	consumer := order.NewConsumer(repo, log, cfg.KafkaBrokers...)
	defer consumer.Close()

	log.Info("orders worker started", zap.Strings("brokers", cfg.KafkaBrokers))
	consumer.Run(ctx)
	log.Info("orders worker stopped")
}
