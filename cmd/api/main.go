package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/address"
	"github.com/mercatto/storefront/internal/cart"
	"github.com/mercatto/storefront/internal/catalog"
	"github.com/mercatto/storefront/internal/checkout"
	"github.com/mercatto/storefront/internal/config"
	"github.com/mercatto/storefront/internal/coupon"
	"github.com/mercatto/storefront/internal/database"
	"github.com/mercatto/storefront/internal/httpapi"
	"github.com/mercatto/storefront/internal/order"
	"github.com/mercatto/storefront/internal/payment"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background())

	cartRepo := cart.NewMongoRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	cartCache := cart.NewRedisCache(redisClient)

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

	shipping, err := shippingPolicy(cfg)
	if err != nil {
		log.Fatal("invalid shipping config", zap.Error(err))
	}

	cartService := cart.NewService(cartRepo, cartCache, log)
	couponService := coupon.NewService(coupon.NewSQLRepository(db), log)
	gateway := payment.NewGateway(cfg.PaymentGatewayURL, log)
	sessionRepo := checkout.NewSQLRepository(db)
	controller := checkout.NewController(sessionRepo, cartService, couponService, gateway, shipping, log)
	orderService := order.NewService(order.NewSQLRepository(db), log)
	catalogRepo := catalog.NewRepository(db)
	cepClient := address.NewCEPClient(cfg.CepLookupURL)

	poller := checkout.NewOutboxPoller(sessionRepo, log, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	router := httpapi.NewRouter(httpapi.Handlers{
		Cart:     httpapi.NewCartHandler(cartService, log),
		Checkout: httpapi.NewCheckoutHandler(controller, log),
		Orders:   httpapi.NewOrdersHandler(orderService, log),
		Products: httpapi.NewProductsHandler(catalogRepo, log),
		Coupons:  httpapi.NewCouponHandler(couponService, log),
		CEP:      httpapi.NewCEPHandler(cepClient, log),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		log.Info("api listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

func shippingPolicy(cfg *config.Config) (checkout.ShippingPolicy, error) {
	fee, err := decimal.NewFromString(cfg.ShippingFlatFee)
	if err != nil {
		return checkout.ShippingPolicy{}, err
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return checkout.ShippingPolicy{}, err
	}
	return checkout.ShippingPolicy{FlatFee: fee, FreeThreshold: threshold}, nil
}
