package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/altastore/catalog-service/config"
	"github.com/altastore/catalog-service/pkg/broker"
	"github.com/altastore/catalog-service/pkg/cache"
	"github.com/altastore/catalog-service/pkg/database/postgres"
	"github.com/altastore/catalog-service/pkg/i18n"
	"github.com/altastore/catalog-service/pkg/imaging"
	"github.com/altastore/catalog-service/pkg/logger"
	"github.com/altastore/catalog-service/pkg/search"

	catH "github.com/altastore/catalog-service/internal/category/handler"
	catRepoPkg "github.com/altastore/catalog-service/internal/category/repository"
	catUCPkg "github.com/altastore/catalog-service/internal/category/usecase"

	prodH "github.com/altastore/catalog-service/internal/product/handler"
	prodListenerPkg "github.com/altastore/catalog-service/internal/product/listener"
	prodRepoPkg "github.com/altastore/catalog-service/internal/product/repository"
	prodUCPkg "github.com/altastore/catalog-service/internal/product/usecase"

	voucherRepoPkg "github.com/altastore/catalog-service/internal/voucher/repository"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	if err := i18n.Init(); err != nil {
		log.Fatalf("failed to load locales: %v", err)
	}

	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	prodRepo := prodRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	voucherRepo := voucherRepoPkg.NewPGRepository(db)

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ProducerTopic,
	})
	defer producer.Close()

	consumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ConsumerTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer consumer.Close()
	appLogger.Info("connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))

	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	normalizer := imaging.NewJPEGNormalizer()

	prodUC := prodUCPkg.NewProductUseCase(prodRepo, voucherRepo, normalizer, redisClient, esClient, producer, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(catRepo, normalizer, appLogger)

	stockListener := prodListenerPkg.NewStockListener(consumer, prodUC, appLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stockListener.Start(ctx)

	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	catHandler := catH.NewCategoryHandler(catUC, appLogger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(appLogger))

	api := e.Group("/api/v1")
	prodHandler.Register(api)
	catHandler.Register(api)

	go func() {
		appLogger.Info("starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := e.Start(cfg.Server.HTTPPort); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("server stopped")
}

func requestLogger(log logger.ZapLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
