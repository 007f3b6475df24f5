// Command api serves the Krush marketplace messaging core.
//
// @title                       Krush market messaging API
// @version                     1.0
// @description                 Chat rooms, notification inbox and like-driven fan-out for the Krush marketplace.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/krush/market-core/docs"
	"github.com/krush/market-core/internal/api"
	"github.com/krush/market-core/internal/core/service"
	mongodb "github.com/krush/market-core/internal/infrastructure/db/mongo"
	redisdb "github.com/krush/market-core/internal/infrastructure/db/redis"
	"github.com/krush/market-core/internal/infrastructure/queue"
	"github.com/krush/market-core/internal/pkg/config"
	"github.com/krush/market-core/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "market-core",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnect mongodb")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	// --- Store ---
	rooms := mongodb.NewRoomRepository(db)
	products := mongodb.NewProductRepository(db)
	notifications := mongodb.NewNotificationRepository(db)

	// --- Fan-out ---
	engine := service.NewFanoutEngine(notifications, products, cfg.Fanout.Concurrency, logger.Component("fanout"))
	dispatcher := queue.NewDispatcher(cfg.Fanout.Workers, engine, logger.Component("dispatcher"))
	// Workers outlive the signal context so changes accepted by in-flight
	// requests are still fanned out during shutdown.
	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	dispatcher.Start(dispatchCtx)

	// --- Services ---
	chat := service.NewChatService(rooms, products, engine, logger.Component("chat"))
	inbox := service.NewInboxService(notifications, cfg.InboxLimit)
	productSvc := service.NewProductService(products, dispatcher, logger.Component("products"))

	e := api.NewRouter(api.Dependencies{
		Mongo:      mongoClient,
		Redis:      rdb,
		Chat:       chat,
		Inbox:      inbox,
		Products:   productSvc,
		Resolver:   service.NewTokenResolver(cfg.JWTSecret),
		Limiter:    redisdb.NewRateLimiter(rdb, cfg.RateLimit.MessageLimit, cfg.RateLimit.MessageWindow),
		AuthCookie: cfg.AuthCookie,
		Log:        logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("fan-out queue not drained before deadline")
		cancelDispatch()
		dispatcher.Wait()
	}
}
