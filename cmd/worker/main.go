package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market/infra/postgres"
	"market/infra/rabbitmq"
	"market/internal/consumers"
	"market/pkg/config"
	"market/pkg/events"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, _ := zapConfig.Build()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	zap.L().Info("Catalog Worker Service starting...")

	// Load application config
	appConfig := config.Read()
	zap.L().Info("Worker config loaded",
		zap.String("serviceName", appConfig.ServiceName),
		zap.String("rabbitMQURL", appConfig.RabbitMQURL),
	)

	// Validate RabbitMQ URL
	if appConfig.RabbitMQURL == "" {
		zap.L().Fatal("RABBITMQ_URL is required for worker service")
	}

	pgRepository := postgres.NewPgRepository(
		appConfig.PostgresHost,
		appConfig.PostgresDatabase,
		appConfig.PostgresUsername,
		appConfig.PostgresPassword,
		appConfig.PostgresPort,
	)
	defer pgRepository.Close()

	tradeHandler := consumers.NewTradeEventHandler(pgRepository, zap.L())
	rankingHandler := consumers.NewRankingEventHandler(pgRepository, zap.L())

	// The trade service publishes settlements; a completed trade is the only
	// writer of the deal flag.
	tradeConsumerConfig := rabbitmq.ConsumerConfig{
		Exchange:      events.TradeExchange,
		QueueName:     "market.trade.completed.v1",
		RoutingKeys:   []string{"trade.completed.v1"},
		ServiceName:   appConfig.ServiceName,
		PrefetchCount: 10,
	}

	tradeConsumer, err := rabbitmq.NewConsumer(appConfig.RabbitMQURL, tradeConsumerConfig)
	if err != nil {
		zap.L().Fatal("Failed to create trade consumer", zap.Error(err))
	}
	defer tradeConsumer.Close()

	// The ranking service recomputes popularity; the catalog only stores it.
	rankingConsumerConfig := rabbitmq.ConsumerConfig{
		Exchange:      events.RankingExchange,
		QueueName:     "market.ranking.updated.v1",
		RoutingKeys:   []string{"ranking.updated.v1"},
		ServiceName:   appConfig.ServiceName,
		PrefetchCount: 10,
	}

	rankingConsumer, err := rabbitmq.NewConsumer(appConfig.RabbitMQURL, rankingConsumerConfig)
	if err != nil {
		zap.L().Fatal("Failed to create ranking consumer", zap.Error(err))
	}
	defer rankingConsumer.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		zap.L().Info("Starting trade event consumer...")
		if err := tradeConsumer.Consume(ctx, tradeHandler.HandleEvent); err != nil {
			if err != context.Canceled {
				zap.L().Error("Trade consumer error", zap.Error(err))
			}
		}
	}()

	go func() {
		zap.L().Info("Starting ranking event consumer...")
		if err := rankingConsumer.Consume(ctx, rankingHandler.HandleEvent); err != nil {
			if err != context.Canceled {
				zap.L().Error("Ranking consumer error", zap.Error(err))
			}
		}
	}()

	// Start connection pool monitoring
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := pgRepository.GetPoolStats()
				zap.L().Info("Connection pool stats",
					zap.Int("max_open", stats["max_open_connections"].(int)),
					zap.Int("open", stats["open_connections"].(int)),
					zap.Int("in_use", stats["in_use"].(int)),
					zap.Int("idle", stats["idle"].(int)),
					zap.Int64("wait_count", stats["wait_count"].(int64)),
					zap.Int64("wait_duration_ms", stats["wait_duration_ms"].(int64)),
				)
			}
		}
	}()

	zap.L().Info("Worker service started successfully. Waiting for events...")
	zap.L().Info("Consuming from exchanges",
		zap.String("tradeExchange", events.TradeExchange),
		zap.String("rankingExchange", events.RankingExchange),
	)

	// Wait for shutdown signal
	<-sigChan
	zap.L().Info("Shutdown signal received, stopping worker service...")
	cancel()

	zap.L().Info("Worker service stopped gracefully")
}
