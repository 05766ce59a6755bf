package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/cache"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/config"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/queue"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/repository"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/service"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/worker"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	suggestionConsumer, err := queue.NewConsumer(ctx, cfg.KafkaBrokers, cfg.SuggestionTopic, cfg.SuggestionConsumerGroup, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start suggestion consumer")
	}
	defer suggestionConsumer.Close()

	alertConsumer, err := queue.NewConsumer(ctx, cfg.KafkaBrokers, cfg.AlertTopic, cfg.AlertConsumerGroup, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start alert consumer")
	}
	defer alertConsumer.Close()

	redisCache := cache.NewRedis(redisClient, cfg.CacheTTL)
	completer := worker.NewCompletionClient(cfg.IAAPIURL, cfg.IAModel, cfg.IATimeout)
	alertService := service.NewAlertService(repository.NewAlertRepository(db))

	suggestTask := worker.NewSuggestPriceTask(suggestionConsumer, redisCache, completer, cfg.WorkerPollInterval, log)
	alertTask := worker.NewCreateAlertTask(alertConsumer, alertService, cfg.WorkerPollInterval, log)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("shutdown signal received, stopping tasks")
		suggestTask.Close()
		alertTask.Close()
		// Give the loops one poll interval to notice before cancelling I/O.
		time.Sleep(cfg.WorkerPollInterval)
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		suggestTask.Run(gctx)
		return nil
	})
	g.Go(func() error {
		alertTask.Run(gctx)
		return nil
	})

	_ = g.Wait()
	log.Info("pc-preco worker stopped")
}
