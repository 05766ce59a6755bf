package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/cache"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/config"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/handler"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/queue"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/repository"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/service"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/tasks"
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

	db, err := initDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	if err := runMigrations(db, cfg.MigrationsDir); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Warn("redis not reachable, continuing; reads fall back to the store")
	}

	kafkaProducer, err := queue.NewSyncProducer(cfg.KafkaBrokers)
	if err != nil {
		log.WithError(err).Fatal("failed to create kafka producer")
	}
	defer kafkaProducer.Close()

	priceRepo := repository.NewPriceRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	redisCache := cache.NewRedis(redisClient, cfg.CacheTTL)
	alertProducer := queue.NewProducer(kafkaProducer, cfg.AlertTopic)
	suggestionProducer := queue.NewProducer(kafkaProducer, cfg.SuggestionTopic)
	spawner := tasks.NewSpawner(cfg.AlertTaskLimit, log)

	priceService := service.NewPriceService(priceRepo, historyRepo, redisCache, alertProducer, spawner, log)
	suggestionService := service.NewSuggestionService(historyRepo, redisCache, suggestionProducer, cfg.SuggestionHistorySize, log)
	alertService := service.NewAlertService(alertRepo)

	h := handler.New(priceService, suggestionService, alertService, log)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("pc-preco API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("shutdown signal received, stopping")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown error")
	}
	if !spawner.Drain(ctx) {
		log.Warn("timed out draining background tasks")
	}
	log.Info("pc-preco API stopped")
}

// initDB opens the Postgres pool, waiting for the database to come up the
// way the container environment requires.
func initDB(cfg config.Config, log *logrus.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			log.Info("database connection established")
			return db, nil
		}
		log.WithField("attempt", i+1).Info("waiting for database")
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func runMigrations(db *sqlx.DB, dir string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
