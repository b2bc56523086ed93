package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/promptgate/promptgate/pkg/app/enrichment"
	"github.com/promptgate/promptgate/pkg/config"
	"github.com/promptgate/promptgate/pkg/infra/database"
	infraLogger "github.com/promptgate/promptgate/pkg/infra/logger"
	"github.com/promptgate/promptgate/pkg/infra/providers"
	"github.com/promptgate/promptgate/pkg/infra/providers/factory"
	"github.com/promptgate/promptgate/pkg/infra/repository"
	"github.com/promptgate/promptgate/pkg/infra/tasks"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	if err := config.Load("./config"); err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	chatRepository := repository.NewChatRepository(db.DB)

	providerLocator := factory.NewProviderLocator()
	generatorClient, err := providerLocator.Get(cfg.Judge.Provider)
	if err != nil {
		logger.Fatalf("failed to resolve generator provider: %v", err)
	}
	generator := enrichment.NewLLMGenerator(generatorClient, providers.Config{
		Credentials: providers.Credentials{ApiKey: cfg.Judge.APIKey},
		Model:       cfg.Judge.Model,
	})

	handler := enrichment.NewHandler(chatRepository, generator, logger)

	consumer, err := tasks.NewKafkaConsumer(
		cfg.Kafka.Host,
		cfg.Kafka.Port,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		handler,
		logger,
	)
	if err != nil {
		logger.Fatalf("failed to initialize kafka consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		cancel()
	}()

	logger.Info("worker consuming enrichment jobs")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("consumer stopped with error")
	}
	logger.Info("worker stopped")
}
