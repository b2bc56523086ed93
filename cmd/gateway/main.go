package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/promptgate/promptgate/pkg/app/orgcontext"
	"github.com/promptgate/promptgate/pkg/app/turn"
	"github.com/promptgate/promptgate/pkg/config"
	handlers "github.com/promptgate/promptgate/pkg/handlers/http"
	"github.com/promptgate/promptgate/pkg/infra/database"
	infraLogger "github.com/promptgate/promptgate/pkg/infra/logger"
	"github.com/promptgate/promptgate/pkg/infra/providers"
	"github.com/promptgate/promptgate/pkg/infra/providers/factory"
	"github.com/promptgate/promptgate/pkg/infra/recognizer"
	"github.com/promptgate/promptgate/pkg/infra/repository"
	"github.com/promptgate/promptgate/pkg/infra/secrets"
	"github.com/promptgate/promptgate/pkg/infra/streaming"
	"github.com/promptgate/promptgate/pkg/infra/tasks"
	"github.com/promptgate/promptgate/pkg/policy"
	"github.com/promptgate/promptgate/pkg/proxy"
	"github.com/promptgate/promptgate/pkg/server"
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

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	cipher, err := secrets.NewCipher(cfg.Secrets.EncryptionKey)
	if err != nil {
		logger.Fatalf("failed to initialize secrets cipher: %v", err)
	}

	// repository
	ruleRepository := repository.NewRuleRepository(db.DB)
	chatRepository := repository.NewChatRepository(db.DB)
	connectionRepository := repository.NewConnectionRepository(db.DB)
	orgRepository := repository.NewOrgRepository(db.DB)

	// policy
	recognizerClient := recognizer.NewHTTPClient(cfg.Recognizer.BaseURL, cfg.Recognizer.Token, logger)
	providerLocator := factory.NewProviderLocator()
	judgeClient, err := providerLocator.Get(cfg.Judge.Provider)
	if err != nil {
		logger.Fatalf("failed to resolve judge provider: %v", err)
	}
	judge := policy.NewLLMJudge(judgeClient, &providers.Config{
		Credentials: providers.Credentials{ApiKey: cfg.Judge.APIKey},
		Model:       cfg.Judge.Model,
	})
	evaluator := policy.NewEvaluator(recognizerClient, judge, logger)

	// upstream streaming
	adapterLocator := streaming.NewAdapterLocator(nil)
	streamProxy := proxy.NewProxy(connectionRepository, cipher, adapterLocator, logger)

	orgContext := orgcontext.NewCachedProvider(orgRepository, redisClient, logger)

	publisher, err := tasks.NewKafkaPublisher(cfg.Kafka.Host, cfg.Kafka.Port, cfg.Kafka.Topic)
	if err != nil {
		logger.Fatalf("failed to initialize kafka publisher: %v", err)
	}
	defer publisher.Close()

	orchestrator := turn.NewOrchestrator(
		ruleRepository,
		chatRepository,
		evaluator,
		streamProxy,
		orgContext,
		publisher,
		logger,
	)

	handlerTransport := handlers.HandlerTransport{
		ChatHandler:         handlers.NewChatHandler(logger, orchestrator),
		AgentContextHandler: handlers.NewAgentContextHandler(logger, orgRepository),
		ListSessionsHandler: handlers.NewListSessionsHandler(logger, chatRepository),
		ListMessagesHandler: handlers.NewListMessagesHandler(logger, chatRepository),
	}

	srv := server.NewGatewayServer(server.GatewayServerDI{
		HandlerTransport: handlerTransport,
		Config:           cfg,
		Logger:           logger,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server...")
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down server")
		os.Exit(1)
	}
	logger.Info("server gracefully stopped")
}
