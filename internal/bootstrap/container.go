package bootstrap

import (
	"context"
	"log"

	"github.com/capitalrow/MinaProd-sub007/internal/config"
	"github.com/capitalrow/MinaProd-sub007/internal/controller"
	"github.com/capitalrow/MinaProd-sub007/internal/handler"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/logger"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/memory"
	"github.com/capitalrow/MinaProd-sub007/internal/repository/unitofwork"
	"github.com/capitalrow/MinaProd-sub007/internal/service"
	"github.com/capitalrow/MinaProd-sub007/internal/websocket"
	"github.com/capitalrow/MinaProd-sub007/pkg/embedding"
	"github.com/capitalrow/MinaProd-sub007/pkg/enrichment"
	"github.com/capitalrow/MinaProd-sub007/pkg/llm/factory"
	"github.com/capitalrow/MinaProd-sub007/pkg/stt"
	"github.com/capitalrow/MinaProd-sub007/pkg/vad"

	pktNats "github.com/capitalrow/MinaProd-sub007/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RecordingController controller.IRecordingController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	EventStreamHandler *handler.EventStreamHandler
	WebSocketHub       *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	sttProvider, err := stt.NewProvider(stt.FactoryConfig{
		Provider:            cfg.Stt.Provider,
		WhisperBaseURL:      cfg.Stt.WhisperBaseURL,
		WhisperAPIKey:       cfg.Stt.WhisperAPIKey,
		WhisperModel:        cfg.Stt.WhisperModel,
		CloudflareAccountID: cfg.Stt.CloudflareAccountID,
		CloudflareAPIToken:  cfg.Stt.CloudflareAPIToken,
		CloudflareModel:     cfg.Stt.CloudflareModel,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize STT Provider: %v", err)
	}
	log.Printf("[INFO] Using STT Provider: %s", cfg.Stt.Provider)

	detector := vad.NewDetector(cfg.Recording.VadThreshold)

	// In-memory registry of live recording sessions
	registry := memory.NewLiveSessionRegistry()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Keys.EmbedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		uowFactory,
		embeddingProvider,
	)

	ledgerService := service.NewLedgerService(uowFactory, wsHub, natsPub, sysLogger)
	sessionService := service.NewSessionService(uowFactory, ledgerService)

	stages := []enrichment.Stage{
		enrichment.NewRefinementStage(llmProvider),
		enrichment.NewAnalyticsStage(),
		enrichment.NewTasksStage(llmProvider),
		enrichment.NewSummaryStage(llmProvider),
	}

	pipelineService := service.NewPipelineService(
		uowFactory,
		sessionService,
		ledgerService,
		registry,
		stages,
		cfg,
		sysLogger,
	)

	ingestService := service.NewIngestService(
		uowFactory,
		sessionService,
		ledgerService,
		pipelineService,
		publisherService,
		registry,
		sttProvider,
		detector,
		cfg,
		sysLogger,
	)

	transcriptService := service.NewTranscriptService(uowFactory, registry, embeddingProvider)

	// 5. Handlers
	eventStreamHandler := handler.NewEventStreamHandler(sessionService, ledgerService, wsHub, wsLogger)

	return &Container{
		RecordingController: controller.NewRecordingController(
			sessionService,
			ingestService,
			pipelineService,
			transcriptService,
		),
		ConsumerService:    consumerService,
		EventStreamHandler: eventStreamHandler,
		WebSocketHub:       wsHub,
	}
}
