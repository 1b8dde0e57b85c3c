package bootstrap

import (
	"context"
	"log"
	"time"

	"survey-chat-be/internal/config"
	"survey-chat-be/internal/handler"
	"survey-chat-be/internal/pkg/logger"
	"survey-chat-be/internal/repository/contract"
	"survey-chat-be/internal/repository/implementation"
	"survey-chat-be/internal/repository/memory"
	redisrepo "survey-chat-be/internal/repository/redis"
	"survey-chat-be/internal/service"
	"survey-chat-be/pkg/embedding"
	"survey-chat-be/pkg/embedding/jina"
	"survey-chat-be/pkg/llm/factory"
	"survey-chat-be/pkg/rag/classify"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatHandler handler.IChatHandler

	// Background services (exposed for main.go to run)
	ConsumerService  service.IConsumerService
	PublisherService service.IPublisherService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		sysLogger.Info("Bootstrap", "Using embedding provider: OLLAMA", map[string]interface{}{"model": cfg.Ai.OllamaModel})
	} else {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		sysLogger.Info("Bootstrap", "Using embedding provider: JINA AI", nil)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	sysLogger.Info("Bootstrap", "Using LLM provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Classification table (JSON override falls back to built-in defaults)
	table := classify.DefaultTable()
	if cfg.Chat.ClassifyTablePath != "" {
		loaded, err := classify.LoadTable(cfg.Chat.ClassifyTablePath)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to load classify table, using defaults", map[string]interface{}{
				"path":  cfg.Chat.ClassifyTablePath,
				"error": err.Error(),
			})
		} else {
			table = loaded
		}
	}
	classifier := classify.NewClassifier(table)

	// 5. Session store
	sessionTTL := time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute
	var sessionRepo contract.SessionRepository
	if cfg.Chat.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		sessionRepo = redisrepo.NewSessionRepository(rdb, sessionTTL)
		sysLogger.Info("Bootstrap", "Using session store: REDIS", nil)
	} else {
		sessionRepo = memory.NewSessionRepository(sessionTTL)
		sysLogger.Info("Bootstrap", "Using session store: MEMORY", nil)
	}

	// 6. Repositories
	chunkRepo := implementation.NewReportChunkRepository(db)
	turnRepo := implementation.NewChatTurnRepository(db)

	// 7. Services
	searcher := service.NewVectorSearcher(embeddingProvider, chunkRepo)

	chatService := service.NewChatService(
		llmProvider,
		searcher,
		classifier,
		cfg.ReportSources(),
		sessionRepo,
		turnRepo,
		sysLogger,
	)

	publisherService := service.NewPublisherService(cfg.Chat.EmbedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Chat.EmbedTopic,
		chunkRepo,
		embeddingProvider,
		sysLogger,
	)

	// 8. Handlers
	return &Container{
		ChatHandler:      handler.NewChatHandler(chatService),
		ConsumerService:  consumerService,
		PublisherService: publisherService,
		Logger:           sysLogger,
	}
}
