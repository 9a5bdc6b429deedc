package bootstrap

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"
	"github.com/aihub/kbchat-go/app/controllers"
	"github.com/aihub/kbchat-go/app/router"
	"github.com/aihub/kbchat-go/internal/config"
	"github.com/aihub/kbchat-go/internal/database"
	"github.com/aihub/kbchat-go/internal/kafka"
	"github.com/aihub/kbchat-go/internal/knowledge"
	"github.com/aihub/kbchat-go/internal/logger"
	"github.com/aihub/kbchat-go/internal/repository"
	"github.com/aihub/kbchat-go/internal/services"
	"github.com/aihub/kbchat-go/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	index           *knowledge.FlatIndex
	documentService *services.DocumentService
	kafkaEnabled    bool
}

// Init bootstraps configuration, logger, database connections and the
// knowledge pipeline required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	// Database.
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}

	// Redis is optional: when disabled the status cache is skipped.
	if cfg.Redis.Enabled {
		if _, err := database.InitRedis(); err != nil {
			logger.Warn("Redis初始化失败，状态镜像降级为仅数据库", zap.Error(err))
		}
	}

	// File storage (local disk or MinIO).
	store, err := storage.NewFileStore(cfg.Knowledge)
	if err != nil {
		return nil, err
	}

	// Embedding provider, shared by ingestion and retrieval through one pool.
	embedder := knowledge.NewOpenAIEmbedder(cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel)
	pool := knowledge.NewEmbedPool(embedder, cfg.Knowledge.MaxParallel)

	// Vector index, loaded from disk if it exists.
	index, err := knowledge.OpenFlatIndex(cfg.Knowledge.IndexPath, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	app := &App{index: index}

	extractor := knowledge.NewTextExtractor()
	chunker := knowledge.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	retriever := knowledge.NewRetriever(pool, index, cfg.Knowledge.TopK, cfg.Knowledge.PreviewLength)
	docRepo := repository.NewDocumentRepository(database.DB)

	// Kafka is optional: without it document processing falls back to
	// in-process goroutines.
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.InitProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			logger.Warn("Kafka生产者初始化失败，处理任务走本地兜底", zap.Error(err))
		} else {
			producer = kafka.GetProducer()
			app.kafkaEnabled = true
		}
	}

	documentService := services.NewDocumentService(docRepo, store, extractor, chunker, pool, index, producer)
	chatService := services.NewChatService(&cfg.AI, retriever)
	app.documentService = documentService

	if app.kafkaEnabled {
		if err := kafka.InitConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{cfg.Kafka.Topic}); err != nil {
			logger.Warn("Kafka消费者初始化失败", zap.Error(err))
		} else {
			consumer := kafka.GetConsumer()
			consumer.RegisterHandler(cfg.Kafka.Topic, func(ctx context.Context, message *sarama.ConsumerMessage) error {
				var event kafka.DocumentProcessEvent
				if err := json.Unmarshal(message.Value, &event); err != nil {
					return err
				}
				documentService.Process(ctx, event.FileID)
				return nil
			})
			consumer.Start()
		}
	}

	controllers.Setup(documentService, chatService)
	router.Init()

	logger.Info("应用初始化完成",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.Bool("kafka", app.kafkaEnabled),
		zap.Bool("redis", cfg.Redis.Enabled))
	return app, nil
}

// Shutdown flushes the vector index and releases shared resources.
func (a *App) Shutdown() {
	if a.kafkaEnabled {
		if err := kafka.GetConsumer().Close(); err != nil {
			logger.Error("关闭Kafka消费者失败", zap.Error(err))
		}
		if err := kafka.GetProducer().Close(); err != nil {
			logger.Error("关闭Kafka生产者失败", zap.Error(err))
		}
	}

	if a.index != nil {
		if err := a.index.Close(); err != nil {
			logger.Error("关闭向量索引失败", zap.Error(err))
		}
	}

	if err := database.CloseRedis(); err != nil {
		logger.Error("关闭Redis失败", zap.Error(err))
	}

	logger.Sync()
}
