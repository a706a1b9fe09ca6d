package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"qbank-admin/internal/config"
	"qbank-admin/internal/controller"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/internal/repository/memory"
	"qbank-admin/internal/repository/unitofwork"
	"qbank-admin/internal/service"
	"qbank-admin/pkg/events"
	"qbank-admin/pkg/imagestore"
	"qbank-admin/pkg/ingestion/httpparser"
	pktNats "qbank-admin/pkg/nats"
)

type Container struct {
	// Controllers
	QuestionImportController controller.IQuestionImportController
	AnswerImportController   controller.IAnswerImportController
	FileController           controller.IFileController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases the connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS is optional; imports still work without the event stream.
	var eventPublisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// 3. Staging storage
	sessionRepo := memory.NewStagingSessionRepository(cfg.Staging.TTL, cfg.Staging.CleanupInterval)

	var images imagestore.Store
	switch cfg.Staging.ImageBackend {
	case "redis":
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
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		images = imagestore.NewRedisStore(rdb)
		log.Printf("[INFO] Using staged image store: REDIS")
	default:
		images = imagestore.NewMemoryStore(cfg.Staging.TTL, cfg.Staging.CleanupInterval)
		log.Printf("[INFO] Using staged image store: MEMORY")
	}

	// Sessions dropped by the janitor take their images with them.
	sessionRepo.OnExpired(func(sessionID string) {
		n, err := images.Purge(context.Background(), sessionID)
		if err != nil {
			sysLogger.Warn("STAGING", "Failed to purge images of expired session", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
			return
		}
		sysLogger.Info("STAGING", "Staging session expired", map[string]interface{}{"session_id": sessionID, "images": n})
	})

	parser := httpparser.NewProvider(cfg.Staging.ParserURL)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Keys.SessionConsumedTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Keys.SessionConsumedTopic,
		images,
		sysLogger,
	)

	fileService := service.NewFileService(uowFactory, cfg.App.UploadDir, eventPublisher, sysLogger)
	questionImportService := service.NewQuestionImportService(
		uowFactory,
		sessionRepo,
		images,
		parser,
		fileService,
		publisherService,
		eventPublisher,
		sysLogger,
	)
	answerImportService := service.NewAnswerImportService(
		uowFactory,
		sessionRepo,
		parser,
		publisherService,
		eventPublisher,
		sysLogger,
	)

	// 5. Controllers
	c.QuestionImportController = controller.NewQuestionImportController(questionImportService)
	c.AnswerImportController = controller.NewAnswerImportController(answerImportService)
	c.FileController = controller.NewFileController(fileService)

	return c
}
