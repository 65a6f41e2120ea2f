package bootstrap

import (
	"context"
	"log"

	"github.com/u9401066/medvision-mcp/internal/canvas"
	"github.com/u9401066/medvision-mcp/internal/config"
	"github.com/u9401066/medvision-mcp/internal/controller"
	"github.com/u9401066/medvision-mcp/internal/pkg/keylock"
	"github.com/u9401066/medvision-mcp/internal/pkg/logger"
	"github.com/u9401066/medvision-mcp/internal/pkg/serverutils"
	"github.com/u9401066/medvision-mcp/internal/repository/memory"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"
	"github.com/u9401066/medvision-mcp/internal/service"
	"github.com/u9401066/medvision-mcp/internal/websocket"
	"github.com/u9401066/medvision-mcp/pkg/audit"
	"github.com/u9401066/medvision-mcp/pkg/vectorindex"
	"github.com/u9401066/medvision-mcp/pkg/vision"
	"github.com/u9401066/medvision-mcp/pkg/visualrag"

	pktNats "github.com/u9401066/medvision-mcp/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController    controller.ISessionController
	AnalysisController   controller.IAnalysisController
	AnnotationController controller.IAnnotationController
	CanvasController     controller.ICanvasController
	EngineController     controller.IEngineController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Retrieval Engine
	WebSocketHub *websocket.Hub
	Engine       *visualrag.Engine

	Logger logger.ILogger
}

// NewContainer wires the full dependency graph. db may be nil, in which case
// everything runs against in-memory stores; handy for local single-user use
// and for the MCP-style stdio deployments that carry no Postgres.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	serverutils.ConfigureAuth(cfg.App.AuthDisabled)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[INFO] No database configured, using in-memory repositories")
		uowFactory = memory.NewRepositoryFactory()
	}

	locks := keylock.New()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Vision Providers
	embedder := vision.NewHTTPEmbeddingProvider(
		cfg.Vision.EmbeddingBaseURL,
		cfg.Vision.EmbeddingModel,
		cfg.Vision.RequestTimeout,
	)
	classifier := vision.NewHTTPClassifierProvider(
		cfg.Vision.ClassifierBaseURL,
		cfg.Vision.ClassifierModel,
		cfg.Vision.RequestTimeout,
	)
	log.Printf("[INFO] Using embedding model %s, classifier model %s",
		cfg.Vision.EmbeddingModel, cfg.Vision.ClassifierModel)

	// 4. Retrieval Index
	var index vectorindex.Index
	if cfg.Index.Backend == "pgvector" && db != nil {
		index = vectorindex.NewPgvectorIndex(
			uowFactory.NewUnitOfWork(context.Background()).ReferenceCaseRepository(),
		)
		log.Printf("[INFO] Using retrieval index: PGVECTOR")
	} else {
		memIndex, err := vectorindex.NewMemoryIndex(embedder.Dimension())
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize memory index: %v", err)
		}
		count, err := vectorindex.LoadDir(context.Background(), memIndex, cfg.Index.MetadataDir)
		if err != nil {
			log.Printf("[WARN] Failed to load reference cases from %s: %v", cfg.Index.MetadataDir, err)
		} else {
			log.Printf("[INFO] Using retrieval index: MEMORY (%d reference cases)", count)
		}
		index = memIndex
	}

	engine := visualrag.NewEngine(embedder, classifier, index, sysLogger, visualrag.Config{
		TopK:          cfg.Index.TopK,
		SearchTimeout: cfg.Index.SearchTimeout,
	})

	// 5. Infrastructure
	// NATS audit trail, optional. Everything still works without it.
	var auditPublisher audit.Publisher = audit.NoopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		auditPublisher = audit.NewNatsPublisher(natsPub, sysLogger)

		// Durable read side of the audit stream: everything published above
		// lands in the structured log, across restarts.
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else if err := audit.NewTrail(natsSub, sysLogger).Start(); err != nil {
			log.Printf("[WARN] Failed to start audit trail consumer: %v", err)
		}
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

	// WebSocket Hub + Canvas Coordinator
	wsLogger := logger.NewIsolatedLogger("logs/canvas.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	coordinator := canvas.NewCoordinator(wsHub, wsLogger)

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Index.WarmupTopic)
	consumerService := service.NewConsumerService(pubSub, cfg.Index.WarmupTopic, uowFactory, engine)

	sessionService := service.NewSessionService(uowFactory, locks, coordinator, publisherService, auditPublisher)
	annotationService := service.NewAnnotationService(uowFactory, locks, coordinator, auditPublisher)
	canvasService := service.NewCanvasService(uowFactory, locks, coordinator, annotationService)
	analysisService := service.NewAnalysisService(uowFactory, engine)

	// 7. Controllers
	return &Container{
		SessionController:    controller.NewSessionController(sessionService),
		AnalysisController:   controller.NewAnalysisController(analysisService),
		AnnotationController: controller.NewAnnotationController(annotationService),
		CanvasController:     controller.NewCanvasController(canvasService, coordinator, wsHub, wsLogger),
		EngineController:     controller.NewEngineController(analysisService),
		ConsumerService:      consumerService,
		WebSocketHub:         wsHub,
		Engine:               engine,
		Logger:               sysLogger,
	}
}
