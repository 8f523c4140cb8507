package bootstrap

import (
	"context"
	"log"

	"ai-act-intake-be/internal/config"
	"ai-act-intake-be/internal/controller"
	"ai-act-intake-be/internal/pkg/logger"
	"ai-act-intake-be/internal/repository/memory"
	"ai-act-intake-be/internal/service"
	"ai-act-intake-be/internal/websocket"
	pktNats "ai-act-intake-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	IntakeController controller.IIntakeController
	IndexController  controller.IIndexController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService    service.IConsumerService
	IntakeStatsService *service.IntakeStatsService
	WebSocketHub       *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the REST server. Missing NATS or Redis only degrade
// it; a failing index bootstrap is returned.
func NewContainer(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Infrastructure
	// NATS
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
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
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Session termination stays local", err)
		rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 2. Core
	lifecycleSink := service.NewLifecycleEventSink(eventPublisher, sysLogger)
	core, err := NewCore(ctx, cfg, sysLogger, lifecycleSink)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 3. Sessions
	sessionRepo := memory.NewSessionRepository(cfg.Intake.SessionTTL)
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Rag.RebuildTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Rag.RebuildTopic, core.Index)
	c.IntakeStatsService = service.NewIntakeStatsService(natsSub, sysLogger)

	indexService := service.NewIndexService(core.Index, publisherService)
	intakeService := service.NewIntakeService(core.Flow, sessionRepo, c.WebSocketHub, c.IntakeStatsService, sysLogger)

	// 5. Controllers
	c.IntakeController = controller.NewIntakeController(intakeService)
	c.IndexController = controller.NewIndexController(indexService)
	c.HealthController = controller.NewHealthController(indexService, sessionRepo, c.WebSocketHub)

	return c, nil
}

// Start runs the background workers until ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.WebSocketHub.Run(ctx)
	c.IntakeStatsService.Start(ctx)
	if err := c.ConsumerService.Consume(ctx); err != nil {
		log.Printf("[WARN] Index rebuild consumer not started: %v", err)
	}
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
