package bootstrap

import (
	"context"
	"log"

	"mpersona-be/internal/config"
	"mpersona-be/internal/controller"
	"mpersona-be/internal/handler"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/pkg/metrics"
	"mpersona-be/internal/repository/memory"
	"mpersona-be/internal/repository/unitofwork"
	"mpersona-be/internal/service"
	"mpersona-be/internal/websocket"
	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/llm/factory"
	"mpersona-be/pkg/metering"
	pktNats "mpersona-be/pkg/nats"
	"mpersona-be/pkg/rag/prompt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AccountController controller.AccountController
	BrokerHandler     *handler.BrokerHandler

	// Background Services (Exposed for main.go to run)
	UsageService  service.IUsageService
	BrokerService service.IBrokerService

	Registry *websocket.Registry
	Metrics  *metrics.BrokerMetrics
	Logger   logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 1024},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	} else {
		c.closers = append(c.closers, natsPub.Close)
	}

	// Redis (optional second-level fact cache)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.NewBrokerMetrics(registry)

	// 4. Services
	factCache := memory.NewFactCache(rdb, cfg.Broker.FactCacheTTL, sysLogger)
	knowledgeService := service.NewKnowledgeService(uowFactory, factCache, sysLogger)
	assembler := prompt.NewAssembler(knowledgeService)

	auditPublisher := metering.NewNatsAuditPublisher(natsPub, sysLogger)
	c.UsageService = service.NewUsageService(pubSub, cfg.Broker.UsageTopic, uowFactory, auditPublisher, sysLogger)
	gate := metering.NewGate(c.UsageService, auditPublisher, sysLogger, cfg.Broker.AllowAnonymous)

	providers := factory.NewProviders(factory.Settings{
		OpenAIKey:           cfg.Providers.OpenAIKey,
		OpenAIBaseURL:       cfg.Providers.OpenAIBaseURL,
		AnthropicKey:        cfg.Providers.AnthropicKey,
		AnthropicBaseURL:    cfg.Providers.AnthropicBaseURL,
		AnthropicAPIVersion: cfg.Providers.AnthropicAPIVersion,
		AzureKey:            cfg.Providers.AzureKey,
		AzureEndpoint:       cfg.Providers.AzureEndpoint,
		AzureAPIVersion:     cfg.Providers.AzureAPIVersion,
	}, llm.NewHTTPClient(cfg.Providers.HTTPTimeout))

	status := make(map[string]interface{})
	for name, active := range providers.Status() {
		status[name] = active
	}
	sysLogger.Info("BOOTSTRAP", "Provider activation", status)

	accountService := service.NewAccountService(uowFactory, cfg.Auth.JWTSecret, sysLogger)

	// 5. Broker
	c.Registry = websocket.NewRegistry(wsLogger, c.Metrics)
	c.BrokerService = service.NewBrokerService(
		c.Registry,
		providers,
		accountService,
		gate,
		assembler,
		service.BrokerConfig{
			DefaultProvider: cfg.Broker.DefaultProvider,
			DefaultModel:    cfg.Broker.DefaultModel,
			ExchangeTimeout: cfg.Broker.ExchangeTimeout,
		},
		sysLogger,
		c.Metrics,
	)

	// 6. Controllers
	c.AccountController = controller.NewAccountController(accountService, providers, cfg.Broker.DefaultProvider)
	c.BrokerHandler = handler.NewBrokerHandler(c.BrokerService, c.Registry, wsLogger)

	return c
}

// Close releases infrastructure clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
