package bootstrap

import (
	"context"
	"log"

	"ai-chat-platform-be/internal/config"
	"ai-chat-platform-be/internal/controller"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/internal/repository/implementation"
	"ai-chat-platform-be/internal/repository/memory"
	"ai-chat-platform-be/internal/service"
	"ai-chat-platform-be/internal/websocket"
	"ai-chat-platform-be/pkg/cache"
	"ai-chat-platform-be/pkg/llm"
	"ai-chat-platform-be/pkg/llm/factory"
	pkgNats "ai-chat-platform-be/pkg/nats"
	"ai-chat-platform-be/pkg/queue"
	"ai-chat-platform-be/pkg/queue/channel"
	"ai-chat-platform-be/pkg/queue/jetstream"
	"ai-chat-platform-be/pkg/quota"
	"ai-chat-platform-be/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// WebSocket transport
	ChatWsHandler *websocket.ChatHandler

	// Background Services (Exposed for main.go to run)
	WorkerService service.IWorkerService

	// Infrastructure handles main.go may need on shutdown
	JobQueue        queue.Queue
	EventSubscriber *pkgNats.Subscriber
	Logger          logger.ILogger
}

// NewContainer wires the object graph. A nil db switches every repository to
// its in-memory implementation, which is how development and tests run
// without Postgres.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Repositories
	var (
		conversationRepo contract.ConversationRepository
		jobRepo          contract.JobRepository
		quotaRepo        contract.QuotaRepository
	)
	if db != nil {
		conversationRepo = implementation.NewConversationRepository(db)
		jobRepo = implementation.NewJobRepository(db)
		quotaRepo = implementation.NewQuotaRepository(db)
	} else {
		log.Println("[INFO] No database configured, using in-memory repositories")
		conversationRepo = memory.NewConversationRepository()
		jobRepo = memory.NewJobRepository()
		quotaRepo = memory.NewQuotaRepository()
	}

	// 3. Redis (only dialed when a redis-backed component asks for it)
	var rdb *redis.Client
	needsRedis := cfg.Cache.Backend == "redis" || cfg.RateLimit.Backend == "redis"
	if needsRedis {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 4. Cache
	var cacheStore cache.Cache
	if cfg.Cache.Backend == "redis" && rdb != nil {
		cacheStore = cache.NewRedisCache(rdb, sysLogger)
		log.Println("[INFO] Using Cache Backend: REDIS")
	} else {
		cacheStore = cache.NewMemoryCache()
		log.Println("[INFO] Using Cache Backend: MEMORY")
	}

	// 5. Rate Limiter
	var windowStore ratelimit.WindowStore
	if cfg.RateLimit.Backend == "redis" && rdb != nil {
		windowStore = ratelimit.NewRedisStore(rdb)
		log.Println("[INFO] Using Rate Limit Backend: REDIS")
	} else {
		windowStore = ratelimit.NewMemoryStore()
		log.Println("[INFO] Using Rate Limit Backend: MEMORY")
	}
	limiter := ratelimit.NewLimiter(windowStore, cfg.RateLimit.Max, cfg.RateLimit.Window, sysLogger)

	// 6. Quota
	quotaStore := quota.NewStore(quotaRepo, quota.Limits{
		Basic: cfg.Quota.BasicDaily,
		Pro:   cfg.Quota.ProDaily,
	})

	// 7. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)
	llmClient := llm.NewClient(llmProvider, cfg.Ai.Timeout, cfg.Ai.StreamTimeout, sysLogger)

	// 8. Job Queue
	var jobQueue queue.Queue
	if cfg.Queue.Backend == "jetstream" {
		jsQueue, err := jetstream.NewQueue(
			cfg.App.NatsURL,
			cfg.Queue.Topic,
			jobRepo,
			cfg.Queue.RetryBackoff,
			sysLogger,
		)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize JetStream queue: %v", err)
		}
		jobQueue = jsQueue
		log.Println("[INFO] Using Queue Backend: JETSTREAM")
	} else {
		jobQueue = channel.NewQueue(cfg.Queue.Topic, jobRepo, cfg.Queue.RetryBackoff, sysLogger)
		log.Println("[INFO] Using Queue Backend: CHANNEL")
	}

	// 9. Event Bus (job lifecycle notifications)
	// Terminal job events always end up as websocket frames via the hub.
	// With JetStream they take the broker round trip (publisher -> durable
	// subscriber -> relay) so every instance sees them; otherwise the relay
	// is the publisher and the events stay in-process.
	hub := websocket.NewJobEventHub(sysLogger)
	relay := websocket.NewJobEventRelay(hub)
	var publisher service.IEventPublisher = relay
	var eventSubscriber *pkgNats.Subscriber
	if cfg.Queue.Backend == "jetstream" {
		natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			sub, err := pkgNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
			if err != nil {
				log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			} else {
				for subject, durable := range map[string]string{
					"events.JOB_COMPLETED": "chat-ws-job-completed",
					"events.JOB_FAILED":    "chat-ws-job-failed",
				} {
					if err := sub.Subscribe(subject, durable, relay.Handle); err != nil {
						log.Printf("[WARN] Failed to subscribe to %s: %v", subject, err)
					}
				}
				eventSubscriber = sub
			}
		}
	}

	// 10. Services
	chatService := service.NewChatService(
		conversationRepo,
		quotaStore,
		llmClient,
		jobQueue,
		cacheStore,
		cfg.Cache.ListTTL,
		cfg.Cache.ConversationTTL,
		cfg.Queue.MaxAttempts,
		sysLogger,
	)
	workerService := service.NewWorkerService(
		jobQueue,
		conversationRepo,
		llmClient,
		publisher,
		sysLogger,
	)

	// 11. Controllers & Handlers
	chatController := controller.NewChatController(chatService, limiter, sysLogger)
	chatWsHandler := websocket.NewChatHandler(chatService, limiter, hub, sysLogger)

	return &Container{
		ChatController:  chatController,
		ChatWsHandler:   chatWsHandler,
		WorkerService:   workerService,
		JobQueue:        jobQueue,
		EventSubscriber: eventSubscriber,
		Logger:          sysLogger,
	}
}
