package server

import (
	"context"

	"livedesk/internal/config"
	"livedesk/internal/handler"
	"livedesk/internal/middleware"
	internalredis "livedesk/internal/redis"
	"livedesk/internal/repository"
	"livedesk/internal/services"
	"livedesk/internal/storage"
	"livedesk/internal/websocket"
	"livedesk/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server bundles every wired component behind one gin engine.
type Server struct {
	Engine *gin.Engine
	Hub    *websocket.Hub
	Bridge *websocket.RedisBridge
}

// New wires repositories, services, handlers and middleware into a router.
// redisClient and s3Client may be nil in reduced local setups; the features
// backed by them degrade gracefully.
func New(cfg *config.Config, db *gorm.DB, redisClient *goredis.Client, s3Client *storage.Client, log *logger.Logger) *Server {
	conversations := repository.NewConversationRepository(db)
	messages := repository.NewMessageRepository(db)
	users := repository.NewUserRepository(db)

	var notifier *services.Notifier
	var limiter *internalredis.RateLimiter
	var bridge *websocket.RedisBridge
	hub := websocket.NewHub()

	if redisClient != nil {
		notifier = services.NewNotifier(internalredis.NewPublisher(redisClient), log)
		limiter = internalredis.NewRateLimiter(redisClient, internalredis.DefaultRateLimitConfig())
		bridge = websocket.NewRedisBridge(internalredis.NewSubscriber(redisClient), hub)
	}

	authService := services.NewAuthService(users, cfg.Auth)
	userService := services.NewUserService(users)
	lifecycleService := services.NewLifecycleService(db, conversations, messages, users, notifier)
	messageService := services.NewMessageService(db, conversations, messages, notifier)
	queueService := services.NewQueueService(conversations)
	responderService := services.NewResponderService(messageService, lifecycleService)
	uploadService := services.NewUploadService(s3Client)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	conversationHandler := handler.NewConversationHandler(lifecycleService, responderService)
	messageHandler := handler.NewMessageHandler(messageService)
	queueHandler := handler.NewQueueHandler(queueService)
	uploadHandler := handler.NewUploadHandler(uploadService)

	wsHandler := websocket.NewHandler(authService, hub, websocket.NewChannelAuthorizer(conversations))

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.ErrorHandler(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "connections": hub.ClientCount()})
	})

	v1 := r.Group("/v1")

	auth := v1.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware(limiter))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(authService))
	{
		authed.GET("/me", userHandler.Me)
		authed.POST("/uploads/presign", uploadHandler.Presign)

		support := authed.Group("/support")
		{
			threads := support.Group("/conversations")
			{
				threads.POST("", conversationHandler.Start)
				threads.GET("/:id", conversationHandler.GetByID)
				threads.GET("/:id/messages", messageHandler.List)
				threads.POST("/:id/messages",
					middleware.MessageRateLimitMiddleware(limiter), messageHandler.Send)
				threads.POST("/:id/read", messageHandler.MarkRead)
				threads.POST("/:id/assist",
					middleware.MessageRateLimitMiddleware(limiter), conversationHandler.Assist)
				threads.POST("/:id/close", conversationHandler.Close)

				threads.POST("/:id/assign",
					middleware.RequireAgent(), conversationHandler.Assign)
			}

			desk := support.Group("")
			desk.Use(middleware.RequireAgent())
			{
				desk.GET("/queue", queueHandler.List)
				desk.GET("/queue/count", queueHandler.Count)
				desk.POST("/leave", conversationHandler.Leave)
				desk.POST("/back", userHandler.Back)
			}
		}
	}

	v1.GET("/ws", wsHandler.Connect)

	return &Server{Engine: r, Hub: hub, Bridge: bridge}
}

// Start runs the hub loop and, when a broker is configured, the fan-in
// bridge. Blocks only inside the goroutines it launches.
func (s *Server) Start(ctx context.Context, log *logger.Logger) {
	go s.Hub.Run(ctx)
	if s.Bridge != nil {
		go func() {
			if err := s.Bridge.Run(ctx, []string{"channel:*"}); err != nil && log != nil {
				log.Errorf("redis bridge stopped: %v", err)
			}
		}()
	}
}
