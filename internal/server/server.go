package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/circuitbreaker"
	"github.com/aman-churiwal/event-gateway/internal/config"
	"github.com/aman-churiwal/event-gateway/internal/handler"
	"github.com/aman-churiwal/event-gateway/internal/middleware"
	"github.com/aman-churiwal/event-gateway/internal/proxy"
	"github.com/aman-churiwal/event-gateway/internal/ratelimit"
	"github.com/aman-churiwal/event-gateway/internal/repository"
	"github.com/aman-churiwal/event-gateway/internal/service"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/aman-churiwal/event-gateway/internal/usage"
	"github.com/aman-churiwal/event-gateway/internal/webhook"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router     *gin.Engine
	config     *config.Config
	redis      *storage.RedisClient
	postgres   *storage.Postgres
	recorder   *usage.Recorder
	dispatcher *webhook.Dispatcher
	httpServer *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	clientRepo := repository.NewClientRepository(postgres)
	userRepo := repository.NewUserRepository(postgres)
	usageRepo := repository.NewUsageRecordRepository(postgres)
	subscriptionRepo := repository.NewSubscriptionRepository(postgres)
	deliveryRepo := repository.NewDeliveryAttemptRepository(postgres)

	clientService := service.NewClientService(clientRepo, redis)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.ExpiryHours)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo)
	analyticsService := service.NewAnalyticsService(usageRepo)

	limiter := ratelimit.NewFixedWindow(
		ratelimit.NewRedisCounterStore(redis),
		cfg.RateLimit.FailOpen(),
	)
	authenticator := service.NewAuthenticator(
		clientService,
		limiter,
		cfg.RateLimit.DefaultLimit,
		cfg.RateLimit.Window(),
	)

	recorder := usage.NewRecorder(
		usageRepo,
		cfg.Usage.BufferSize,
		cfg.Usage.BatchSize,
		time.Duration(cfg.Usage.FlushSeconds)*time.Second,
	)
	recorder.Start()

	dispatcher := webhook.NewDispatcher(subscriptionRepo, deliveryRepo, webhook.Options{
		MaxInFlight: cfg.Webhook.MaxInFlight,
		Timeout:     time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second,
		Retry: webhook.RetryConfig{
			MaxAttempts: cfg.Webhook.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Webhook.BaseDelayMS) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Webhook.MaxDelayMS) * time.Millisecond,
		},
		Breaker: circuitbreaker.Config{},
	})

	s := &Server{
		router:     router,
		config:     cfg,
		redis:      redis,
		postgres:   postgres,
		recorder:   recorder,
		dispatcher: dispatcher,
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	s.setupRoutes(authenticator, clientService, authService, subscriptionService, analyticsService, deliveryRepo)

	return s
}

func (s *Server) setupRoutes(
	authenticator *service.Authenticator,
	clientService *service.ClientService,
	authService *service.AuthService,
	subscriptionService *service.SubscriptionService,
	analyticsService *service.AnalyticsService,
	deliveryRepo *repository.DeliveryAttemptRepository,
) {
	clientHandler := handler.NewClientHandler(clientService)
	authHandler := handler.NewAuthHandler(authService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, deliveryRepo)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	eventHandler := handler.NewEventHandler(s.dispatcher)

	s.router.GET("/health", s.healthCheck)

	s.router.POST("/auth/login", authHandler.Login)
	s.router.POST("/auth/register", authHandler.Register)

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAuth(authService))
	{
		admin.POST("/clients", clientHandler.Create)
		admin.GET("/clients", clientHandler.List)
		admin.GET("/clients/:id", clientHandler.Get)
		admin.PATCH("/clients/:id", clientHandler.Update)
		admin.DELETE("/clients/:id", clientHandler.Deactivate)

		admin.POST("/subscriptions", subscriptionHandler.Create)
		admin.GET("/subscriptions", subscriptionHandler.List)
		admin.PATCH("/subscriptions/:id", subscriptionHandler.Update)
		admin.DELETE("/subscriptions/:id", subscriptionHandler.Deactivate)
		admin.POST("/subscriptions/:id/clear-attention", subscriptionHandler.ClearAttention)
		admin.GET("/subscriptions/:id/attempts", subscriptionHandler.Attempts)

		admin.GET("/analytics/summary", analyticsHandler.Summary)

		admin.POST("/events", eventHandler.Send)
	}

	s.setupProxyRoutes(authenticator, clientService)
}

// Each configured upstream gets its own route group: authenticate, check
// the route's scope, emit a webhook event on successful mutations, then
// forward.
func (s *Server) setupProxyRoutes(authenticator *service.Authenticator, clientService *service.ClientService) {
	gate := middleware.Gateway(authenticator, s.recorder, clientService)

	for _, svc := range s.config.Services {
		p, err := proxy.New(svc.Target)
		if err != nil {
			log.Printf("Failed to create proxy for %s: %v", svc.Path, err)
			continue
		}

		resource := svc.Path
		for len(resource) > 0 && resource[0] == '/' {
			resource = resource[1:]
		}

		group := s.router.Group(svc.Path)
		group.Use(gate)
		if svc.Scope != "" {
			group.Use(middleware.RequireScope(svc.Scope))
		}
		group.Use(middleware.EmitEvents(s.dispatcher, resource))

		group.Any("", p.Handle)
		group.Any("/*proxyPath", p.Handle)

		log.Printf("Registered proxy route: %s -> %s", svc.Path, p.Target())
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	redisHealthy := true
	if err := s.redis.Ping(ctx); err != nil {
		redisHealthy = false
		log.Printf("Redis health check failed: %v", err)
	}

	dbHealthy := true
	if err := s.postgres.Ping(ctx); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "event-gateway",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting gateway on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// Stop accepting new work, then flush what is queued
	s.dispatcher.Close()
	s.recorder.Stop()

	return err
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
