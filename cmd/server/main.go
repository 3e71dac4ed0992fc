package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/api"
	"github.com/qs3c/hrsync_server/internal/api/handler"
	"github.com/qs3c/hrsync_server/internal/checkout"
	"github.com/qs3c/hrsync_server/internal/database"
	"github.com/qs3c/hrsync_server/internal/pkg/backend"
	"github.com/qs3c/hrsync_server/internal/pkg/cron"
	"github.com/qs3c/hrsync_server/internal/pkg/llm"
	"github.com/qs3c/hrsync_server/internal/pkg/pubsub"
	"github.com/qs3c/hrsync_server/internal/pkg/razorpay"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/pkg/ws"
	"github.com/qs3c/hrsync_server/internal/repository"
	"github.com/qs3c/hrsync_server/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 会话 + 登录态广播
	sessionTTL := time.Duration(cfg.JWT.ExpireHours) * time.Hour
	sessions := session.NewService(session.NewRedisStore(rdb), sessionTTL)
	sessions.Subscribe(pubsub.NewPublisher(rdb).Observer())

	wsHub := ws.NewHub()
	go func() {
		if err := pubsub.NewSubscriber(rdb).Subscribe(ctx, wsHub.OnAuthChanged); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("auth_changed subscriber stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	// 计费后端：remote 走 HTTP，local 在进程内
	var (
		planSource     service.PlanSource
		orders         checkout.OrderBackend
		authenticator  service.Authenticator
		billingHandler *handler.BillingHandler
		expirer        cron.SubscriptionExpirer
		profileSubs    *repository.SubscriptionRepository
	)
	if cfg.LocalBilling() {
		if n, err := planRepo.SeedDefaults(); err != nil {
			log.Fatalf("Failed to seed plans: %v", err)
		} else if n > 0 {
			log.Printf("Seeded %d default plans", n)
		}

		billingService := service.NewBillingService(planRepo, subRepo, razorpay.NewClient(cfg.Razorpay), cfg.Billing.Currency)
		planSource = billingService
		orders = service.NewLocalOrderBackend(billingService)
		authenticator = service.NewLocalAuthenticator(userRepo)
		billingHandler = handler.NewBillingHandler(billingService)
		expirer = subRepo
		profileSubs = subRepo
		log.Println("Billing mode: local")
	} else {
		client := backend.NewClient(cfg.Backend)
		if !client.Configured() {
			log.Println("Warning: backend.base_url is empty, checkout and login will report configuration errors")
		}
		planSource = client
		orders = checkout.NewRemoteBackend(client)
		authenticator = service.NewRemoteAuthenticator(client)
		log.Println("Billing mode: remote")
	}

	// 聊天
	completer, err := llm.New(ctx, cfg.Chat)
	if err != nil {
		log.Printf("Chat disabled: %v", err)
		completer = nil
	}
	if closer, ok := completer.(io.Closer); ok {
		defer closer.Close()
	}

	// 初始化 Service
	catalogService := service.NewCatalogService(planSource, time.Duration(cfg.Catalog.CacheTTLSeconds)*time.Second)
	authService := service.NewAuthService(authenticator, sessions, cfg)
	profileService := service.NewProfileService(sessions, receiptRepo, attemptRepo, profileSubs)
	chatService := service.NewChatService(completer)

	orchestrator := checkout.NewOrchestrator(
		catalogService,
		sessions,
		razorpay.NewGateway(cfg.Razorpay),
		orders,
		receiptRepo,
		attemptRepo,
		checkout.Options{
			LoginRedirect:   cfg.Checkout.LoginRedirect,
			SuccessRedirect: cfg.Checkout.SuccessRedirect,
			FailureRedirect: cfg.Checkout.FailureRedirect,
			Currency:        cfg.Billing.Currency,
		},
	)

	// 定时任务
	janitor := cron.NewService(orchestrator, expirer, cfg.Checkout.IdleMinutes, cfg.Billing.PendingExpireHour)
	janitor.Start()
	defer janitor.Stop()

	// 初始化 Handler
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(profileService),
		handler.NewCatalogHandler(catalogService),
		handler.NewCheckoutHandler(orchestrator),
		handler.NewChatHandler(chatService),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
		billingHandler,
		sessions,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal")

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
