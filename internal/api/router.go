package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/api/handler"
	"github.com/qs3c/hrsync_server/internal/api/middleware"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	catalogHandler   *handler.CatalogHandler
	checkoutHandler  *handler.CheckoutHandler
	chatHandler      *handler.ChatHandler
	websocketHandler *handler.WebSocketHandler
	billingHandler   *handler.BillingHandler // 仅 billing.mode=local
	sessions         middleware.SessionLookup
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	catalogHandler *handler.CatalogHandler,
	checkoutHandler *handler.CheckoutHandler,
	chatHandler *handler.ChatHandler,
	websocketHandler *handler.WebSocketHandler,
	billingHandler *handler.BillingHandler,
	sessions middleware.SessionLookup,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		catalogHandler:   catalogHandler,
		checkoutHandler:  checkoutHandler,
		chatHandler:      chatHandler,
		websocketHandler: websocketHandler,
		billingHandler:   billingHandler,
		sessions:         sessions,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.TraceID())
	engine.Use(middleware.CORS(r.cfg.CORS))

	jwtSecret := r.cfg.JWT.Secret
	requireLogin := middleware.Auth(jwtSecret, r.sessions)

	api := engine.Group("/api")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 公开接口 - 套餐和报价
		api.GET("/plans", r.catalogHandler.List)
		api.GET("/pricing/quote", r.catalogHandler.Quote)

		// 聊天，按 IP 限流
		api.POST("/ai-chat",
			middleware.RateLimit(r.cfg.Chat.RateLimit, r.cfg.Chat.RateBurst, r.chatHandler.RateLimited),
			r.chatHandler.Chat)

		// 选套餐允许未登录，返回登录跳转
		api.POST("/checkout/select", middleware.OptionalAuth(jwtSecret), r.checkoutHandler.Select)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(requireLogin)
		{
			authenticated.POST("/auth/logout", r.authHandler.Logout)
			authenticated.GET("/auth/me", r.authHandler.Me)

			// 用户
			authenticated.GET("/user/profile", r.userHandler.GetProfile)

			// 结账
			co := authenticated.Group("/checkout")
			{
				co.GET("", r.checkoutHandler.Current)
				co.DELETE("", r.checkoutHandler.Close)
				co.POST("/open", r.checkoutHandler.Open)
				co.PUT("/years", r.checkoutHandler.SetYears)
				co.PUT("/coupon", r.checkoutHandler.SetCoupon)
				co.POST("/coupon/apply", r.checkoutHandler.ApplyCoupon)
				co.GET("/quote", r.checkoutHandler.Quote)
				co.POST("/submit", r.checkoutHandler.Submit)
				co.POST("/complete", r.checkoutHandler.Complete)
				co.POST("/dismiss", r.checkoutHandler.Dismiss)
				co.POST("/retry", r.checkoutHandler.Retry)
				co.GET("/receipt", r.userHandler.GetReceipt)
				co.GET("/last-failure", r.userHandler.GetLastFailure)
			}
		}

		// 本地计费后端
		if r.billingHandler != nil {
			billing := api.Group("/billing")
			{
				billing.GET("/plans", r.billingHandler.Plans)
				billing.POST("/create-order", requireLogin, r.billingHandler.CreateOrder)
				billing.POST("/verify-payment", middleware.OptionalAuth(jwtSecret), r.billingHandler.VerifyPayment)
			}
		}
	}

	return engine
}
