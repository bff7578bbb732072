package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/ikkim/shopsphere-storefront/config"
	"github.com/ikkim/shopsphere-storefront/internal/app/controller"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/session"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	"github.com/ulule/limiter/v3"
)

type Router struct {
	productController  *controller.ProductController
	adminController    *controller.AdminController
	analysisController *controller.AnalysisController
	authController     *controller.AuthController
	registry           *session.Registry
	cookies            sessions.Store
	limiterStore       limiter.Store
	renderer           *view.Renderer
	config             *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	adminController *controller.AdminController,
	analysisController *controller.AnalysisController,
	authController *controller.AuthController,
	registry *session.Registry,
	cookies sessions.Store,
	limiterStore limiter.Store,
	renderer *view.Renderer,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:  productController,
		adminController:    adminController,
		analysisController: analysisController,
		authController:     authController,
		registry:           registry,
		cookies:            cookies,
		limiterStore:       limiterStore,
		renderer:           renderer,
		config:             cfg,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()
	router.HTMLRender = r.renderer
	if err := router.SetTrustedProxies(r.config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"message":  "ShopSphere storefront is running",
			"sessions": r.registry.Len(),
		})
	})

	authLimit, err := middleware.RateLimitMiddleware(r.limiterStore, r.config.RateLimit.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth rate limit: %w", err)
	}

	pages := router.Group("/")
	pages.Use(middleware.SessionMiddleware(r.cookies, r.registry))
	{
		pages.GET("/", r.productController.Home)
		pages.GET("/products", r.productController.ListProducts)
		pages.GET("/product/:productId", r.productController.GetProduct)
		pages.POST("/product/:productId/reviews", r.productController.CreateReview)

		pages.GET("/signup", r.authController.SignupForm)
		pages.POST("/signup", authLimit, r.authController.Signup)
		pages.GET("/login", r.authController.LoginForm)
		pages.POST("/login", authLimit, r.authController.Login)
		pages.POST("/logout", r.authController.Logout)

		admin := pages.Group("/admin")
		{
			admin.GET("", r.adminController.Dashboard)
			admin.GET("/reviews", r.adminController.ListReviews)
			admin.POST("/reviews/:reviewId/delete", r.adminController.DeleteReview)

			admin.GET("/analyze", r.analysisController.AnalyzePage)
			admin.POST("/analyze", r.analysisController.RunAnalysis)
			admin.POST("/analyze/reviews/:reviewId/delete", r.analysisController.DeleteFlagged)
			admin.GET("/analyze/export", r.analysisController.Export)
			admin.GET("/analyze/live", r.analysisController.Live)
		}
	}

	router.NoRoute(middleware.SessionMiddleware(r.cookies, r.registry), controller.NotFound)

	return router, nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Requested-With"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
