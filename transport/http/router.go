package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/layer-3/flowkey/metrics"
	"github.com/layer-3/flowkey/service"
)

// RouterOptions carries everything the router needs besides the services
type RouterOptions struct {
	BasePath       string
	AllowOrigins   []string
	TrustedProxies []string     // IPs or CIDRs allowed to set X-Forwarded-For; empty means RemoteAddr only
	Limiter        *RateLimiter // nil disables rate limiting
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, profileService *service.ProfileService, opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	logger := opts.Logger.Named("http")

	// With no trusted proxies ClientIP is the socket peer and X-Forwarded-For is ignored
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, using remote address only", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(Recovery(logger))
	router.Use(RequestLogger(logger, opts.Metrics))
	router.Use(cors.New(corsConfig(opts.AllowOrigins)))

	handlers := NewAuthHandlers(authService, profileService, logger)

	router.GET("/", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group(opts.BasePath)

	// Challenge routes
	challenge := api.Group("")
	if opts.Limiter != nil {
		challenge.Use(opts.Limiter.Middleware(opts.Metrics))
	}
	{
		challenge.GET("/token", handlers.Token)
		challenge.GET("/verify", handlers.Verify)
	}

	api.GET("/access", handlers.Access)

	// Protected routes
	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, handlers))
	{
		protected.GET("/me", handlers.Me)
		protected.PUT("/layouts", handlers.Layouts)
		protected.POST("/logout", handlers.Logout)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
