package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artcry/vpn-service/internal/config"
	"github.com/artcry/vpn-service/internal/service"
)

type Server struct {
	router  *gin.Engine
	handler *Handler
	admin   *AdminHandler
	cfg     *config.Config
}

// User API rate limiter: 30 requests per user per minute.
var userRateLimiter = NewRateLimiter(30, time.Minute)

func NewServer(cfg *config.Config, lifecycle *service.LifecycleService, catalog *service.CatalogService) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		handler: NewHandler(lifecycle),
		admin:   NewAdminHandler(catalog),
		cfg:     cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "vpn-service",
		})
	})

	// Internal API, called by the chat front-end. The front-end multiplexes
	// all users through one client, so no per-IP limiting here: the shared
	// secret is the gate.
	internal := s.router.Group("/api/vpn")
	internal.Use(InternalAuthMiddleware(s.cfg.InternalSecret))
	{
		internal.POST("/invoice", s.handler.CreateInvoice)
		internal.POST("/payment-success", s.handler.PaymentSuccess)
		internal.POST("/renew-invoice", s.handler.CreateRenewInvoice)
		internal.POST("/renew-success", s.handler.RenewSuccess)

		internal.GET("/servers", s.handler.ListServers)
		internal.GET("/users/:tg_id/credentials", s.handler.GetUserCredentials)
	}

	// User API, requires JWT
	user := s.router.Group("/api/v1")
	user.Use(JWTAuthMiddleware(s.cfg.JWT.SecretKey))
	user.Use(RateLimitMiddleware(userRateLimiter))
	{
		user.GET("/my/credentials", s.handler.GetMyCredentials)
	}

	// Admin catalog API
	admin := s.router.Group("/api/admin")
	admin.Use(AdminAuthMiddleware(s.cfg.AdminAPIKey))
	{
		admin.GET("/types", s.admin.ListTypes)
		admin.POST("/types", s.admin.CreateType)
		admin.PUT("/types/:id", s.admin.UpdateType)
		admin.DELETE("/types/:id", s.admin.DeleteType)

		admin.GET("/countries", s.admin.ListCountries)
		admin.POST("/countries", s.admin.CreateCountry)
		admin.PUT("/countries/:id", s.admin.UpdateCountry)
		admin.DELETE("/countries/:id", s.admin.DeleteCountry)

		admin.GET("/servers", s.admin.ListServers)
		admin.POST("/servers", s.admin.CreateServer)
		admin.PUT("/servers/:id", s.admin.UpdateServer)
		admin.DELETE("/servers/:id", s.admin.DeleteServer)

		admin.GET("/referral-earnings", s.admin.ListReferralEarnings)
	}
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
