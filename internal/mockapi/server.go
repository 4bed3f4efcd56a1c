// Package mockapi is an in-memory stand-in for the storefront REST API.
package mockapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safar/go-storefront/internal/models"
)

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// FixedOTP, when set, is issued for every reset request instead of a
	// random code.
	FixedOTP string
	Catalog  []models.Product
}

type Server struct {
	cfg    Config
	tokens *tokenManager
	now    func() time.Time

	mu       sync.Mutex
	users    map[string]*account // by id
	byEmail  map[string]string
	byMobile map[string]string
	otps     map[string]otpEntry // by mobile
	products map[string]*models.Product
	catalog  []string // product ids in listing order
	orders   map[string]*ownedOrder
}

type ownedOrder struct {
	userID string
	order  models.Order
}

func New(cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Catalog == nil {
		cfg.Catalog = SeedCatalog()
	}

	s := &Server{
		cfg:      cfg,
		tokens:   newTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		now:      time.Now,
		users:    make(map[string]*account),
		byEmail:  make(map[string]string),
		byMobile: make(map[string]string),
		otps:     make(map[string]otpEntry),
		products: make(map[string]*models.Product),
		orders:   make(map[string]*ownedOrder),
	}
	for _, p := range cfg.Catalog {
		p := p
		s.products[p.ID] = &p
		s.catalog = append(s.catalog, p.ID)
	}
	return s
}

// Router serves the API under /api.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.POST("/forgot-password", s.forgotPassword)
	api.POST("/verify-otp", s.verifyOTP)
	api.PUT("/reset-password", s.resetPassword)
	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)

	authed := api.Group("")
	authed.Use(s.requireAuth())
	authed.POST("/logout", s.logout)
	authed.GET("/profile", s.profile)
	authed.PUT("/profile", s.updateProfile)
	authed.POST("/orders", s.createOrder)
	authed.GET("/orders/me", s.myOrders)
	authed.GET("/orders/:id", s.getOrder)

	return router
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
