// Package httpserver exposes the storefront services over HTTP with echo.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/imageproxy"
	"github.com/mohanatextiles/storefront/internal/service"
)

// ImageFetcher resolves product image references to bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*imageproxy.Image, error)
	FetchByID(ctx context.Context, fileID string) (*imageproxy.Image, error)
}

// Describer writes product copy from a photo.
type Describer interface {
	Generate(ctx context.Context, image []byte, mimeType, productName, category string) (string, error)
}

// Deps are the services the handlers call.
type Deps struct {
	Auth       service.AuthService
	Products   service.ProductService
	Categories service.CategoryService
	Settings   service.SettingsService
	Images     ImageFetcher
	Describer  Describer
}

// Options tune the HTTP surface.
type Options struct {
	Production     bool
	CORSOrigins    []string
	DriveFolderURL string
	// MaxImageBytes caps uploaded images; request bodies may be slightly larger.
	MaxImageBytes int64
}

// Server is the HTTP API.
type Server struct {
	e    *echo.Echo
	deps Deps
	opts Options
	log  *zap.Logger
}

// New builds the router and middleware chain.
func New(deps Deps, opts Options, log *zap.Logger) *Server {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = imageproxy.DefaultMaxBytes
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{e: e, deps: deps, opts: opts, log: log}
	e.HTTPErrorHandler = s.handleError

	e.Use(recoverer(log))
	e.Use(accessLog(log))
	e.Use(middleware.CORSWithConfig(corsConfig(opts)))
	e.Use(middleware.BodyLimit(bodyLimit(opts.MaxImageBytes)))

	s.routes()
	return s
}

func corsConfig(opts Options) middleware.CORSConfig {
	cfg := middleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}
	if opts.Production {
		cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}
	}
	return cfg
}

// bodyLimit leaves room for multipart framing and base64 around the image.
func bodyLimit(maxImage int64) string {
	kb := (maxImage*2)/1024 + 64
	return itoa(kb) + "K"
}

func (s *Server) routes() {
	e := s.e
	admin := requireAdmin(s.deps.Auth)

	e.GET("/", s.root)
	e.GET("/api/health", s.health)

	a := e.Group("/api/auth")
	a.POST("/login", s.login)
	a.POST("/logout", s.logout)
	a.GET("/me", s.me, admin)
	a.GET("/config", s.authConfig)

	p := e.Group("/api/products")
	p.GET("", s.listProducts)
	p.GET("/stats", s.productStats)
	p.GET("/admin/all", s.listAllProducts, admin)
	p.GET("/:id", s.getProduct)
	p.POST("", s.createProduct, admin)
	p.PUT("/:id", s.updateProduct, admin)
	p.PATCH("/:id/toggle-enabled", s.toggleProduct, admin)
	p.DELETE("/:id", s.deleteProduct, admin)

	c := e.Group("/api/categories")
	c.GET("", s.listCategories)
	c.GET("/admin/all", s.listAllCategories, admin)
	c.POST("", s.createCategory, admin)
	c.POST("/seed", s.seedCategories, admin)
	c.PUT("/:id", s.updateCategory, admin)
	c.DELETE("/:id", s.deleteCategory, admin)

	e.GET("/api/settings", s.getSettings)
	e.PUT("/api/settings", s.updateSettings, admin)

	i := e.Group("/api/images")
	i.GET("/proxy", s.proxyImage)
	i.GET("/drive/:fileId", s.driveImage)

	ai := e.Group("/api/ai-products")
	ai.POST("/generate-description", s.generateDescription)
	ai.POST("/create-with-ai", s.createWithAI, admin)
	ai.POST("/:id/regenerate-description", s.regenerateDescription, admin)
}

// ServeHTTP lets the server be mounted or driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

// Start listens on addr until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start(addr string) error {
	s.e.Server.ReadHeaderTimeout = 10 * time.Second
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
