package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metheus/shell/internal/agent"
	"github.com/metheus/shell/internal/api/middleware"
	"github.com/metheus/shell/internal/config"
	"github.com/metheus/shell/internal/events"
	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/miniapp"
	"github.com/metheus/shell/internal/monitoring"
	"github.com/metheus/shell/internal/settings"
	"github.com/metheus/shell/internal/surface"
)

// Server wraps the HTTP command surface and its dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	log      *logging.Logger
	hub      *events.Hub
	surfaces *surface.Manager
	miniapps *miniapp.Manager
	agents   *agent.Runner
	settings *settings.Store
	metrics  *monitoring.Metrics
}

// Deps carries the constructed managers the server dispatches to
type Deps struct {
	Surfaces *surface.Manager
	MiniApps *miniapp.Manager
	Agents   *agent.Runner
	Settings *settings.Store
	Hub      *events.Hub
	Metrics  *monitoring.Metrics
	Log      *logging.Logger
}

// New creates a server around the provided managers
func New(cfg *config.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logging.NewNop()
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	s := &Server{
		router:   router,
		log:      log.Named("server"),
		hub:      deps.Hub,
		surfaces: deps.Surfaces,
		miniapps: deps.MiniApps,
		agents:   deps.Agents,
		settings: deps.Settings,
		metrics:  deps.Metrics,
	}
	s.registerRoutes()

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			s.metrics.Registry(), promhttp.HandlerOpts{})))
	}
	if s.hub != nil {
		s.router.GET("/stream", s.hub.HandleConnection)
	}

	surfaces := s.router.Group("/surfaces")
	{
		surfaces.POST("", s.createSurface)
		surfaces.POST("/resize-all", s.resizeAllSurfaces)
		surfaces.GET("/active", s.activeSurface)
		surfaces.GET("/:id", s.getSurface)
		surfaces.POST("/:id/show", s.showSurface)
		surfaces.POST("/:id/hide", s.hideSurface)
		surfaces.POST("/:id/activate", s.activateSurface)
		surfaces.DELETE("/:id", s.destroySurface)
	}

	miniapps := s.router.Group("/miniapps")
	{
		miniapps.POST("", s.registerMiniApp)
		miniapps.GET("", s.listMiniApps)
		miniapps.GET("/states", s.miniAppStates)
		miniapps.POST("/resize-all", s.resizeAllMiniApps)
		miniapps.GET("/active", s.activeMiniApp)
		miniapps.GET("/:id", s.getMiniApp)
		miniapps.POST("/:id/load", s.loadMiniApp)
		miniapps.POST("/:id/show", s.showMiniApp)
		miniapps.POST("/:id/hide", s.hideMiniApp)
		miniapps.POST("/:id/unload", s.unloadMiniApp)
		miniapps.POST("/:id/activate", s.activateMiniApp)
	}

	agents := s.router.Group("/agents")
	{
		agents.GET("", s.listAgents)
		agents.GET("/:id", s.getAgent)
		agents.POST("/:id/load", s.loadAgent)
		agents.POST("/:id/run", s.runAgent)
		agents.DELETE("/:id", s.unloadAgent)
	}

	settingsGroup := s.router.Group("/settings")
	{
		settingsGroup.GET("", s.listSettings)
		settingsGroup.GET("/:key", s.getSetting)
		settingsGroup.PUT("/:key", s.setSetting)
		settingsGroup.POST("/:key/reset", s.resetSetting)
	}
}

// Run starts the HTTP listener and blocks until shutdown
func (s *Server) Run() error {
	s.log.Info("command surface listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close drains connections and tears down the event hub
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.http.Shutdown(ctx)
	if s.hub != nil {
		s.hub.Close()
	}
	return err
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}
