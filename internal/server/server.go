package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/api/middleware"
	"github.com/vanzue/toptoolbar-sub001/internal/config"
	apihttp "github.com/vanzue/toptoolbar-sub001/internal/http"
	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/media"
	"github.com/vanzue/toptoolbar-sub001/internal/monitoring"
	"github.com/vanzue/toptoolbar-sub001/internal/runtime"
	"github.com/vanzue/toptoolbar-sub001/internal/store"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
	"github.com/vanzue/toptoolbar-sub001/internal/workspace"
	"github.com/vanzue/toptoolbar-sub001/internal/ws"
)

// Collaborators are the OS-facing services the providers consume. Any
// field may be nil; the affected provider degrades or is skipped.
type Collaborators struct {
	Launcher types.Launcher
	Windows  types.WindowEnumerator
	Icons    types.IconResolver
	Notifier types.Notifier
	Media    media.SessionSource
}

// Server wraps the HTTP server and the provider runtime.
type Server struct {
	cfg       *config.Config
	log       *logging.Logger
	registry  *runtime.Registry
	metrics   *monitoring.Metrics
	router    *gin.Engine
	http      *http.Server
	providers []interface{ Close() error }
	done      chan struct{}
}

// New constructs the daemon: store, cache, providers, registry, routes.
func New(cfg *config.Config, log *logging.Logger, collab Collaborators) (*Server, error) {
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	registry := runtime.NewRegistry(log, metrics)

	s := &Server{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
	s.registerProviders(collab, metrics)

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

	handlers := apihttp.NewHandlers(registry)
	wsHandler := ws.NewHandler(registry, log, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/providers", handlers.ListProviders)
	router.GET("/providers/:id/actions", handlers.DiscoverActions)
	router.GET("/providers/:id/group", handlers.CreateGroup)
	router.GET("/actions", handlers.DiscoverAll)
	router.POST("/invoke", handlers.Invoke)

	router.GET("/stream", wsHandler.HandleConnection)

	s.router = router
	s.http = &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}
	return s, nil
}

// registerProviders constructs and registers every provider, isolating
// individual failures.
func (s *Server) registerProviders(collab Collaborators, metrics *monitoring.Metrics) {
	wsStore, err := store.New(s.cfg.Storage.Dir, s.log)
	if err != nil {
		s.log.Error("workspace store unavailable, skipping provider", zap.Error(err))
	} else {
		provider, err := workspace.NewProvider(wsStore, workspace.Collaborators{
			Launcher: collab.Launcher,
			Windows:  collab.Windows,
			Icons:    collab.Icons,
			Notifier: collab.Notifier,
		}, s.cfg.Storage, s.log, metrics)
		if err != nil {
			s.log.Error("workspace provider failed to start", zap.Error(err))
		} else if err := s.registry.Register(provider); err != nil {
			s.log.Error("workspace provider registration failed", zap.Error(err))
		} else {
			s.providers = append(s.providers, provider)
		}
	}

	if collab.Media != nil {
		provider := media.NewProvider(collab.Media, s.log)
		if err := s.registry.Register(provider); err != nil {
			s.log.Error("media provider registration failed", zap.Error(err))
		} else {
			s.providers = append(s.providers, closerFunc(func() error {
				provider.Close()
				return nil
			}))
		}
	}
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.log.Info("starting toolbar daemon", zap.String("addr", s.http.Addr))
	go s.trackUptime()
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) trackUptime() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.metrics.UpdateUptime()
		case <-s.done:
			return
		}
	}
}

// Close shuts the HTTP server and all providers down.
func (s *Server) Close() error {
	close(s.done)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("http shutdown", zap.Error(err))
	}

	for _, p := range s.providers {
		if err := p.Close(); err != nil {
			s.log.Warn("provider close", zap.Error(err))
		}
	}
	s.registry.Close()
	return nil
}

// Router exposes the Gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Registry exposes the provider runtime.
func (s *Server) Registry() *runtime.Registry { return s.registry }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
