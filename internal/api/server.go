package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"position-signal-engine/config"
	"position-signal-engine/internal/store"
)

// Server is the read-only run-log query service (spec §6.1-style
// "surface the latest ranked Setups and past-run history without
// giving any client write access"). A gin.Engine wrapping an
// http.Server, GET-only routes.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	runLogDir  string
	jwtManager *JWTManager
	hub        *ProgressHub
	logger     zerolog.Logger
}

// NewServer wires the gin engine, CORS policy, auth middleware and
// progress hub around cfg.Server / cfg.Store.
func NewServer(cfg *config.Config, hub *ProgressHub, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:     router,
		runLogDir:  cfg.Store.RunLogDir,
		jwtManager: NewJWTManager(cfg.Server.JWTSecret, 24*time.Hour),
		hub:        hub,
		logger:     logger,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(authMiddleware(s.jwtManager))
	{
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/latest", s.handleLatestRun)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/progress", s.handleProgressWS)
	}
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	snapshots, err := store.ListSnapshots(s.runLogDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	type summary struct {
		RunID     string    `json:"run_id"`
		Timestamp time.Time `json:"timestamp"`
		Partial   bool      `json:"partial"`
		Setups    int       `json:"setup_count"`
	}
	out := make([]summary, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, summary{RunID: snap.RunID, Timestamp: snap.Timestamp, Partial: snap.Partial, Setups: len(snap.Setups)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLatestRun(c *gin.Context) {
	snapshots, err := store.ListSnapshots(s.runLogDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(snapshots) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded yet"})
		return
	}
	c.JSON(http.StatusOK, snapshots[0])
}

func (s *Server) handleGetRun(c *gin.Context) {
	id := c.Param("id")
	snapshots, err := store.ListSnapshots(s.runLogDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, snap := range snapshots {
		if snap.RunID == id {
			c.JSON(http.StatusOK, snap)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("run-log query service listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
