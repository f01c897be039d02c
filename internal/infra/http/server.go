package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chive-pub/chive-sub016/internal/config"
	"github.com/chive-pub/chive-sub016/internal/domain"
	"github.com/chive-pub/chive-sub016/internal/metrics"
	"github.com/chive-pub/chive-sub016/internal/usecase"

	"github.com/gin-gonic/gin"
)

// SyncVerifier answers staleness queries. Both operations always produce a
// result value, even when the origin is unreachable.
type SyncVerifier interface {
	CheckStaleness(ctx context.Context, uri string) domain.StalenessCheck
	VerifySync(ctx context.Context, uri string) domain.SyncStatus
}

// VersionResolver reconstructs record revision histories.
type VersionResolver interface {
	GetVersionChain(ctx context.Context, uri string) (domain.VersionChain, error)
	GetVersion(ctx context.Context, uri string) (domain.VersionChainEntry, error)
	GetLatestVersion(ctx context.Context, uri string) (domain.VersionChainEntry, error)
	IsLatestVersion(ctx context.Context, uri string) (bool, error)
}

// OriginRegistrar registers origin servers and runs catch-up scans.
type OriginRegistrar interface {
	RegisterOrigin(ctx context.Context, endpoint, reason, identity string) (usecase.RegistrationResult, error)
	ListOrigins(ctx context.Context) ([]domain.OriginServer, error)
}

type Server struct {
	cfg    config.Config
	r      *gin.Engine
	logger *slog.Logger

	verifier  SyncVerifier
	versions  VersionResolver
	registrar OriginRegistrar

	metrics        *metrics.Metrics
	metricsHandler http.Handler
}

type ServerDeps struct {
	Verifier       SyncVerifier
	Versions       VersionResolver
	Registrar      OriginRegistrar
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:            cfg,
		r:              r,
		logger:         logger,
		verifier:       deps.Verifier,
		versions:       deps.Versions,
		registrar:      deps.Registrar,
		metrics:        deps.Metrics,
		metricsHandler: deps.MetricsHandler,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metricsHandler != nil {
		s.r.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	xrpc := s.r.Group("/xrpc")
	xrpc.GET("/pub.chive.sync.verifySync", s.handleVerifySync)
	xrpc.GET("/pub.chive.sync.checkStaleness", s.handleCheckStaleness)
	xrpc.GET("/pub.chive.version.getChain", s.handleGetChain)
	xrpc.GET("/pub.chive.version.getVersion", s.handleGetVersion)
	xrpc.GET("/pub.chive.version.getLatest", s.handleGetLatest)
	xrpc.GET("/pub.chive.version.isLatest", s.handleIsLatest)
	xrpc.POST("/pub.chive.origin.registerOrigin", s.handleRegisterOrigin)
	xrpc.GET("/pub.chive.origin.listOrigins", s.handleListOrigins)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	s.logger.Info("appview listening", "addr", s.cfg.HTTPAddr)
	return s.r.Run(s.cfg.HTTPAddr)
}
