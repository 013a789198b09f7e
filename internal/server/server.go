package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/auth/session"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/internal/config"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/observability"
	obslogger "github.com/smallbiznis/bytebills/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/bytebills/internal/observability/metrics"
	"github.com/smallbiznis/bytebills/internal/ratelimit"
	reportdomain "github.com/smallbiznis/bytebills/internal/report/domain"
	"github.com/smallbiznis/bytebills/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(func(s *storage.Service) export.Uploader { return s }),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Log      *zap.Logger
	ObsCfg   observability.Config
	Metrics  *obsmetrics.Metrics  `optional:"true"`
	Registry *prometheus.Registry `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	if !p.ObsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(p.Log, obslogger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(p.Metrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// gorm's prometheus plugin registers on the default registry.
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	if p.Registry != nil {
		gatherers = append(gatherers, p.Registry)
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	log       *zap.Logger
	authsvc   authdomain.Service
	sessions  *session.Manager
	companies companydomain.Service
	documents documentdomain.Service
	reports   reportdomain.Service
	limiter   *ratelimit.SignInLimiter
	archive   export.Uploader
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Log       *zap.Logger
	Authsvc   authdomain.Service
	Sessions  *session.Manager
	Companies companydomain.Service
	Documents documentdomain.Service
	Reports   reportdomain.Service
	Limiter   *ratelimit.SignInLimiter `optional:"true"`
	Archive   export.Uploader          `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		log:       p.Log.Named("http.server"),
		authsvc:   p.Authsvc,
		sessions:  p.Sessions,
		companies: p.Companies,
		documents: p.Documents,
		reports:   p.Reports,
		limiter:   p.Limiter,
		archive:   p.Archive,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/sign-in", s.limiter.Middleware(), s.SignIn)
	auth.POST("/sign-out", s.SignOut)
	auth.GET("/me", s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", session.Required(s.sessions, s.authsvc))

	// -------- Companies --------
	api.GET("/companies", s.ListCompanies)
	api.POST("/companies", s.CreateCompany)
	api.GET("/companies/:id", s.GetCompany)
	api.PATCH("/companies/:id", s.UpdateCompany)
	api.DELETE("/companies/:id", s.DeleteCompany)
	api.PUT("/companies/:id/logo", s.UploadCompanyLogo)

	// -------- Documents --------
	// :kind is a kind value or its collection name, e.g. invoice or invoices.
	docs := api.Group("/documents/:kind", s.resolveKind())
	{
		docs.GET("", s.ListDocuments)
		docs.POST("", s.CreateDocument)
		docs.GET("/:id", s.GetDocument)
		docs.PUT("/:id", s.UpdateDocument)
		docs.DELETE("/:id", s.RemoveDocument)
		docs.PATCH("/:id/status", s.ChangeDocumentStatus)
		docs.GET("/:id/pdf", s.DownloadDocument)
		if s.archive != nil {
			docs.POST("/:id/archive", s.ArchiveDocument)
		}
	}

	// -------- Reports --------
	api.GET("/reports", s.GetReport)
	api.GET("/reports/pdf", s.DownloadReport)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrRouteNotFound)
	})
}

// currentSession returns the session placed by session.Required.
func currentSession(c *gin.Context) authdomain.Session {
	sess, _ := session.FromGin(c)
	return sess
}
