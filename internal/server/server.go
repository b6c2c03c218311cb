package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	admissiondomain "github.com/quillhq/quill/internal/admission/domain"
	"github.com/quillhq/quill/internal/config"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	summarydomain "github.com/quillhq/quill/internal/summary/domain"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	genID  *snowflake.Node

	usersvc      userdomain.Service
	tiersvc      tierdomain.Service
	usagesvc     usagedomain.Service
	admissionsvc admissiondomain.Service
	notifysvc    notificationdomain.Service
	contentsvc   contentdomain.Service
	summarysvc   summarydomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	GenID *snowflake.Node

	UserSvc      userdomain.Service
	TierSvc      tierdomain.Service
	UsageSvc     usagedomain.Service
	AdmissionSvc admissiondomain.Service
	NotifySvc    notificationdomain.Service
	ContentSvc   contentdomain.Service
	SummarySvc   summarydomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		log:    p.Log.Named("http.server"),
		db:     p.DB,
		genID:  p.GenID,

		usersvc:      p.UserSvc,
		tiersvc:      p.TierSvc,
		usagesvc:     p.UsageSvc,
		admissionsvc: p.AdmissionSvc,
		notifysvc:    p.NotifySvc,
		contentsvc:   p.ContentSvc,
		summarysvc:   p.SummarySvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Users --------
	api.POST("/users", s.RegisterUser)
	api.GET("/users/:id", s.GetUserByID)

	// -------- Usage & admission --------
	api.GET("/users/:id/usage", s.GetUsageSummary)
	api.GET("/users/:id/usage/check", s.CheckAdmission)

	// -------- Tiers --------
	api.GET("/tiers", s.ListTiers)
	api.POST("/tiers", s.CreateTier)
	api.PATCH("/tiers/:id", s.UpdateTier)

	// -------- Content --------
	api.POST("/users/:id/prompts", s.CreatePrompt)
	api.GET("/users/:id/prompts", s.ListPrompts)
	api.POST("/users/:id/notes", s.CreateNote)
	api.POST("/users/:id/bookmarks", s.CreateBookmark)
	api.POST("/users/:id/documents", s.CreateDocument)
	api.POST("/users/:id/videos", s.CreateVideo)
	api.POST("/users/:id/categories", s.CreateCategory)
	api.DELETE("/users/:id/:collection/:entityId", s.DeleteEntity)

	// -------- AI --------
	api.POST("/users/:id/generations", s.CreateGeneration)
}
