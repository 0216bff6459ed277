package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scoreline/internal/achievement"
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
	"github.com/smallbiznis/scoreline/internal/allocation"
	allocationdomain "github.com/smallbiznis/scoreline/internal/allocation/domain"
	"github.com/smallbiznis/scoreline/internal/cache"
	"github.com/smallbiznis/scoreline/internal/config"
	"github.com/smallbiznis/scoreline/internal/leaderboard"
	leaderboarddomain "github.com/smallbiznis/scoreline/internal/leaderboard/domain"
	"github.com/smallbiznis/scoreline/internal/observability"
	obslogger "github.com/smallbiznis/scoreline/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/scoreline/internal/observability/metrics"
	obstracing "github.com/smallbiznis/scoreline/internal/observability/tracing"
	"github.com/smallbiznis/scoreline/internal/period"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	"github.com/smallbiznis/scoreline/internal/recalc"
	"github.com/smallbiznis/scoreline/internal/scoringrules"
	"github.com/smallbiznis/scoreline/internal/shop"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	"github.com/smallbiznis/scoreline/internal/targetplan"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	"github.com/smallbiznis/scoreline/internal/validation"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	scoringrules.Module,
	cache.Module,
	validation.Module,
	recalc.Module,
	shop.Module,
	period.Module,
	targetplan.Module,
	allocation.Module,
	achievement.Module,
	leaderboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, registry)
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

	shopSvc        shopdomain.Service
	periodSvc      perioddomain.Service
	targetPlanSvc  targetplandomain.Service
	validationSvc  validationdomain.Service
	allocationSvc  allocationdomain.Service
	achievementSvc achievementdomain.Service
	leaderboardSvc leaderboarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	ShopSvc        shopdomain.Service
	PeriodSvc      perioddomain.Service
	TargetPlanSvc  targetplandomain.Service
	ValidationSvc  validationdomain.Service
	AllocationSvc  allocationdomain.Service
	AchievementSvc achievementdomain.Service
	LeaderboardSvc leaderboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		shopSvc:        p.ShopSvc,
		periodSvc:      p.PeriodSvc,
		targetPlanSvc:  p.TargetPlanSvc,
		validationSvc:  p.ValidationSvc,
		allocationSvc:  p.AllocationSvc,
		achievementSvc: p.AchievementSvc,
		leaderboardSvc: p.LeaderboardSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Shops --------
	api.POST("/shops", s.CreateShop)
	api.GET("/shops/:shop_id", s.GetShop)
	api.POST("/shops/:shop_id/members", s.AddMember)
	api.PATCH("/shops/:shop_id/members/:member_id", s.UpdateMember)
	api.GET("/shops/:shop_id/members", s.ListMembers)
	api.POST("/shops/:shop_id/categories", s.CreateCategory)
	api.GET("/shops/:shop_id/categories", s.ListCategories)

	// -------- Periods --------
	api.POST("/shops/:shop_id/periods", s.CreatePeriod)
	api.GET("/periods/:period_id", s.GetPeriod)
	api.POST("/periods/:period_id/transition", s.TransitionPeriod)

	// -------- Target plan --------
	api.PUT("/periods/:period_id/targets/:category_id", s.SetMonthlyTarget)
	api.PUT("/periods/:period_id/weeks/:week_id/distribution", s.SetWeeklyDistribution)
	api.PUT("/periods/:period_id/weeks/:week_id/role-weights/:role", s.SetWeeklyRoleWeight)
	api.GET("/periods/:period_id/plan", s.GetPlan)
	api.POST("/periods/:period_id/validate", s.ValidatePeriod)

	// -------- Allocation --------
	api.POST("/periods/:period_id/recompute", s.Recompute)
	api.GET("/periods/:period_id/targets", s.ListUserWeekTargets)

	// -------- Achievements --------
	api.POST("/shops/:shop_id/achievements", s.LogAchievement)
	api.GET("/shops/:shop_id/achievements", s.ListAchievements)
	api.POST("/achievements/:achievement_id/correct", s.CorrectAchievement)
	api.DELETE("/achievements/:achievement_id", s.DeleteAchievement)

	// -------- Leaderboard --------
	api.POST("/periods/:period_id/snapshots", s.ComputeSnapshot)
	api.GET("/periods/:period_id/snapshots", s.ListSnapshots)
	api.GET("/snapshots/:snapshot_id/rows", s.GetSnapshotRows)
	api.GET("/periods/:period_id/leaderboard", s.CurrentLeaderboard)
}
