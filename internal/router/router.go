package router

import (
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/config"
	"github.com/dzn7/meuburguer-sub000/internal/handler"
	"github.com/dzn7/meuburguer-sub000/internal/infra"
	"github.com/dzn7/meuburguer-sub000/internal/middleware"
	"github.com/dzn7/meuburguer-sub000/internal/repository"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared components built in main — the register service and
// repositories are also consumed by the worker pool and the realtime router,
// so they are constructed once and injected here.
type Deps struct {
	Register     service.RegisterService
	RegisterRepo repository.RegisterRepository
	CategoryRepo repository.CategoryRepository
	StaffRepo    repository.StaffRepository
}

// New wires the HTTP surface and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, feedCB *infra.CircuitBreaker, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	registerH := handler.NewRegisterHandler(deps.Register, deps.RegisterRepo, cfg.PDFStoragePath)
	categoriesH := handler.NewCategoryHandler(deps.CategoryRepo)
	staffH := handler.NewStaffHandler(deps.StaffRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb, feedCB))

	v1 := r.Group("/v1")
	{
		reg := v1.Group("/register")
		{
			reg.POST("/open", registerH.Open)
			reg.POST("/close", registerH.Close)
			reg.POST("/movements", registerH.RegisterMovement)
			reg.DELETE("/movements/:id", registerH.DeleteMovement)
			reg.GET("/active", registerH.GetActive)
			reg.GET("/history", registerH.History)
			reg.POST("/sync", registerH.Sync)
			reg.GET("/:id/report", registerH.Report)
			reg.GET("/:id/report.pdf", registerH.ReportPDF)
			reg.DELETE("/:id", registerH.DeleteSession)
		}

		v1.GET("/categories", categoriesH.List)
		v1.GET("/staff", staffH.List)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
