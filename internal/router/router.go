package router

import (
	"time"

	"abasto/internal/config"
	"abasto/internal/handler"
	"abasto/internal/infra"
	"abasto/internal/middleware"
	"abasto/internal/repository"
	"abasto/internal/service"
	"abasto/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, tipoCambio *infra.TipoCambioClient, dispatcher *worker.Dispatcher) *gin.Engine {
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

	// ── Repositories ─────────────────────────────────────────────────────────
	proveedorRepo := repository.NewProveedorRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ordenRepo := repository.NewOrdenCompraRepository(db)
	inventarioRepo := repository.NewInventarioRepository(db)
	reservaRepo := repository.NewReservaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	evaluacionSvc := service.NewEvaluacionService(proveedorRepo)
	metricasSvc := service.NewMetricasService(proveedorRepo, evaluacionSvc)
	prediccionSvc := service.NewPrediccionService(ordenRepo, proveedorRepo)
	proveedorSvc := service.NewProveedorService(proveedorRepo, evaluacionSvc, prediccionSvc)
	ordenSvc := service.NewOrdenService(ordenRepo, proveedorRepo, productoRepo, inventarioRepo, reservaRepo, metricasSvc, tipoCambio, dispatcher)
	comparativaSvc := service.NewComparativaService(ordenRepo, productoRepo, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc, evaluacionSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)
	analiticaH := handler.NewAnaliticaHandler(proveedorSvc, comparativaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, tipoCambio))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	lectura := middleware.RequireRole(middleware.RolComprador, middleware.RolSupervisor, middleware.RolAdministrador)
	gestion := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)
	admin := middleware.RequireRole(middleware.RolAdministrador)

	v1 := r.Group("/v1", jwtMW)
	{
		prov := v1.Group("/proveedores")
		{
			prov.POST("", gestion, proveedoresH.Crear)
			prov.GET("", lectura, proveedoresH.Listar)
			prov.GET("/buscar", lectura, proveedoresH.BuscarPorNombre)
			prov.GET("/:id", lectura, proveedoresH.Obtener)
			prov.PUT("/:id", gestion, proveedoresH.Actualizar)
			prov.DELETE("/:id", admin, proveedoresH.Desactivar)
			prov.GET("/:id/analitica", lectura, analiticaH.Analitica)
			prov.POST("/:id/evaluacion", gestion, proveedoresH.EvaluarManual)
			prov.POST("/evaluacion/recalcular", admin, proveedoresH.RecalcularTodos)
		}

		ordenes := v1.Group("/ordenes")
		{
			ordenes.POST("", lectura, ordenesH.Crear)
			ordenes.GET("", lectura, ordenesH.Listar)
			ordenes.GET("/:id", lectura, ordenesH.Obtener)
			ordenes.POST("/:id/avanzar", lectura, ordenesH.Avanzar)
			ordenes.POST("/:id/pagos", gestion, ordenesH.RegistrarPago)
			ordenes.POST("/:id/cancelar", gestion, ordenesH.Cancelar)
			ordenes.POST("/:id/problema", lectura, ordenesH.MarcarProblema)
		}

		v1.GET("/comparativa/precios", lectura, analiticaH.ComparativoPrecios)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
