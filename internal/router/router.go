package router

import (
	"time"

	"cajapos/internal/config"
	"cajapos/internal/handler"
	"cajapos/internal/middleware"
	"cajapos/internal/service"
	"cajapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are built by the composition root (cmd/server) and injected here.
// Redis and Publicador may be nil.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Publicador   *worker.Publicador
	Caja         service.CajaService
	Conciliacion service.ConciliacionService
	Secuencias   service.SecuenciaService
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
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

	cajaH := handler.NewCajaHandler(d.Caja, d.Conciliacion)
	secuenciasH := handler.NewSecuenciasHandler(d.Secuencias)

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Publicador))

	operadores := middleware.RequireRole(middleware.RolCajero, middleware.RolSupervisor, middleware.RolAdministrador)
	supervisores := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)
	admin := middleware.RequireRole(middleware.RolAdministrador)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", operadores, cajaH.Abrir)
			caja.POST("/asegurar", operadores, cajaH.Asegurar)
			caja.GET("/recomendacion", operadores, cajaH.Recomendacion)
			caja.POST("/cerrar", operadores, cajaH.Cerrar)
			caja.POST("/movimiento", operadores, cajaH.RegistrarMovimiento)
			caja.POST("/venta", operadores, cajaH.RegistrarVenta)
			caja.GET("/activa", operadores, cajaH.GetActiva)
			caja.GET("/historial", supervisores, cajaH.Historial)
			caja.GET("/:id/reporte", operadores, cajaH.ObtenerReporte)
			caja.GET("/:id/movimientos", operadores, cajaH.ListarMovimientos)
			caja.GET("/:id/recalculo", supervisores, cajaH.Recalcular)
			caja.GET("/:id/deriva", supervisores, cajaH.Deriva)
			caja.POST("/:id/reparar", admin, cajaH.Reparar)
			caja.DELETE("/:id", admin, cajaH.Eliminar)
		}

		sec := v1.Group("/secuencias")
		{
			sec.POST("/:nombre/siguiente", operadores, secuenciasH.Siguiente)
			sec.GET("/:nombre", supervisores, secuenciasH.Consultar)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
