package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/config"
	"github.com/fernandosserra/unython/internal/handler"
	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/middleware"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/service"
	"github.com/fernandosserra/unython/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// rdb and cb may be nil: the API then runs without background jobs.
// ctx bounds the lifetime of helper goroutines (rate limiter purge).
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 600
	}
	limiter := middleware.NewRateLimiter(limit, time.Minute)
	go limiter.Purge(ctx, 5*time.Minute)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(limiter.Middleware())

	// ── Repositories ─────────────────────────────────────────────────────────
	itemRepo := repository.NewItemRepository(db)
	estoqueRepo := repository.NewEstoqueRepository(db)
	caixaRepo := repository.NewCaixaRepository(db)
	vendaRepo := repository.NewVendaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var dispatcher *worker.Dispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb, cb)
	}
	estoqueSvc := service.NewEstoqueService(db, estoqueRepo, itemRepo)
	caixaSvc := service.NewCaixaService(caixaRepo)
	vendaSvc := service.NewVendaService(db, vendaRepo, itemRepo, estoqueSvc, caixaSvc, dispatcher,
		service.VendaOpcoes{RevalidarEstoque: cfg.VendaRevalidarEstoque})

	// ── Handlers ─────────────────────────────────────────────────────────────
	vendasH := handler.NewVendasHandler(vendaSvc)
	caixasH := handler.NewCaixasHandler(caixaSvc)
	estoqueH := handler.NewEstoqueHandler(estoqueSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, cb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	todos := middleware.RequireRole(middleware.RoleAdministrador, middleware.RoleVendedor)
	admin := middleware.RequireRole(middleware.RoleAdministrador)
	{
		vendas := v1.Group("/vendas", todos)
		vendas.POST("", vendasH.RegistrarVenda)
		vendas.GET("", vendasH.ListarVendas)
		vendas.GET("/:id", vendasH.BuscarVenda)
		vendas.GET("/:id/recibo", vendasH.Recibo)

		estoque := v1.Group("/estoque", todos)
		estoque.POST("/movimentos", estoqueH.RegistrarMovimento)
		estoque.POST("/ajuste", admin, estoqueH.Ajustar)
		estoque.GET("/saldo/:item_id", estoqueH.Saldo)
		estoque.GET("/movimentos/:item_id", estoqueH.Movimentos)

		caixas := v1.Group("/caixas", todos)
		caixas.POST("", admin, caixasH.RegistrarCaixa)
		caixas.GET("", caixasH.ListarCaixas)
		caixas.POST("/:id/abrir", caixasH.AbrirMovimento)
		caixas.GET("/:id/movimento-ativo", caixasH.MovimentoAtivo)
		caixas.POST("/movimentos/:movimento_id/fechar", caixasH.FecharMovimento)
	}

	// Swagger UI — only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
