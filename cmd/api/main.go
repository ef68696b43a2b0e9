package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/inventario-mrp/docs"
	"github.com/jhoicas/inventario-mrp/internal/application/catalog"
	"github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/application/mrp"
	"github.com/jhoicas/inventario-mrp/internal/application/procurement"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-mrp/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/inventario-mrp/internal/interfaces/http"
	"github.com/jhoicas/inventario-mrp/pkg/config"
	"github.com/jhoicas/inventario-mrp/pkg/logger"
)

// storage repositorios del driver configurado.
type storage struct {
	tx       ledger.TxRunner
	ledgers  repository.StockLedgerRepository
	postings repository.StockPostingRepository
	boms     repository.BOMRepository
	orders   repository.OrderRepository
	docs     repository.ProcurementRepository
	numbers  repository.DocumentNumberer
	close    func()
}

func newPostgresStorage(ctx context.Context, cfg config.DBConfig) (*storage, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		tx:       postgres.NewTxRunner(pool),
		ledgers:  postgres.NewLedgerRepository(pool),
		postings: postgres.NewPostingRepository(pool),
		boms:     postgres.NewBOMRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		docs:     postgres.NewProcurementRepository(pool),
		numbers:  postgres.NewNumberer(pool),
		close:    pool.Close,
	}, nil
}

func newMemoryStorage() *storage {
	store := memory.NewStore()
	return &storage{
		tx:       store,
		ledgers:  memory.NewLedgerRepository(store),
		postings: memory.NewPostingRepository(store),
		boms:     memory.NewBOMRepository(store),
		orders:   memory.NewOrderRepository(store),
		docs:     memory.NewProcurementRepository(store),
		numbers:  memory.NewNumberer(store),
		close:    func() {},
	}
}

// @title                       Inventario MRP API
// @version                     1.0
// @description                 Kardex de inventario por tenant y motor MRP de faltantes con generación de documentos de compra.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var st *storage
	switch cfg.App.StorageDriver {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		st = newMemoryStorage()
	default:
		st, err = newPostgresStorage(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
	}
	defer st.close()

	// Numeración compartida entre réplicas si hay Redis
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		st.numbers = infraredis.NewNumberer(rdb)
		log.Info().Msg("numeración de documentos en Redis")
	}

	ledgerCfg := ledger.DefaultConfig()
	ledgerCfg.MaxRetries = cfg.Ledger.MaxRetries
	ledgerCfg.CriticalRatio = cfg.Ledger.CriticalRatio
	ledgerUC := ledger.NewUseCase(st.tx, st.ledgers, st.postings, ledgerCfg, log.Component("ledger"))

	catalogUC := catalog.NewUseCase(st.boms, log.Component("catalog"))
	mrpUC := mrp.NewUseCase(st.orders, st.boms, st.ledgers, log.Component("mrp"))
	procUC := procurement.NewUseCase(st.docs, st.numbers, procurement.Config{
		RFQDueDays:  cfg.Procurement.RFQDueDays,
		Parallelism: cfg.Procurement.Parallelism,
	}, log.Component("procurement"))

	rateLimit, err := httpRouter.RateLimit(cfg.HTTP.RateLimit, log.Component("http"))
	if err != nil {
		log.Fatal().Err(err).Msg("rate limit")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario MRP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledgerUC,
		Catalog:     catalogUC,
		MRP:         mrpUC,
		Procurement: procUC,
		JWTSecret:   cfg.JWT.Secret,
		RateLimit:   rateLimit,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
