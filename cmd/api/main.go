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
	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/stock-ledger/internal/application/adjustment"
	"github.com/tu-usuario/stock-ledger/internal/application/count"
	"github.com/tu-usuario/stock-ledger/internal/application/journal"
	"github.com/tu-usuario/stock-ledger/internal/application/lot"
	"github.com/tu-usuario/stock-ledger/internal/application/reorder"
	"github.com/tu-usuario/stock-ledger/internal/application/reservation"
	"github.com/tu-usuario/stock-ledger/internal/application/transfer"
	"github.com/tu-usuario/stock-ledger/internal/application/usecase"
	"github.com/tu-usuario/stock-ledger/internal/domain/event"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/postgres"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/rediscache"
	httpRouter "github.com/tu-usuario/stock-ledger/internal/interfaces/http"
	"github.com/tu-usuario/stock-ledger/pkg/config"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// registerSwagger monta la UI de Swagger solo si el spec generado existe:
// el middleware entra en pánico con el archivo ausente y el servidor debe
// arrancar igual sin los artefactos de swag init.
func registerSwagger(app *fiber.App, specPath string) bool {
	if _, err := os.Stat(specPath); err != nil {
		return false
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: specPath,
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))
	return true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Persistencia: PostgreSQL si está configurado, memoria si no.
	var (
		storage       repository.LedgerStorage
		productRepo   repository.ProductRepository
		warehouseRepo repository.WarehouseRepository
	)
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		storage = postgres.NewLedgerStorage(pool)
		productRepo = postgres.NewProductRepository(pool)
		warehouseRepo = postgres.NewWarehouseRepository(pool)
		log.Info().Msg("persistencia: PostgreSQL")
	} else {
		storage = memory.NewLedgerStorage()
		productRepo = memory.NewProductRepository()
		warehouseRepo = memory.NewWarehouseRepository()
		log.Info().Msg("persistencia: memoria")
	}

	// Caché de disponibilidad opcional sobre Redis.
	var cache journal.AvailabilityCache
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		cache = rediscache.NewAvailabilityCache(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de disponibilidad: Redis")
	}

	bus := event.NewBus(0)
	defer bus.Close()

	j := journal.New(storage, bus, cache, log)
	lots := lot.NewTracker(j, bus, log)
	reservations := reservation.NewManager(j, lots, lots, bus, log)
	transfers := transfer.NewOrchestrator(j, reservations, bus, log)
	counts := count.NewReconciler(j, log)
	adjustments := adjustment.NewUseCase(j, log)
	reorderEngine := reorder.NewEngine(j, bus, log)
	products := usecase.NewProductUseCase(productRepo)
	warehouses := usecase.NewWarehouseUseCase(warehouseRepo)
	usecase.NewCostUpdater(productRepo, j, bus, log)

	// Barridos de fondo: reservas vencidas y lotes por expirar.
	go reservations.RunSweeper(ctx, cfg.Ledger.ReservationSweepInterval)
	go lots.RunExpirySweeper(ctx, cfg.Ledger.LotSweepInterval, cfg.Ledger.LotExpiryWindow)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if !registerSwagger(app, "./docs/swagger.json") {
		log.Warn().Msg("docs/swagger.json no existe; Swagger UI deshabilitado (correr swag init)")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Journal:      j,
		Reservations: reservations,
		Transfers:    transfers,
		Lots:         lots,
		Counts:       counts,
		Adjustments:  adjustments,
		Reorder:      reorderEngine,
		Products:     products,
		Warehouses:   warehouses,
		JWTSecret:    cfg.JWT.Secret,
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
