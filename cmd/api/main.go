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

	_ "github.com/jhoicas/Inventario-lotes/docs"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/traceability"
	infrakafka "github.com/jhoicas/Inventario-lotes/internal/infrastructure/kafka"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/lock"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Inventario-lotes/internal/infrastructure/pdf"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-lotes/internal/interfaces/http"
	"github.com/jhoicas/Inventario-lotes/pkg/config"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
	"github.com/jhoicas/Inventario-lotes/pkg/observability"
)

const (
	version     = "1.0.0"
	swaggerFile = "./docs/swagger.json"
)

// @title        Inventario Lotes API
// @version      1.0
// @description  Motor de asignación de lotes (FIFO/FEFO) y trazabilidad de inventario.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token JWT>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Engine.StoreBackend).
		Str("lock", cfg.Engine.LockBackend).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas /api responderán 401")
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.Otel, version)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	// Persistencia: memoria o PostgreSQL
	var txRunner inventory.TxRunner
	switch cfg.Engine.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("crear esquema")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.Engine.LockTimeout)
	default:
		log.Warn().Msg("STORE_BACKEND=memory: el estado se pierde al reiniciar")
		txRunner = memory.NewStore()
	}

	// Serialización por stock: en proceso o distribuida con Redis
	var locker inventory.StockLocker
	switch cfg.Engine.LockBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL, log)
	default:
		locker = lock.NewMemoryLocker()
	}

	engineOpts := []inventory.Option{
		inventory.WithLogger(log),
		inventory.WithLockTimeout(cfg.Engine.LockTimeout),
		inventory.WithPublishTimeout(cfg.Engine.PublishTimeout),
	}
	if cfg.Kafka.Enabled() {
		publisher := infrakafka.NewMovementPublisher(infrakafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.MovementsTopic))
		defer publisher.Close()
		engineOpts = append(engineOpts, inventory.WithPublisher(publisher))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.MovementsTopic).Msg("publicación de movimientos habilitada")
	}
	engine := inventory.NewAllocationEngine(txRunner, locker, engineOpts...)

	// PDF: trazabilidad de lote
	reporter := traceability.NewReporter(txRunner,
		traceability.WithExpiringDays(cfg.Engine.ExpiringWindowDays),
		traceability.WithRenderer(infrapdf.NewMarotoBatchReport(cfg.App.Name)),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))
	app.Use(httpRouter.TracingMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Lotes API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, UI deshabilitada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "version": version})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:    engine,
		Reporter:  reporter,
		JWTSecret: cfg.JWT.Secret,
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
