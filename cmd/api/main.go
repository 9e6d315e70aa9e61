package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pharma-ledger/internal/app"
	"github.com/jhoicas/pharma-ledger/internal/application/ports"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/redisbus"
	httpRouter "github.com/jhoicas/pharma-ledger/internal/interfaces/http"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

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
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var backend app.Backend
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			applied, err := postgres.RunMigrations(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
		}
		backend = app.PostgresBackend(pool)
	} else {
		log.Warn().Msg("sin base de datos configurada: almacenamiento en memoria")
		backend = app.MemoryBackend(memory.NewStore())
	}

	// Con Redis, MaxOfferChanged viaja por pub/sub y el Repricer lo consume con lock distribuido.
	var publisher ports.EventPublisher
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redisbus.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisClient.Close()
		publisher = redisbus.NewPublisher(redisClient, cfg.Redis.Channel)
	}

	container := app.New(backend, app.Options{
		Ledger:    cfg.Ledger,
		Issuer:    cfg.App.Name,
		Publisher: publisher,
		Log:       log,
	})

	if redisClient != nil {
		subscriber := redisbus.NewSubscriber(redisClient, cfg.Redis.Channel, cfg.Redis.LockTTL, container.Repricer, log)
		go func() {
			if err := subscriber.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("suscriptor de eventos finalizado")
			}
		}()
	}

	fiberApp := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	fiberApp.Use(recover.New())

	httpRouter.Router(fiberApp, container.RouterDeps(cfg.JWT.Secret))

	go func() {
		if err := fiberApp.Listen(cfg.HTTP.Addr()); err != nil {
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

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
