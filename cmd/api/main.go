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

	"github.com/jhoicas/Soporte-api/internal/application/auth"
	"github.com/jhoicas/Soporte-api/internal/application/crm"
	appidentity "github.com/jhoicas/Soporte-api/internal/application/identity"
	"github.com/jhoicas/Soporte-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Soporte-api/internal/interfaces/http"
	"github.com/jhoicas/Soporte-api/pkg/config"
	"github.com/jhoicas/Soporte-api/pkg/logger"
)

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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	customerRepo := postgres.NewCustomerRepository(pool)
	identityRepo := postgres.NewCustomerIdentityRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	interactionRepo := postgres.NewInteractionRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	resolver := appidentity.NewResolver(customerRepo, identityRepo, txRunner, log)
	mergeSvc := appidentity.NewMergeService(customerRepo, identityRepo, txRunner, log)
	customerUC := crm.NewCustomerUseCase(customerRepo, identityRepo)
	ticketUC := crm.NewTicketUseCase(ticketRepo, interactionRepo, resolver, log)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Soporte API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Resolver:   resolver,
		MergeSvc:   mergeSvc,
		CustomerUC: customerUC,
		TicketUC:   ticketUC,
		AuthUC:     authUC,
		JWTSecret:  cfg.JWT.Secret,
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
