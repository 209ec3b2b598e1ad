package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"gemscore/config"
	"gemscore/handlers"
	"gemscore/middleware"
	"gemscore/models"
	"gemscore/services"
	"gemscore/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuration error")
	}
	if cfg.AppEnv == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	st, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("snapshot store unavailable")
	}
	defer st.Close()

	ledger, err := services.NewLedgerStore(st)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load ledger state")
	}
	gate := services.NewGate(ledger)
	mission := services.NewMissionService(services.MissionConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GeminiTimeout,
	})

	handlers.Init(handlers.Deps{
		Ledger:          ledger,
		Gate:            gate,
		Mission:         mission,
		JWTSecret:       cfg.JWTSecret,
		ManagerPassword: cfg.ManagerPassword,
		SessionTTL:      cfg.SessionTTL,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(middleware.RateLimit())

	registerRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})

	// Shut the listener down cleanly so the deferred store Close runs.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down")
		_ = app.Shutdown()
	}()

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"env":     cfg.AppEnv,
		"backend": cfg.StoreBackend,
	}).Info("🚀 gemscore starting")

	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}

func registerRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimit())
	authGroup.Post("/manager", handlers.ManagerLogin)
	authGroup.Post("/leader", handlers.LeaderLogin)
	authGroup.Post("/member", handlers.MemberLogin)

	// Everything past this point needs a session
	api.Use(middleware.Auth)

	// Roster
	api.Get("/teams", handlers.GetTeams)
	api.Put("/teams/sort", handlers.SortTeams)
	api.Get("/teams/:id", handlers.GetTeam)
	api.Put("/teams/:id", middleware.RequireCapability(models.CapEditRegistry), handlers.UpdateTeam)

	// Score mutations
	api.Post("/teams/:id/gems", middleware.RequireCapability(models.CapAwardGem), handlers.AwardGem)
	api.Post("/teams/:id/adjust", middleware.RequireCapability(models.CapManualAdjust), handlers.RequestAdjust)
	api.Post("/teams/:id/set", middleware.RequireCapability(models.CapDirectSet), handlers.RequestDirectSet)
	api.Post("/teams/:id/undo", middleware.RequireCapability(models.CapUndo), handlers.Undo)
	api.Post("/reset", middleware.RequireCapability(models.CapResetAll), handlers.ResetAll)

	// Confirmation gate
	api.Get("/pending", middleware.RequireCapability(models.CapManualAdjust), handlers.GetPending)
	api.Post("/pending/confirm", middleware.RequireCapability(models.CapManualAdjust), handlers.ConfirmPending)
	api.Post("/pending/cancel", middleware.RequireCapability(models.CapManualAdjust), handlers.CancelPending)

	// Audit trail
	api.Get("/teams/:id/logs", middleware.RequireCapability(models.CapViewActivity), handlers.TeamLogs)
	api.Get("/activity", middleware.RequireCapability(models.CapViewActivity), handlers.Activity)

	// Daily mission
	api.Get("/mission", handlers.GetMission)
	api.Put("/mission", middleware.RequireCapability(models.CapEditMission), handlers.UpdateMission)
	api.Post("/mission/generate", middleware.RequireCapability(models.CapEditMission), handlers.GenerateMission)
	api.Post("/motivate", handlers.Motivate)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	case "memory":
		logrus.Warn("using in-memory store; state will not survive a restart")
		return store.NewMemoryStore(), nil
	default:
		return store.NewGormStore(cfg.DatabaseURL)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
