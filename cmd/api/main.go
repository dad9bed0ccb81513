package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/config"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/db"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/logger"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/approval"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/feed"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/scheduler"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/wallet"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/storage"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.WithError(err).Fatal("migrate database")
	}
	if cfg.SeedAdmin() {
		hash, err := utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.WithError(err).Fatal("hash admin password")
		}
		created, err := db.EnsureAdmin(gdb, cfg.AdminName, cfg.AdminEmail, hash)
		if err != nil {
			log.WithError(err).Fatal("seed admin")
		}
		if created {
			log.WithField("email", cfg.AdminEmail).Info("admin account created")
		}
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	log.WithField("addr", cfg.RedisAddr).Info("redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(log)
	go hub.Run(ctx)
	go realtime.NewBridge(hub, rdb, log).Run(ctx)
	publisher := realtime.NewPublisher(rdb, log)

	store, err := storage.NewLocal(cfg.UploadDir, cfg.AppBaseURL)
	if err != nil {
		log.WithError(err).Fatal("init storage")
	}

	sessions := session.NewManager(session.NewRedisStore(rdb), publisher, log, cfg.JWTSecret, cfg.JWTExpiresMin)
	fees := pricing.NewFeeService(gdb, rdb, log, cfg.DefaultFeePercent, cfg.TaxPercent)
	wallets := wallet.NewWalletService(gdb)
	bookings := booking.NewService(gdb, fees, wallets, publisher, log)
	approvals := approval.NewService(gdb, log)
	documents := approval.NewDocuments(gdb, store, log)
	posts := feed.NewService(gdb, log)

	jobs := scheduler.New(log)
	if err := jobs.Add(scheduler.JobExpireStaleBookings, cfg.StaleBookingCron, scheduler.ExpireStaleBookings(bookings)); err != nil {
		log.WithError(err).Fatal("schedule stale booking job")
	}
	jobs.Start()
	defer jobs.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    25 << 20,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))
	app.Use(middleware.Logging(log))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Static(storage.PublicPrefix, cfg.UploadDir)

	router := &handlers.Router{
		Sessions:     sessions,
		Log:          log,
		Auth:         handlers.NewAuthHandler(gdb, sessions, log),
		Categories:   handlers.NewCategoryHandler(gdb),
		Providers:    handlers.NewProviderHandler(gdb, bookings, log),
		Applications: handlers.NewApplicationHandler(gdb, approvals, documents, log),
		Bookings:     handlers.NewBookingHandler(bookings, fees, log),
		Messages:     handlers.NewMessageHandler(bookings, log),
		Feed:         handlers.NewFeedHandler(posts, store, log),
		Freelancer:   handlers.NewFreelancerDashboardHandler(gdb, bookings, wallets, store, log),
		Homeowner:    handlers.NewHomeownerHandler(gdb, log),
		Admin:        handlers.NewAdminHandler(gdb, bookings, posts, fees, log),
		Hub:          hub,
	}
	if cfg.GoogleEnabled() {
		router.Google = &handlers.GoogleOAuthHandler{
			DB:              gdb,
			Sessions:        sessions,
			Log:             log,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
		}
	}
	router.Mount(app)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithField("port", cfg.AppPort).Info("listening")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.WithError(err).Error("listen")
	}
	_ = rdb.Close()
}
