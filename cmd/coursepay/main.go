package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CoursePay/app/controllers"
	"github.com/ManuelReschke/CoursePay/app/repository"
	"github.com/ManuelReschke/CoursePay/internal/pkg/archive"
	"github.com/ManuelReschke/CoursePay/internal/pkg/billing"
	"github.com/ManuelReschke/CoursePay/internal/pkg/cache"
	"github.com/ManuelReschke/CoursePay/internal/pkg/catalog"
	"github.com/ManuelReschke/CoursePay/internal/pkg/checkout"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
	"github.com/ManuelReschke/CoursePay/internal/pkg/constants"
	"github.com/ManuelReschke/CoursePay/internal/pkg/database"
	"github.com/ManuelReschke/CoursePay/internal/pkg/env"
	"github.com/ManuelReschke/CoursePay/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CoursePay/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/CoursePay/internal/pkg/middleware"
	"github.com/ManuelReschke/CoursePay/internal/pkg/router"
	"github.com/ManuelReschke/CoursePay/internal/pkg/session"
)

// Application owns every long lived resource of the process.
type Application struct {
	App   *fiber.App
	DB    *gorm.DB
	Redis *redis.Client
	Queue *jobqueue.Queue
}

func main() {
	env.SetupEnvFile()
	cfg := config.Load()

	application, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)
		if err := application.App.Listen(addr); err != nil {
			log.Errorf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	application.Shutdown(10 * time.Second)
}

// NewApplication connects storage, builds the services and mounts the routes.
func NewApplication(cfg *config.Config) (*Application, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	redisClient := cache.NewClient(cfg)

	repos := repository.NewFactory(db).GetRepositories()
	svc := billing.NewService(repos.Billing)
	counters := counter.NewWebhookCounters(redisClient)
	courses := catalog.Default()

	var gateway checkout.Gateway
	if cfg.StripeAPIKey != "" {
		gateway = checkout.NewStripeGateway(cfg.StripeAPIKey, nil)
	} else {
		log.Warn("[Checkout] STRIPE_API_KEY not set, checkout runs in echo mode")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Warn("[Webhook] STRIPE_WEBHOOK_SECRET not set, every webhook will be rejected")
	}
	initiator := checkout.NewInitiator(courses, gateway, cfg.CheckoutCurrency, cfg.PublicDomain)

	var queue *jobqueue.Queue
	if cfg.WebhookReplayWorkers > 0 {
		queue = jobqueue.NewQueue(redisClient, cfg.WebhookReplayWorkers)
		queue.SetJobTimeout(cfg.WebhookTimeout)
		queue.Handle(jobqueue.JobTypeWebhookReplay, jobqueue.WebhookReplayHandler(svc))
	}
	setupArchive(cfg, svc, queue)
	if queue != nil {
		queue.Start()
	}

	billingController := controllers.NewBillingController(cfg, svc, initiator).
		WithCache(cache.New(redisClient, "coursepay:")).
		WithCounters(counters)
	if queue != nil {
		billingController.WithReplayQueue(queue)
	}

	sessions := session.NewStore(session.NewRedisStorage(redisClient))

	app := newFiberApp(cfg)
	router.InstallRouter(app, router.Dependencies{
		Config:   cfg,
		Sessions: sessions,
		Main:     controllers.NewMainController(cfg, courses),
		Auth:     controllers.NewAuthController(cfg, repos.User, sessions),
		Billing:  billingController,
		Admin:    controllers.NewAdminController(cfg, svc, counters),
	})

	// fiber metrics, registered after the router so the user context is set
	app.Get("/metrics", middleware.RequireAdmin, monitor.New())

	return &Application{App: app, DB: db, Redis: redisClient, Queue: queue}, nil
}

// setupArchive connects the event archive when a bucket is configured. Jobs
// go through the queue when it runs, otherwise uploads happen inline.
func setupArchive(cfg *config.Config, svc *billing.Service, queue *jobqueue.Queue) {
	if !cfg.ArchiveEnabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := archive.NewClient(ctx, archive.ConfigFrom(cfg))
	if err != nil {
		log.Warnf("[Archive] disabled: %v", err)
		return
	}

	if queue != nil {
		queue.Handle(jobqueue.JobTypeArchiveEvent, jobqueue.ArchiveEventHandler(client))
		svc.SetEventSink(jobqueue.NewArchiveSink(queue))
		return
	}
	svc.SetEventSink(archive.NewInlineSink(client))
}

func newFiberApp(cfg *config.Config) *fiber.App {
	basePath := findBasePath()

	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// static files
	app.Static(constants.PublicRoute, basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: constants.DocsRoute,
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
		Title:    "CoursePay API",
	}))

	return app
}

// findBasePath locates the project root whether started from it or from cmd/coursepay.
func findBasePath() string {
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "views"); err == nil {
			return path
		}
	}
	panic("Could not find project root directory")
}

// Shutdown stops accepting requests, drains the workers and closes storage.
func (a *Application) Shutdown(timeout time.Duration) {
	if err := a.App.ShutdownWithTimeout(timeout); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	if a.Queue != nil {
		a.Queue.Stop()
	}
	if err := a.Redis.Close(); err != nil {
		log.Warnf("redis close: %v", err)
	}
	database.Close(a.DB)
	log.Info("Shutdown complete")
}
