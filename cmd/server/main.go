// @title         jobboard API
// @version       1.0
// @description   Job board: postings, applicant and employer profiles, and the application lifecycle.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Authorization token: "Bearer <JWT>" or "<JWT>".
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/artem13815/jobboard/docs"
	"github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	// internal imports
	"github.com/artem13815/jobboard/api/http"
	"github.com/artem13815/jobboard/api/http/handlers"
	"github.com/artem13815/jobboard/api/http/middleware"
	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/application"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/cache"
	"github.com/artem13815/jobboard/pkg/config"
	"github.com/artem13815/jobboard/pkg/filestore"
	"github.com/artem13815/jobboard/pkg/health"
	"github.com/artem13815/jobboard/pkg/health/checkers"
	"github.com/artem13815/jobboard/pkg/job"
	"github.com/artem13815/jobboard/pkg/logger"
	"github.com/artem13815/jobboard/pkg/notify"
	"github.com/artem13815/jobboard/pkg/notify/natsnotify"
	"github.com/artem13815/jobboard/pkg/profile"
	"github.com/artem13815/jobboard/pkg/repository/memory"
	pgrepo "github.com/artem13815/jobboard/pkg/repository/postgres"
	"github.com/artem13815/jobboard/pkg/security/jwt"
	"github.com/artem13815/jobboard/pkg/storage/postgres"
	"github.com/artem13815/jobboard/pkg/telemetry"
)

type repositories struct {
	actors       auth.ActorRepository
	profiles     profile.Repository
	jobs         job.Repository
	applications application.Repository
}

func main() {
	// Load configuration from env/.env and optional CONFIG_FILE
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTELCollectorURL != "" {
		shutdown, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OTELCollectorURL)
		if err != nil {
			lg.Fatal("init tracer", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				lg.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	var checks []health.Checker

	// Storage: PostgreSQL when configured, in-memory otherwise
	var repos repositories
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			lg.Fatal("postgres connect", zap.Error(err))
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, lg); err != nil {
			lg.Fatal("postgres migrate", zap.Error(err))
		}
		repos = postgresRepositories(pool)
		checks = append(checks, checkers.NewPostgresChecker(pool))
	} else {
		lg.Warn("DATABASE_URL is empty, using in-memory storage")
		store := memory.New()
		repos = repositories{
			actors:       store.Actors(),
			profiles:     store.Profiles(),
			jobs:         store.Jobs(),
			applications: store.Applications(),
		}
	}

	// Rate limiting is backed by Redis and disabled without it
	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rc, err := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, lg)
		if err != nil {
			lg.Fatal("redis connect", zap.Error(err))
		}
		defer func() { _ = rc.Close() }()
		limiter = rc
		checks = append(checks, checkers.NewPingChecker("redis", rc))
	}

	var notifier notify.Notifier = notify.NewLogNotifier(lg)
	if cfg.NATSURL != "" {
		pub, err := natsnotify.Connect(cfg.NATSURL, cfg.NotifySubjectPrefix, cfg.NotifyTimeout, lg)
		if err != nil {
			lg.Fatal("nats connect", zap.Error(err))
		}
		defer pub.Close()
		notifier = pub
		checks = append(checks, checkers.NewPingChecker("nats", pub))
	}
	dispatcher := notify.NewDispatcher(notifier, cfg.NotifyTimeout, lg)

	files, err := filestore.NewLocal(cfg.UploadDir)
	if err != nil {
		lg.Fatal("init file store", zap.Error(err))
	}

	// Wire dependencies (Clean Architecture)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	profileUC := profile.NewService(repos.profiles, files, cfg.UploadMaxBytes, lg)
	authUC := auth.NewAuthService(repos.actors, profileUC, tokens, lg)
	jobUC := job.NewService(repos.jobs, profileUC, lg)
	applicationUC := application.NewService(application.Deps{
		Repo:     repos.applications,
		Jobs:     repos.jobs,
		Resumes:  profileUC,
		Files:    files,
		Contacts: repos.actors,
		Notifier: dispatcher,
		Logger:   lg,
	})
	readiness := health.NewService(lg, checks...)

	app := fiber.New(fiber.Config{
		ErrorHandler: presenter.ErrorHandler(lg),
		BodyLimit:    int(cfg.UploadMaxBytes) + 1<<20,
	})
	app.Use(middleware.AccessLog(lg), middleware.Recover(lg))

	// Register routes
	http.Register(app, http.Routes{
		Auth:         handlers.NewAuthHandler(authUC),
		Jobs:         handlers.NewJobHandler(jobUC),
		Profile:      handlers.NewProfileHandler(profileUC, cfg.UploadMaxBytes),
		Applications: handlers.NewApplicationHandler(applicationUC),
		Health:       handlers.NewHealthHandler(readiness),
		Authenticate: jwt.NewAuthMiddleware(tokens),
		Limiter:      limiter,
		RateLimit:    cfg.RateLimitPerMinute,
		Logger:       lg,
	})

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	go func() {
		<-ctx.Done()
		lg.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Error("server shutdown", zap.Error(err))
		}
	}()

	// Start server
	lg.Info("HTTP server listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Error("server stopped", zap.Error(err))
	}
	// pending notifications finish before the clients close
	dispatcher.Wait()
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		actors:       pgrepo.NewActorRepository(pool),
		profiles:     pgrepo.NewProfileRepository(pool),
		jobs:         pgrepo.NewJobRepository(pool),
		applications: pgrepo.NewApplicationRepository(pool),
	}
}
