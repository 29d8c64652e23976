package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/api/http/handlers"
	"github.com/artem13815/jobboard/api/http/middleware"
	"github.com/artem13815/jobboard/pkg/auth"
)

// Routes bundles everything Register needs. Limiter may be nil, which
// disables rate limiting.
type Routes struct {
	Auth         *handlers.AuthHandler
	Jobs         *handlers.JobHandler
	Profile      *handlers.ProfileHandler
	Applications *handlers.ApplicationHandler
	Health       *handlers.HealthHandler

	Authenticate fiber.Handler
	Limiter      middleware.Limiter
	RateLimit    int
	Logger       *zap.Logger
}

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, r Routes) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	limit := func(route string) fiber.Handler {
		if r.Limiter == nil || r.RateLimit <= 0 {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return middleware.RateLimit(r.Limiter, route, r.RateLimit, r.Logger)
	}
	applicant := middleware.RequireRole(auth.RoleApplicant)
	employer := middleware.RequireRole(auth.RoleEmployer)

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", r.Health.Health)
	v1.Get("/ready", r.Health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", limit("auth.register"), r.Auth.Register)
	a.Post("/login", limit("auth.login"), r.Auth.Login)
	a.Get("/me", r.Authenticate, r.Auth.Me)

	j := v1.Group("/jobs")
	j.Get("/", r.Jobs.List)
	j.Get("/:id", r.Jobs.Get)
	j.Post("/", r.Authenticate, employer, r.Jobs.Create)
	j.Patch("/:id", r.Authenticate, employer, r.Jobs.Update)
	j.Delete("/:id", r.Authenticate, employer, r.Jobs.Delete)

	p := v1.Group("/profile", r.Authenticate)
	p.Get("/", r.Profile.Get)
	p.Put("/", r.Profile.Update)
	p.Post("/resume", applicant, r.Profile.UploadResume)

	e := v1.Group("/employer", r.Authenticate, employer)
	e.Get("/jobs", r.Jobs.ListMine)
	e.Get("/applications", r.Applications.ListForEmployer)

	ap := v1.Group("/applications", r.Authenticate)
	ap.Post("/", applicant, limit("applications.apply"), r.Applications.Apply)
	ap.Get("/mine", applicant, r.Applications.ListMine)
	ap.Get("/check/:jobId", applicant, r.Applications.Check)
	ap.Get("/:id", r.Applications.Get)
	ap.Get("/:id/resume", r.Applications.Resume)
	ap.Patch("/:id/status", employer, r.Applications.UpdateStatus)
	ap.Post("/:id/withdraw", applicant, r.Applications.Withdraw)
	ap.Post("/:id/interview", employer, r.Applications.ScheduleInterview)
}
