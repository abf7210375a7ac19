package router

import (
	"encoding/json"
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/auth"
	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/Uthmaanravat/UROps-sub001/internal/database"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/handler"
	"github.com/Uthmaanravat/UROps-sub001/internal/http/middleware"
	"github.com/Uthmaanravat/UROps-sub001/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/Uthmaanravat/UROps-sub001/docs" // swagger docs
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth       *handler.AuthHandler
	Company    *handler.CompanyHandler
	Client     *handler.ClientHandler
	Project    *handler.ProjectHandler
	SOW        *handler.SOWHandler
	Invoice    *handler.InvoiceHandler
	Pricing    *handler.PricingHandler
	Scope      *handler.ScopeHandler
	Submission *handler.SubmissionHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	metrics        *metrics.Metrics
	authMiddleware *auth.Middleware
	tenantGuard    *middleware.TenantGuard
	rateLimiter    *middleware.RateLimiter
	h              Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	tenantGuard *middleware.TenantGuard,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		metrics:        m,
		authMiddleware: authMiddleware,
		tenantGuard:    tenantGuard,
		rateLimiter:    rateLimiter,
		h:              handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger, rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableMetrics {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.tenantGuard.Check)
		r.Use(rt.rateLimiter.LimitByUser)
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}

		// Reachable before the caller belongs to a company
		r.Post("/auth/signup", rt.h.Auth.Signup)
		r.Get("/auth/me", rt.h.Auth.Me)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireCompany)

			r.Route("/company", func(r chi.Router) {
				r.Get("/settings", rt.h.Company.GetSettings)
				r.Get("/users", rt.h.Company.Users)
				r.Get("/numbering", rt.h.Company.GetNumbering)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Put("/settings", rt.h.Company.UpdateSettings)
					r.Put("/numbering", rt.h.Company.SetNumbering)
				})
			})

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", rt.h.Client.List)
				r.Post("/", rt.h.Client.Create)
				r.Get("/{id}", rt.h.Client.GetByID)
				r.Put("/{id}", rt.h.Client.Update)
				r.Delete("/{id}", rt.h.Client.Delete)
				r.Get("/{id}/interactions", rt.h.Client.Interactions)
				r.Post("/{id}/interactions", rt.h.Client.RecordInteraction)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.h.Project.List)
				r.Post("/", rt.h.Project.Create)
				r.Get("/{id}", rt.h.Project.GetByID)
				r.Put("/{id}", rt.h.Project.Update)
				r.Delete("/{id}", rt.h.Project.Delete)
				r.Get("/{id}/attachments", rt.h.Project.Attachments)
				r.Post("/{id}/voice-notes", rt.h.Scope.ParseVoiceNote)

				// Scope of work
				r.Get("/{id}/sow", rt.h.SOW.Current)
				r.Post("/{id}/sow/draft", rt.h.SOW.CreateDraft)
				r.Post("/{id}/sow/submit", rt.h.SOW.Submit)
				r.Get("/{id}/sow/versions", rt.h.SOW.Versions)
				r.Get("/{id}/wbp", rt.h.SOW.ListWBP)
			})

			r.Route("/wbp", func(r chi.Router) {
				r.Get("/{id}", rt.h.SOW.GetWBP)
				r.Put("/{id}", rt.h.SOW.UpdatePricing)
				r.Post("/{id}/finalize", rt.h.SOW.FinalizePricing)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", rt.h.Invoice.List)
				r.Post("/", rt.h.Invoice.Create)
				r.Get("/{id}", rt.h.Invoice.GetByID)
				r.Delete("/{id}", rt.h.Invoice.Delete)
				r.Put("/{id}/items", rt.h.Invoice.UpdateItems)
				r.Put("/{id}/project", rt.h.Invoice.LinkProject)
				r.Put("/{id}/details", rt.h.Invoice.UpdateDetails)
				r.Get("/{id}/history", rt.h.Invoice.History)

				// Lifecycle
				r.Post("/{id}/issue", rt.h.Invoice.Issue)
				r.Post("/{id}/send", rt.h.Invoice.Send)
				r.Post("/{id}/convert", rt.h.Invoice.Convert)
				r.Post("/{id}/payments", rt.h.Invoice.RecordPayment)
			})

			r.Route("/pricing", func(r chi.Router) {
				r.Get("/", rt.h.Pricing.List)
				r.Get("/suggest", rt.h.Pricing.Suggest)
				r.Delete("/{id}", rt.h.Pricing.Delete)
			})

			r.Post("/scope/parse", rt.h.Scope.ParseText)
			r.Get("/submissions", rt.h.Submission.List)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness reports unhealthy while any dependency check fails
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]interface{}{}
	healthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]string{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = map[string]string{"status": "healthy"}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
