package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/stockmanagement/internal/observability"
	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/physicalinventory"
	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
	"github.com/odyssey-erp/stockmanagement/jobs"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Metrics      *observability.Metrics
	Authenticate func(http.Handler) http.Handler
	Readiness    []ReadinessCheck

	PhysicalInventoryHandler *physicalinventory.Handler
	PermissionHandler        *permission.Handler
	JobHandler               *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(params.Logger, params.Readiness))
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(api chi.Router) {
		if params.Authenticate != nil {
			api.Use(params.Authenticate)
		}
		if params.PhysicalInventoryHandler != nil {
			api.Route("/physicalInventories", params.PhysicalInventoryHandler.MountRoutes)
		}
		if params.PermissionHandler != nil {
			api.Route("/permissions", params.PermissionHandler.MountRoutes)
		}
	})

	return r
}

func readyHandler(logger *slog.Logger, checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := make(map[string]string, len(checks))
		ready := true
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				ready = false
				status[c.Name] = err.Error()
				if logger != nil {
					logger.Warn("readiness check failed", slog.String("dependency", c.Name), slog.Any("error", err))
				}
				continue
			}
			status[c.Name] = "ok"
		}
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		httpx.JSON(w, code, map[string]any{"ready": ready, "checks": status})
	}
}
