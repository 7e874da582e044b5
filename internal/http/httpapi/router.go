package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"genstudio/internal/http/handlers"
	"genstudio/internal/infra"
	"genstudio/internal/middleware"
)

// NewRouter assembles the API surface: intake, status polling, pipeline
// limits, the token-guarded result download and health.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimiddleware.RealIP,
		middleware.RequestID,
		middleware.Logger(logger),
		chimiddleware.Recoverer,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Locale(cfg.DefaultLocale, lookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/pipeline/config", app.PipelineConfig)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/", app.SubmitJob)
		r.Get("/{job_id}", app.JobStatus)
		r.Get("/{job_id}/result", app.JobResult)
	})

	return r
}
