package handlers

import (
	"encoding/json"
	"net/http"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/storage"
)

// Scheduler hands accepted jobs to the background executor without blocking
// the request path.
type Scheduler interface {
	Schedule(job *domain.Job, locale string)
}

// App bundles the dependencies handler methods hang off.
type App struct {
	Config    *infra.Config
	Logger    infra.Logger
	Jobs      domain.JobRepository
	Store     *storage.FileStore
	Scheduler Scheduler
}

// NewApp builds the handler container.
func NewApp(cfg *infra.Config, logger infra.Logger, jobs domain.JobRepository, store *storage.FileStore, scheduler Scheduler) *App {
	return &App{Config: cfg, Logger: logger, Jobs: jobs, Store: store, Scheduler: scheduler}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// validationError rejects a submission with the violated constraint. Nothing
// has been persisted when this is sent.
func (a *App) validationError(w http.ResponseWriter, status int, verr *domain.ValidationError) {
	a.json(w, status, map[string]any{
		"error": map[string]string{
			"code":    "validation_error",
			"field":   verr.Field,
			"message": verr.Message,
		},
	})
}
