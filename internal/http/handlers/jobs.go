package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"genstudio/internal/domain"
	"genstudio/internal/middleware"
	"genstudio/internal/storage"
)

// multipartOverhead leaves room for form fields and boundaries on top of the
// configured asset limit when capping the request body.
const multipartOverhead = 64 * 1024

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type submitResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	EstimatedTime string `json:"estimated_time"`
}

// SubmitJob accepts a generation submission: one asset file, a contact email
// and optional parameters. Validation fails closed; on success the input
// asset is persisted, the job record is created and the background run is
// scheduled before the 202 goes out.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(a.Config.MaxUploadBytes + multipartOverhead); err != nil {
		a.validationError(w, http.StatusRequestEntityTooLarge,
			domain.NewValidationError("file", "upload exceeds the %d byte limit", a.Config.MaxUploadBytes))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.validationError(w, http.StatusBadRequest,
			domain.NewValidationError("file", "an input file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "could not read uploaded file")
		return
	}
	if len(data) == 0 {
		a.validationError(w, http.StatusBadRequest,
			domain.NewValidationError("file", "uploaded file is empty"))
		return
	}
	if int64(len(data)) > a.Config.MaxUploadBytes {
		a.validationError(w, http.StatusRequestEntityTooLarge,
			domain.NewValidationError("file", "file exceeds the %d byte limit", a.Config.MaxUploadBytes))
		return
	}

	mediaType := declaredMediaType(header.Header.Get("Content-Type"))
	if !a.mediaTypeAllowed(mediaType) {
		a.validationError(w, http.StatusBadRequest,
			domain.NewValidationError("file", "media type %q is not allowed", mediaType))
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if !emailPattern.MatchString(email) {
		a.validationError(w, http.StatusBadRequest,
			domain.NewValidationError("email", "a valid contact email is required"))
		return
	}

	params := domain.GenerationParams{
		Style:    r.FormValue("style"),
		Category: r.FormValue("category"),
		Prompt:   r.FormValue("prompt"),
		Quality:  a.Config.ProviderQuality,
	}
	params.Normalize()

	token, err := domain.NewVerificationToken()
	if err != nil {
		a.Logger.Error().Err(err).Msg("intake: token generation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to accept submission")
		return
	}

	jobID := uuid.NewString()
	inputKey := fmt.Sprintf("uploads/%s/input%s", jobID, extensionForMediaType(mediaType))

	// The asset goes to durable storage before the job row exists, so the
	// detached run never depends on request-scoped resources.
	storedKey, err := a.Store.Write(r.Context(), inputKey, data)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("intake: persist input asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store uploaded file")
		return
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:                jobID,
		RequesterEmail:    email,
		Status:            domain.JobStatusProcessing,
		Params:            params,
		InputKey:          storedKey,
		VerificationToken: token,
		TokenExpiresAt:    now.Add(a.Config.TokenTTL),
		CreatedAt:         now,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("intake: create job failed")
		_ = a.Store.Remove(r.Context(), storedKey)
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}

	a.Scheduler.Schedule(job, middleware.LocaleFromContext(r.Context()))

	a.Logger.Info().
		Str("job_id", jobID).
		Str("style", params.Style).
		Int("bytes", len(data)).
		Msg("intake: job accepted")

	a.json(w, http.StatusAccepted, submitResponse{
		JobID:         jobID,
		Status:        string(job.Status),
		EstimatedTime: a.Config.EstimatedTime,
	})
}

// JobStatus returns the read-only projection polling clients see. The
// verification token is never part of it.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status: load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	resp := map[string]any{
		"id":         job.ID,
		"status":     job.Status,
		"created_at": job.CreatedAt,
	}
	if job.CompletedAt != nil {
		resp["completed_at"] = job.CompletedAt
	}
	if job.ProcessingSeconds > 0 {
		resp["processing_seconds"] = job.ProcessingSeconds
	}
	if job.Status == domain.JobStatusFailed && job.ErrorMessage != "" {
		resp["error_message"] = job.ErrorMessage
	}
	a.json(w, http.StatusOK, resp)
}

// PipelineConfig exposes the submission limits so clients can pre-validate.
func (a *App) PipelineConfig(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"max_upload_bytes":    a.Config.MaxUploadBytes,
		"allowed_media_types": a.Config.AllowedMediaTypes,
		"token_ttl_hours":     int(a.Config.TokenTTL.Hours()),
		"estimated_time":      a.Config.EstimatedTime,
	})
}

// JobResult streams the generated asset. The verification token from the
// notification link is the only credential; it is compared in constant time
// and honored only until its fixed expiry.
func (a *App) JobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "token required")
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("result: load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	if err := job.VerifyToken(token, time.Now()); err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			a.error(w, http.StatusGone, "token_expired", "the download link has expired")
		default:
			a.error(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		}
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "not_ready", "result is not available")
		return
	}
	data, err := a.Store.Read(r.Context(), job.OutputKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "result asset missing")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("result: read asset failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load result")
		return
	}

	w.Header().Set("Content-Type", mediaTypeForKey(job.OutputKey))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", resultFilename(job)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) mediaTypeAllowed(mediaType string) bool {
	for _, allowed := range a.Config.AllowedMediaTypes {
		if strings.EqualFold(allowed, mediaType) {
			return true
		}
	}
	return false
}

func declaredMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func extensionForMediaType(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func mediaTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func resultFilename(job *domain.Job) string {
	ext := ".bin"
	if idx := strings.LastIndex(job.OutputKey, "."); idx >= 0 {
		ext = job.OutputKey[idx:]
	}
	return fmt.Sprintf("result-%s%s", job.ID, ext)
}
