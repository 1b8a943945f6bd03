package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/service"
	"github.com/rs/zerolog"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /api/imports. The multipart body carries the
// file and the resource it holds; a repeated Idempotency-Key returns the
// job created the first time.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	ctx := c.Request.Context()

	key := c.GetHeader("Idempotency-Key")
	if job := h.existingJob(c, key); job != nil {
		c.JSON(http.StatusOK, job)
		return
	}

	up, err := h.receive(c, c.DefaultPostForm("resource", c.Query("resource")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	job, err := h.services.Import.CreateImportJob(ctx, &models.ImportRequest{
		Resource:       up.resource,
		IdempotencyKey: key,
	}, up.path)
	if err != nil {
		os.Remove(up.path)
		respondError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("job_id", job.ID).
		Str("resource", up.resource).
		Str("file", up.name).
		Int64("size_bytes", up.size).
		Msg("Import job created")

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   job.ID,
		"status":   job.Status,
		"resource": job.Resource,
		"message":  "Import job created and queued for processing",
	})
}

// existingJob looks up an earlier job for key. Lookup failures are logged
// and treated as a miss.
func (h *ImportHandler) existingJob(c *gin.Context, key string) *models.Job {
	if key == "" {
		return nil
	}
	job, err := h.services.Job.GetJobByIdempotencyKey(c.Request.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check idempotency key")
		return nil
	}
	if job != nil {
		h.log.Info().Str("job_id", job.ID).Msg("Returning existing job for idempotency key")
	}
	return job
}

// upload is a file saved to the upload directory
type upload struct {
	resource string
	name     string
	path     string
	size     int64
}

// importFormats maps each resource to its file format and accepted extensions
var importFormats = map[string]struct {
	name string
	exts []string
}{
	models.ResourceEmployees: {"CSV", []string{".csv"}},
	models.ResourceArticles:  {"NDJSON", []string{".ndjson", ".jsonl", ".json"}},
}

// receive checks the multipart file against resource and the size limit,
// then copies it to the upload directory
func (h *ImportHandler) receive(c *gin.Context, resource string) (*upload, error) {
	format, ok := importFormats[resource]
	if !ok {
		return nil, apperrors.Validation("resource must be one of: employees, articles")
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, apperrors.Validation("file upload is required")
	}
	defer file.Close()

	limit := h.cfg.Import.MaxUploadSize
	if header.Size > limit {
		return nil, apperrors.Validation(fmt.Sprintf("file too large, max size is %d MB", limit/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(format.exts, ext) {
		return nil, apperrors.Validation(fmt.Sprintf("%s import requires a %s file", resource, format.name))
	}

	dir := h.cfg.Import.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Storage("create upload directory", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s%s", resource, uuid.NewString()[:8], ext))
	if err := copyFile(file, path); err != nil {
		return nil, apperrors.Storage("save upload", err)
	}

	return &upload{resource: resource, name: header.Filename, path: path, size: header.Size}, nil
}

// copyFile writes src to path, removing the partial file on failure
func copyFile(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}

// GetImportStatus handles GET /api/imports/:job_id
func (h *ImportHandler) GetImportStatus(c *gin.Context) {
	job, err := h.services.Job.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetImportErrors handles GET /api/imports/:job_id/errors
func (h *ImportHandler) GetImportErrors(c *gin.Context) {
	jobID := c.Param("job_id")

	errors, err := h.services.Job.GetJobErrors(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=errors_%s.csv", jobID))
		w := csv.NewWriter(c.Writer)
		w.Write([]string{"line", "field", "message", "value"})
		for _, e := range errors {
			var value string
			if e.Value != nil {
				value = fmt.Sprint(e.Value)
			}
			w.Write([]string{strconv.Itoa(e.Line), e.Field, e.Message, value})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			h.log.Warn().Err(err).Str("job_id", jobID).Msg("Error report write failed")
		}
		return
	}

	if errors == nil {
		errors = []models.ValidationError{}
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":      jobID,
		"error_count": len(errors),
		"errors":      errors,
	})
}
