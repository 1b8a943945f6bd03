package api

import (
	"github.com/gin-gonic/gin"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /api/exports?resource=...&format=...
// Records are written to the response as they are read.
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()

	req := &models.ExportRequest{
		Resource:  c.Query("resource"),
		Format:    c.DefaultQuery("format", service.FormatNDJSON),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	var stream func(*gin.Context, *models.ExportRequest) error
	switch req.Resource {
	case models.ResourceEmployees:
		req.Filter = c.Query("department")
		stream = func(c *gin.Context, req *models.ExportRequest) error {
			return h.services.Export.StreamEmployees(ctx, c.Writer, req)
		}
	case models.ResourceArticles:
		req.Filter = c.Query("unit")
		stream = func(c *gin.Context, req *models.ExportRequest) error {
			return h.services.Export.StreamArticles(ctx, c.Writer, req)
		}
	default:
		badRequest(c, "resource must be one of: employees, articles")
		return
	}

	h.log.Info().
		Str("resource", req.Resource).
		Str("format", req.Format).
		Msg("Starting streaming export")

	if err := stream(c, req); err != nil {
		if !c.Writer.Written() {
			respondError(c, h.log, err)
			return
		}
		// the status line is already sent
		h.log.Error().Err(err).Str("resource", req.Resource).Msg("Export failed")
	}
}
