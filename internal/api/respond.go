package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/service"
	"github.com/rs/zerolog"
)

// respondError writes the JSON body for a service error
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status := apperrors.ToHTTPStatus(err)
	de, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Msg("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": apperrors.CodeStorage})
		return
	}

	body := gin.H{"error": de.Message, "code": de.Code}
	if de.Field != "" {
		body["field"] = de.Field
	}
	if len(de.Details) > 0 {
		body["details"] = de.Details
	}
	if de.Code == apperrors.CodeStorage {
		log.Error().Err(err).Msg(de.Message)
		if de.Err != nil {
			body["cause"] = de.Err.Error()
		}
	}
	c.JSON(status, body)
}

// badRequest reports a malformed request body
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": apperrors.CodeValidation})
}

// listRequest reads the list query parameters; filter names the entity's filter param
func listRequest(c *gin.Context, filter string) service.ListRequest {
	return service.ListRequest{
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Filter:    c.Query(filter),
	}
}

// meta describes how a list response was produced
func meta(start time.Time) gin.H {
	return gin.H{
		"responseTime": time.Since(start).Milliseconds(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
}

// bulkStatus is 201 when every item was created, 207 when some were and 400 when none were
func bulkStatus(created, failed int) int {
	switch {
	case failed == 0:
		return http.StatusCreated
	case created > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusBadRequest
	}
}

// splitIDParam splits a comma separated id list
func splitIDParam(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
