package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/service"
	"github.com/rs/zerolog"
)

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	services *service.Services
	timeout  time.Duration
	log      zerolog.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		services: services,
		timeout:  cfg.Server.RequestTimeout,
		log:      log.With().Str("handler", "employee").Logger(),
	}
}

// List handles GET /api/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	start := time.Now()
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	list, err := h.services.Employee.List(ctx, listRequest(c, "department"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees":  list.Employees,
		"pagination": list.Pagination,
		"search":     list.Search,
		"sort":       list.Sort,
		"stats":      list.Stats,
		"meta":       meta(start),
		"total":      list.Pagination.TotalCount,
	})
}

// Get handles GET /api/employees/:id
func (h *EmployeeHandler) Get(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	employee, err := h.services.Employee.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// Create handles POST /api/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	var in models.EmployeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	employee, err := h.services.Employee.Create(ctx, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"employee": employee,
		"message":  "Employee created successfully",
	})
}

// Update handles PUT /api/employees/:id
func (h *EmployeeHandler) Update(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	var in models.EmployeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	employee, err := h.services.Employee.Update(ctx, c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee": employee,
		"message":  "Employee updated successfully",
	})
}

// Delete handles DELETE /api/employees/:id
func (h *EmployeeHandler) Delete(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	employee, err := h.services.Employee.Delete(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Employee deleted successfully",
		"deletedEmployee": employee,
	})
}

// BulkCreate handles POST /api/employees/bulk
func (h *EmployeeHandler) BulkCreate(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	var body struct {
		Employees []*models.EmployeeInput `json:"employees"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.services.Employee.BulkCreate(ctx, body.Employees)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(bulkStatus(len(result.Created), result.Failed), gin.H{
		"message":   fmt.Sprintf("%d employees created, %d failed", len(result.Created), result.Failed),
		"created":   len(result.Created),
		"failed":    result.Failed,
		"employees": result.Created,
		"errors":    result.Errors,
	})
}

// BulkDelete handles DELETE /api/employees/bulk/:ids
func (h *EmployeeHandler) BulkDelete(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	result, err := h.services.Employee.BulkDelete(ctx, splitIDParam(c.Param("ids")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("%d employees deleted", result.DeletedCount),
		"requested":    result.Requested,
		"deletedCount": result.DeletedCount,
		"deletedIds":   result.DeletedIDs,
		"failed":       result.Failed,
	})
}

// Stats handles GET /api/employees/stats
func (h *EmployeeHandler) Stats(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	overview, err := h.services.Employee.Stats(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
