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

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	timeout  time.Duration
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		timeout:  cfg.Server.RequestTimeout,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /api/articles
func (h *ArticleHandler) List(c *gin.Context) {
	start := time.Now()
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	list, err := h.services.Article.List(ctx, listRequest(c, "unit"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":   list.Articles,
		"pagination": list.Pagination,
		"search":     list.Search,
		"sort":       list.Sort,
		"stats":      list.Stats,
		"meta":       meta(start),
		"total":      list.Pagination.TotalCount,
	})
}

// Get handles GET /api/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	article, err := h.services.Article.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	article, err := h.services.Article.Create(ctx, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"article": article,
		"message": "Article created successfully",
	})
}

// Update handles PUT /api/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	article, err := h.services.Article.Update(ctx, c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"article": article,
		"message": "Article updated successfully",
	})
}

// Delete handles DELETE /api/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	article, err := h.services.Article.Delete(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Article deleted successfully",
		"deletedArticle": article,
	})
}

// BulkCreate handles POST /api/articles/bulk
func (h *ArticleHandler) BulkCreate(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	var body struct {
		Articles []*models.ArticleInput `json:"articles"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.services.Article.BulkCreate(ctx, body.Articles)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(bulkStatus(len(result.Created), result.Failed), gin.H{
		"message":  fmt.Sprintf("%d articles created, %d failed", len(result.Created), result.Failed),
		"created":  len(result.Created),
		"failed":   result.Failed,
		"articles": result.Created,
		"errors":   result.Errors,
	})
}

// BulkDelete handles DELETE /api/articles/bulk/:ids
func (h *ArticleHandler) BulkDelete(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	result, err := h.services.Article.BulkDelete(ctx, splitIDParam(c.Param("ids")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("%d articles deleted", result.DeletedCount),
		"requested":    result.Requested,
		"deletedCount": result.DeletedCount,
		"deletedIds":   result.DeletedIDs,
		"failed":       result.Failed,
	})
}

// Stats handles GET /api/articles/stats
func (h *ArticleHandler) Stats(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	stats, err := h.services.Article.Stats(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
