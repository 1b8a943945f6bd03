package service

import (
	"context"
	"net/http"

	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/stats"
	"github.com/rs/zerolog"
)

// ListRequest carries the raw list parameters as received from the client
type ListRequest struct {
	Page      string
	Limit     string
	Search    string
	SortBy    string
	SortOrder string
	Filter    string // department for employees, unit for articles
}

// SearchInfo echoes the applied search term
type SearchInfo struct {
	Term         string `json:"term"`
	ResultsFound int    `json:"resultsFound"`
}

// SortInfo echoes the resolved sort, which may differ from the request
type SortInfo struct {
	Field string          `json:"field"`
	Order query.Direction `json:"order"`
}

// EmployeeList is one page of employees with its metadata
type EmployeeList struct {
	Employees  []*models.Employee
	Pagination query.PageInfo
	Search     SearchInfo
	Sort       SortInfo
	Stats      stats.EmployeeSummary
}

// ArticleList is one page of articles with its metadata
type ArticleList struct {
	Articles   []*models.ArticleDetail
	Pagination query.PageInfo
	Search     SearchInfo
	Sort       SortInfo
	Stats      stats.ArticleSummary
}

// BulkCreateResult reports the outcome of a bulk create; items succeed or fail independently
type BulkCreateResult[T any] struct {
	Created []T
	Failed  int
	Errors  []models.BulkItemError
}

// BulkDeleteResult reports the outcome of a bulk delete
type BulkDeleteResult struct {
	Requested    int                        `json:"requested"`
	DeletedCount int                        `json:"deletedCount"`
	DeletedIDs   []string                   `json:"deletedIds"`
	Failed       []models.BulkDeleteFailure `json:"failed"`
}

// EmployeeService defines the interface for employee operations
type EmployeeService interface {
	List(ctx context.Context, req ListRequest) (*EmployeeList, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, in *models.EmployeeInput) (*models.Employee, error)
	Update(ctx context.Context, id string, in *models.EmployeeInput) (*models.Employee, error)
	Delete(ctx context.Context, id string) (*models.Employee, error)
	BulkCreate(ctx context.Context, inputs []*models.EmployeeInput) (*BulkCreateResult[*models.Employee], error)
	BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error)
	Stats(ctx context.Context) (*models.EmployeeOverview, error)
}

// ArticleService defines the interface for article operations
type ArticleService interface {
	List(ctx context.Context, req ListRequest) (*ArticleList, error)
	Get(ctx context.Context, id string) (*models.ArticleDetail, error)
	Create(ctx context.Context, in *models.ArticleInput) (*models.ArticleDetail, error)
	Update(ctx context.Context, id string, in *models.ArticleInput) (*models.ArticleDetail, error)
	Delete(ctx context.Context, id string) (*models.Article, error)
	BulkCreate(ctx context.Context, inputs []*models.ArticleInput) (*BulkCreateResult[*models.ArticleDetail], error)
	BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error)
	Stats(ctx context.Context) (*models.ArticleStats, error)
}

// ImportService defines the interface for import operations
type ImportService interface {
	CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessImport(ctx context.Context, job *models.Job) error
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamEmployees(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error
	StreamArticles(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error
}

// JobService defines the interface for job management
type JobService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	GetJob(ctx context.Context, id string) (*models.JobResponse, error)
	GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error)
	SetImportService(importService ImportService)
}

// Services holds all service interfaces
type Services struct {
	Employee EmployeeService
	Article  ArticleService
	Import   ImportService
	Export   ExportService
	Job      JobService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	jobSvc := newJobService(repos.Job, cfg.Import, log)
	importSvc := newImportService(repos, cfg, log)

	// Wire up job processor to import service
	jobSvc.SetImportService(importSvc)

	return &Services{
		Employee: NewEmployeeService(repos.Employee, cfg, log),
		Article:  NewArticleService(repos.Article, cfg, log),
		Import:   importSvc,
		Export:   newExportService(repos, log),
		Job:      jobSvc,
	}
}
