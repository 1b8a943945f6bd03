package repository

import (
	"context"

	"github.com/records-api/internal/database"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
)

// EmployeeRepository defines the interface for employee data operations
type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	BatchInsert(ctx context.Context, employees []*models.Employee) (int, error)
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) (bool, error)
	Delete(ctx context.Context, id string) (*models.Employee, error)
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	ExistingEmails(ctx context.Context, emails []string) ([]string, error)
	Find(ctx context.Context, d query.Descriptor, s query.Sort, w query.Window) ([]*models.Employee, error)
	Count(ctx context.Context, d query.Descriptor) (int, error)
	Stream(ctx context.Context, d query.Descriptor, s query.Sort, callback func(*models.Employee) error) error
	DepartmentCounts(ctx context.Context) ([]models.Bucket, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	BatchInsert(ctx context.Context, articles []*models.Article) (int, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	Update(ctx context.Context, article *models.Article) (bool, error)
	Delete(ctx context.Context, id string) (*models.Article, error)
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
	NumberExists(ctx context.Context, number int64, excludeID string) (bool, error)
	ExistingNumbers(ctx context.Context, numbers []int64) ([]int64, error)
	Find(ctx context.Context, d query.Descriptor, s query.Sort, w query.Window) ([]*models.Article, error)
	Count(ctx context.Context, d query.Descriptor) (int, error)
	Stream(ctx context.Context, d query.Descriptor, s query.Sort, callback func(*models.Article) error) error
	Overview(ctx context.Context) (models.ArticleOverview, error)
	PriceDistribution(ctx context.Context, boundaries []float64) ([]models.Bucket, error)
	TopUnits(ctx context.Context, limit int) ([]models.Bucket, error)
}

// JobRepository defines the interface for job data operations
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	ClaimPending(ctx context.Context, limit int) ([]*models.Job, error)
	RequeueInterrupted(ctx context.Context) (int, error)
	AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error
	GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error)
	CountErrors(ctx context.Context, jobID string) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Employee EmployeeRepository
	Article  ArticleRepository
	Job      JobRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Employee: NewEmployeeRepo(db),
		Article:  NewArticleRepo(db),
		Job:      NewJobRepo(db),
	}
}
