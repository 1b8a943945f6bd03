package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/service"
)

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	mu            sync.Mutex
	CreateJobFunc func(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessFunc   func(ctx context.Context, job *models.Job) error
	ProcessedJobs []*models.Job
	CreatedJobs   []*models.Job
	FilePaths     []string
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{
		ProcessedJobs: make([]*models.Job, 0),
		CreatedJobs:   make([]*models.Job, 0),
	}
}

func (m *MockImportService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req, filePath)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &models.Job{
		ID:             "11111111-1111-1111-1111-111111111111",
		Type:           models.JobTypeImport,
		Resource:       req.Resource,
		Status:         models.JobStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
	}
	m.CreatedJobs = append(m.CreatedJobs, job)
	m.FilePaths = append(m.FilePaths, filePath)
	return job, nil
}

func (m *MockImportService) ProcessImport(ctx context.Context, job *models.Job) error {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ProcessedJobs = append(m.ProcessedJobs, job)
	job.Status = models.JobStatusCompleted
	return nil
}

// Processed returns the number of jobs processed so far
func (m *MockImportService) Processed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ProcessedJobs)
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamEmployeesFunc func(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error
	StreamArticlesFunc  func(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error
	Requests            []*models.ExportRequest
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamEmployees(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error {
	m.Requests = append(m.Requests, req)
	if m.StreamEmployeesFunc != nil {
		return m.StreamEmployeesFunc(ctx, w, req)
	}
	return nil
}

func (m *MockExportService) StreamArticles(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error {
	m.Requests = append(m.Requests, req)
	if m.StreamArticlesFunc != nil {
		return m.StreamArticlesFunc(ctx, w, req)
	}
	return nil
}

// MockJobService is a mock implementation of JobService
type MockJobService struct {
	Jobs          map[string]*models.JobResponse
	Errors        map[string][]models.ValidationError
	ImportService service.ImportService
}

// Verify interface compliance
var _ service.JobService = (*MockJobService)(nil)

func NewMockJobService() *MockJobService {
	return &MockJobService{
		Jobs:   make(map[string]*models.JobResponse),
		Errors: make(map[string][]models.ValidationError),
	}
}

func (m *MockJobService) StartProcessor(ctx context.Context) {}

func (m *MockJobService) StopProcessor() {}

func (m *MockJobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	job, ok := m.Jobs[id]
	if !ok {
		return nil, apperrors.NotFound("job")
	}
	return job, nil
}

func (m *MockJobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	for _, job := range m.Jobs {
		if job.IdempotencyKey == key {
			return &job.Job, nil
		}
	}
	return nil, nil
}

func (m *MockJobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	if _, ok := m.Jobs[id]; !ok {
		return nil, apperrors.NotFound("job")
	}
	return m.Errors[id], nil
}

func (m *MockJobService) SetImportService(importService service.ImportService) {
	m.ImportService = importService
}
