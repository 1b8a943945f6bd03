package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/validation"
	"github.com/rs/zerolog"
)

// errorFlushThreshold caps the number of line errors held in memory before
// they are written to the job.
const errorFlushThreshold = 1000

// cancelCheckEvery is the number of lines read between context checks
const cancelCheckEvery = 10000

// importService is the concrete implementation of ImportService
type importService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *importService {
	return &importService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "import").Logger(),
	}
}

// CreateImportJob creates a pending import job for an uploaded file
func (s *importService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	switch req.Resource {
	case models.ResourceEmployees, models.ResourceArticles:
	default:
		return nil, apperrors.Validation(
			fmt.Sprintf("unknown resource: %s", req.Resource),
			models.FieldError{Field: "resource", Message: "must be one of employees, articles", Value: req.Resource},
		)
	}

	job := &models.Job{
		ID:             uuid.New().String(),
		Type:           models.JobTypeImport,
		Resource:       req.Resource,
		Status:         models.JobStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
		CreatedAt:      time.Now(),
	}

	if err := s.repos.Job.Create(ctx, job); err != nil {
		return nil, apperrors.Storage("create import job", err)
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("resource", job.Resource).
		Str("file", filePath).
		Msg("Import job created")

	return job, nil
}

// ProcessImport reads the job's file and imports every valid line
func (s *importService) ProcessImport(ctx context.Context, job *models.Job) error {
	startTime := time.Now()
	now := startTime
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	s.updateJob(ctx, job)

	s.log.Info().
		Str("job_id", job.ID).
		Str("resource", job.Resource).
		Msg("Starting import processing")

	var err error
	switch job.Resource {
	case models.ResourceEmployees:
		err = s.importEmployeesCSV(ctx, job)
	case models.ResourceArticles:
		err = s.importArticlesNDJSON(ctx, job)
	default:
		err = fmt.Errorf("unknown resource type: %s", job.Resource)
	}

	duration := time.Since(startTime)
	job.DurationMs = duration.Milliseconds()
	if job.ProcessedCount > 0 && duration.Seconds() > 0 {
		job.RowsPerSec = float64(job.ProcessedCount) / duration.Seconds()
	}

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	var errorRate float64
	if job.TotalRecords > 0 {
		errorRate = float64(job.FailedCount) / float64(job.TotalRecords) * 100
	}

	if err != nil {
		job.Status = models.JobStatusFailed
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import failed")
	} else {
		job.Status = models.JobStatusCompleted
		s.log.Info().
			Str("job_id", job.ID).
			Int("total", job.TotalRecords).
			Int("successful", job.SuccessfulCount).
			Int("failed", job.FailedCount).
			Float64("error_rate_pct", errorRate).
			Int64("duration_ms", job.DurationMs).
			Float64("rows_per_sec", job.RowsPerSec).
			Msg("Import completed")
	}

	s.updateJob(ctx, job)
	if rmErr := os.Remove(job.FilePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		s.log.Warn().Err(rmErr).Str("job_id", job.ID).Msg("Failed to remove upload")
	}

	return err
}

func (s *importService) updateJob(ctx context.Context, job *models.Job) {
	if err := s.repos.Job.Update(ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to update job")
	}
}

// importEmployeesCSV imports employees from a CSV file with a header row
func (s *importService) importEmployeesCSV(ctx context.Context, job *models.Job) error {
	file, err := os.Open(job.FilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	b := s.newEmployeeBatch(job)
	validator := validation.NewBatch()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		job.TotalRecords++
		if job.TotalRecords%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return err
			}
			b.reject(ctx, pe.Line, []models.FieldError{{Field: "csv", Message: pe.Err.Error()}})
			continue
		}
		line, _ := reader.FieldPos(0)

		in := &models.EmployeeInput{
			Name:       getField(record, headerMap, "name"),
			Email:      getField(record, headerMap, "email"),
			Phone:      getField(record, headerMap, "phone"),
			Job:        getField(record, headerMap, "job"),
			Department: getField(record, headerMap, "department"),
		}
		in.Normalize()

		if errs := validator.Employee(in); len(errs) > 0 {
			b.reject(ctx, line, errs)
			continue
		}
		validator.AddEmployee(in)

		e := &models.Employee{ID: uuid.New().String()}
		e.Apply(in)
		b.add(ctx, line, e)
	}

	b.finish(ctx)
	return nil
}

// importArticlesNDJSON imports articles from a file with one JSON object per line
func (s *importService) importArticlesNDJSON(ctx context.Context, job *models.Job) error {
	file, err := os.Open(job.FilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	b := s.newArticleBatch(job)
	validator := validation.NewBatch()
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		job.TotalRecords++
		if job.TotalRecords%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		var in models.ArticleInput
		if err := json.Unmarshal(line, &in); err != nil {
			b.reject(ctx, lineNum, []models.FieldError{{Field: "json", Message: fmt.Sprintf("invalid JSON: %v", err)}})
			continue
		}
		in.Normalize()

		if errs := validator.Article(&in); len(errs) > 0 {
			b.reject(ctx, lineNum, errs)
			continue
		}
		validator.AddArticle(&in)

		a := &models.Article{ID: uuid.New().String()}
		a.Apply(&in)
		b.add(ctx, lineNum, a)
	}

	b.finish(ctx)
	return scanner.Err()
}

func (s *importService) newEmployeeBatch(job *models.Job) *lineBatch[*models.Employee] {
	return &lineBatch[*models.Employee]{
		s:      s,
		job:    job,
		size:   s.cfg.Import.BatchSize,
		insert: s.repos.Employee.BatchInsert,
		check: func(ctx context.Context, employees []*models.Employee) ([]*models.FieldError, error) {
			var emails []string
			for _, e := range employees {
				if e.Email != "" {
					emails = append(emails, e.Email)
				}
			}
			existing, err := s.repos.Employee.ExistingEmails(ctx, emails)
			if err != nil {
				return nil, err
			}
			taken := make(map[string]bool, len(existing))
			for _, email := range existing {
				taken[email] = true
			}
			out := make([]*models.FieldError, len(employees))
			for i, e := range employees {
				if e.Email != "" && taken[e.Email] {
					out[i] = &models.FieldError{Field: "email", Message: "email already exists", Value: e.Email}
				}
			}
			return out, nil
		},
	}
}

func (s *importService) newArticleBatch(job *models.Job) *lineBatch[*models.Article] {
	return &lineBatch[*models.Article]{
		s:      s,
		job:    job,
		size:   s.cfg.Import.BatchSize,
		insert: s.repos.Article.BatchInsert,
		check: func(ctx context.Context, articles []*models.Article) ([]*models.FieldError, error) {
			numbers := make([]int64, len(articles))
			for i, a := range articles {
				numbers[i] = a.ArticleNumber
			}
			existing, err := s.repos.Article.ExistingNumbers(ctx, numbers)
			if err != nil {
				return nil, err
			}
			taken := make(map[int64]bool, len(existing))
			for _, n := range existing {
				taken[n] = true
			}
			out := make([]*models.FieldError, len(articles))
			for i, a := range articles {
				if taken[a.ArticleNumber] {
					out[i] = &models.FieldError{Field: "articleNumber", Message: "article number already exists", Value: a.ArticleNumber}
				}
			}
			return out, nil
		},
	}
}

// lineBatch accumulates valid lines of an import file and writes them in
// batches. Lines whose unique key is already stored are rejected at flush.
type lineBatch[T any] struct {
	s       *importService
	job     *models.Job
	size    int
	records []T
	lines   []int
	errs    []models.ValidationError
	check   func(context.Context, []T) ([]*models.FieldError, error)
	insert  func(context.Context, []T) (int, error)
}

func (b *lineBatch[T]) add(ctx context.Context, line int, rec T) {
	b.records = append(b.records, rec)
	b.lines = append(b.lines, line)
	if len(b.records) >= b.size {
		b.flush(ctx)
	}
}

func (b *lineBatch[T]) reject(ctx context.Context, line int, errs []models.FieldError) {
	b.job.FailedCount++
	b.job.ProcessedCount++
	for _, e := range errs {
		b.errs = append(b.errs, models.ValidationError{
			Line:    line,
			Field:   e.Field,
			Message: e.Message,
			Value:   e.Value,
		})
	}
	if len(b.errs) >= errorFlushThreshold {
		b.flushErrors(ctx)
	}
}

func (b *lineBatch[T]) flush(ctx context.Context) {
	if len(b.records) == 0 {
		return
	}
	defer func() {
		b.records = b.records[:0]
		b.lines = b.lines[:0]
	}()

	conflicts, err := b.check(ctx, b.records)
	if err != nil {
		b.s.log.Error().Err(err).Int("batch_size", len(b.records)).Msg("Existing key lookup failed")
		b.failAll(ctx, b.lines, err)
		return
	}

	ok := make([]T, 0, len(b.records))
	okLines := make([]int, 0, len(b.records))
	for i, rec := range b.records {
		if c := conflicts[i]; c != nil {
			b.reject(ctx, b.lines[i], []models.FieldError{*c})
			continue
		}
		ok = append(ok, rec)
		okLines = append(okLines, b.lines[i])
	}
	if len(ok) == 0 {
		return
	}

	inserted, err := b.insert(ctx, ok)
	if err != nil {
		b.s.log.Error().Err(err).Int("batch_size", len(ok)).Msg("Batch insert failed")
		b.failAll(ctx, okLines, err)
		return
	}
	b.job.SuccessfulCount += inserted
	b.job.ProcessedCount += len(ok)

	b.s.log.Debug().
		Str("job_id", b.job.ID).
		Int("processed", b.job.ProcessedCount).
		Msg("Batch processed")
}

// failAll rejects every line of a batch the store could not take
func (b *lineBatch[T]) failAll(ctx context.Context, lines []int, err error) {
	for _, line := range lines {
		b.reject(ctx, line, []models.FieldError{{Message: "storage error: " + err.Error()}})
	}
}

func (b *lineBatch[T]) flushErrors(ctx context.Context) {
	if len(b.errs) == 0 {
		return
	}
	if err := b.s.repos.Job.AddErrors(ctx, b.job.ID, b.errs); err != nil {
		b.s.log.Error().Err(err).Int("count", len(b.errs)).Msg("Failed to flush validation errors")
	}
	b.errs = b.errs[:0]
}

func (b *lineBatch[T]) finish(ctx context.Context) {
	b.flush(ctx)
	b.flushErrors(ctx)
}

func getField(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
