package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/stats"
	"github.com/records-api/internal/validation"
	"github.com/rs/zerolog"
)

// employeeService is the concrete implementation of EmployeeService
type employeeService struct {
	repo   repository.EmployeeRepository
	bounds query.Bounds
	bulk   config.BulkConfig
	log    zerolog.Logger
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(repo repository.EmployeeRepository, cfg *config.Config, log zerolog.Logger) EmployeeService {
	return &employeeService{
		repo:   repo,
		bounds: query.Bounds{Default: cfg.Pagination.EmployeeDefault, Max: cfg.Pagination.EmployeeMax},
		bulk:   cfg.Bulk,
		log:    log.With().Str("service", "employee").Logger(),
	}
}

// List returns one page of employees matching the search and department filter
func (s *employeeService) List(ctx context.Context, req ListRequest) (*EmployeeList, error) {
	d, sort, w, err := buildQuery(query.EmployeeSchema, "department", req, s.bounds)
	if err != nil {
		return nil, err
	}

	employees, total, err := fetchPage(ctx,
		func(ctx context.Context) (int, error) { return s.repo.Count(ctx, d) },
		func(ctx context.Context) ([]*models.Employee, error) { return s.repo.Find(ctx, d, sort, w) },
	)
	if err != nil {
		s.log.Error().Err(err).Str("search", d.Term).Msg("Failed to list employees")
		return nil, apperrors.Storage("list employees", err)
	}

	return &EmployeeList{
		Employees:  employees,
		Pagination: w.Info(total),
		Search:     SearchInfo{Term: d.Term, ResultsFound: total},
		Sort:       SortInfo{Field: sort.Field, Order: sort.Order},
		Stats:      stats.Employees(employees),
	}, nil
}

// Get retrieves an employee by id
func (s *employeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	if !validation.ID(id) {
		return nil, apperrors.InvalidID("employee")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("get employee", err)
	}
	if e == nil {
		return nil, apperrors.NotFound("employee")
	}
	return e, nil
}

// Create validates and stores a new employee
func (s *employeeService) Create(ctx context.Context, in *models.EmployeeInput) (*models.Employee, error) {
	in.Normalize()
	if errs := validation.Employee(in); len(errs) > 0 {
		return nil, apperrors.Validation("validation failed", errs...)
	}
	if err := s.checkEmail(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	e := &models.Employee{ID: uuid.New().String()}
	e.Apply(in)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, writeError("create employee", err)
	}

	s.log.Info().Str("employee_id", e.ID).Str("department", e.Department).Msg("Employee created")
	return e, nil
}

// Update replaces the mutable fields of an existing employee
func (s *employeeService) Update(ctx context.Context, id string, in *models.EmployeeInput) (*models.Employee, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Normalize()
	if errs := validation.Employee(in); len(errs) > 0 {
		return nil, apperrors.Validation("validation failed", errs...)
	}
	if err := s.checkEmail(ctx, in.Email, e.ID); err != nil {
		return nil, err
	}

	e.Apply(in)
	found, err := s.repo.Update(ctx, e)
	if err != nil {
		return nil, writeError("update employee", err)
	}
	if !found {
		return nil, apperrors.NotFound("employee")
	}

	s.log.Info().Str("employee_id", e.ID).Msg("Employee updated")
	return e, nil
}

// Delete removes an employee and returns the deleted record
func (s *employeeService) Delete(ctx context.Context, id string) (*models.Employee, error) {
	if !validation.ID(id) {
		return nil, apperrors.InvalidID("employee")
	}
	e, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("delete employee", err)
	}
	if e == nil {
		return nil, apperrors.NotFound("employee")
	}

	s.log.Info().Str("employee_id", e.ID).Msg("Employee deleted")
	return e, nil
}

// BulkCreate validates and stores each employee independently
func (s *employeeService) BulkCreate(ctx context.Context, inputs []*models.EmployeeInput) (*BulkCreateResult[*models.Employee], error) {
	if err := checkBulkSize(len(inputs), s.bulk.MaxCreate, "employee"); err != nil {
		return nil, err
	}

	var emails []string
	for _, in := range inputs {
		if in != nil {
			in.Normalize()
			if in.Email != "" {
				emails = append(emails, in.Email)
			}
		}
	}

	batch := validation.NewBatch()
	existing, err := s.repo.ExistingEmails(ctx, emails)
	if err != nil {
		return nil, apperrors.Storage("bulk create employees", err)
	}
	batch.SetExistingEmails(existing)

	result := &BulkCreateResult[*models.Employee]{Created: []*models.Employee{}, Errors: []models.BulkItemError{}}
	for i, in := range inputs {
		if in == nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{Index: i, Message: "item must be an object"})
			continue
		}
		if errs := batch.Employee(in); len(errs) > 0 {
			result.Failed++
			result.Errors = append(result.Errors, itemErrors(i, errs)...)
			continue
		}

		e := &models.Employee{ID: uuid.New().String()}
		e.Apply(in)
		if err := s.repo.Create(ctx, e); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, bulkWriteError(i, writeError("create employee", err)))
			continue
		}
		batch.AddEmployee(in)
		result.Created = append(result.Created, e)
	}

	s.log.Info().
		Int("requested", len(inputs)).
		Int("created", len(result.Created)).
		Int("failed", result.Failed).
		Msg("Bulk employee create completed")
	return result, nil
}

// BulkDelete removes the given employees, reporting ids that could not be deleted
func (s *employeeService) BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error) {
	result, err := bulkDelete(ctx, ids, s.bulk.MaxDelete, s.repo.DeleteMany)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("requested", result.Requested).Int("deleted", result.DeletedCount).Msg("Bulk employee delete completed")
	return result, nil
}

// Stats summarizes the whole employee collection
func (s *employeeService) Stats(ctx context.Context) (*models.EmployeeOverview, error) {
	total, err := s.repo.Count(ctx, query.Descriptor{})
	if err != nil {
		return nil, apperrors.Storage("employee stats", err)
	}
	departments, err := s.repo.DepartmentCounts(ctx)
	if err != nil {
		return nil, apperrors.Storage("employee stats", err)
	}
	return &models.EmployeeOverview{TotalEmployees: total, Departments: departments}, nil
}

func (s *employeeService) checkEmail(ctx context.Context, email, excludeID string) error {
	if email == "" {
		return nil
	}
	exists, err := s.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		return apperrors.Storage("check employee email", err)
	}
	if exists {
		return apperrors.Conflict("email", "an employee with this email already exists")
	}
	return nil
}

func bulkWriteError(index int, err error) models.BulkItemError {
	item := models.BulkItemError{Index: index, Message: err.Error()}
	if de, ok := apperrors.As(err); ok {
		item.Field = de.Field
		if de.Code == apperrors.CodeStorage {
			item.Message = de.Message
		}
	}
	return item
}
