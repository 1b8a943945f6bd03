package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/records-api/internal/database"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
)

const employeeColumns = `id, name, email, phone, job, department, created_at, updated_at`

// employeeRepo is the concrete implementation of EmployeeRepository
type employeeRepo struct {
	db *database.DB
}

// NewEmployeeRepo creates a new employee repository
func NewEmployeeRepo(db *database.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func scanEmployee(row interface{ Scan(...any) error }) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Job, &e.Department, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new employee and fills its timestamps
func (r *employeeRepo) Create(ctx context.Context, e *models.Employee) error {
	query := `
		INSERT INTO employees (id, name, email, phone, job, department)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, e.ID, e.Name, e.Email, e.Phone, e.Job, e.Department).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	return translateError(err)
}

// BatchInsert inserts multiple employees using PostgreSQL COPY
func (r *employeeRepo) BatchInsert(ctx context.Context, employees []*models.Employee) (int, error) {
	if len(employees) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("employees",
		"id", "name", "email", "phone", "job", "department", "created_at", "updated_at",
	))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range employees {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, e.Email, e.Phone, e.Job, e.Department, e.CreatedAt, e.UpdatedAt); err != nil {
			return 0, err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return len(employees), nil
}

// GetByID retrieves an employee by ID, or nil if it does not exist
func (r *employeeRepo) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// Update replaces the mutable fields of an employee. It reports false when
// the employee does not exist.
func (r *employeeRepo) Update(ctx context.Context, e *models.Employee) (bool, error) {
	query := `
		UPDATE employees SET name = $1, email = $2, phone = $3, job = $4, department = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, e.Name, e.Email, e.Phone, e.Job, e.Department, e.ID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, translateError(err)
	}
	return true, nil
}

// Delete removes an employee and returns it, or nil if it did not exist
func (r *employeeRepo) Delete(ctx context.Context, id string) (*models.Employee, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM employees WHERE id = $1 RETURNING `+employeeColumns, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// DeleteMany removes the given employees and returns the ids actually deleted
func (r *employeeRepo) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	return deleteMany(ctx, r.db, "employees", ids)
}

// EmailExists checks whether another employee already uses the email
func (r *employeeRepo) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	var err error
	if excludeID == "" {
		err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM employees WHERE email = $1)", email).Scan(&exists)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM employees WHERE email = $1 AND id <> $2)", email, excludeID).Scan(&exists)
	}
	return exists, err
}

// ExistingEmails returns which of the given emails are already stored
func (r *employeeRepo) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, "SELECT email FROM employees WHERE email = ANY($1)", pq.Array(emails))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		found = append(found, email)
	}
	return found, rows.Err()
}

// Find returns one page of employees matching the descriptor
func (r *employeeRepo) Find(ctx context.Context, d query.Descriptor, s query.Sort, w query.Window) ([]*models.Employee, error) {
	where, args := whereClause(d, nil)
	page, args := pageClause(w, args)

	rows, err := r.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees`+where+orderClause(s)+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*models.Employee, 0, w.Limit)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// Count returns the number of employees matching the descriptor
func (r *employeeRepo) Count(ctx context.Context, d query.Descriptor) (int, error) {
	where, args := whereClause(d, nil)
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees"+where, args...).Scan(&count)
	return count, err
}

// Stream calls callback for every matching employee in sort order
func (r *employeeRepo) Stream(ctx context.Context, d query.Descriptor, s query.Sort, callback func(*models.Employee) error) error {
	where, args := whereClause(d, nil)
	rows, err := r.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees`+where+orderClause(s), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return err
		}
		if err := callback(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

// DepartmentCounts groups all employees by department
func (r *employeeRepo) DepartmentCounts(ctx context.Context) ([]models.Bucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT department, COUNT(*) FROM employees
		GROUP BY department
		ORDER BY COUNT(*) DESC, department
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.Bucket{}
	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Label, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// deleteMany deletes rows by id and returns the ids that existed
func deleteMany(ctx context.Context, db *database.DB, table string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, "DELETE FROM "+table+" WHERE id = ANY($1::uuid[]) RETURNING id", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	return deleted, rows.Err()
}
