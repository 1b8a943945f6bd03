package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/records-api/internal/mocks"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
)

func employeeID(i int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", i)
}

func TestMockEmployeeRepository_BatchInsert(t *testing.T) {
	repo := mocks.NewMockEmployeeRepository()
	ctx := context.Background()

	employees := []*models.Employee{
		{ID: employeeID(1), Name: "Ann Lee", Email: "ann@example.com", Department: "HR"},
		{ID: employeeID(2), Name: "Ben Ode", Email: "ben@example.com", Department: "IT"},
		{ID: employeeID(3), Name: "Cy Park", Department: "IT"},
	}

	inserted, err := repo.BatchInsert(ctx, employees)
	if err != nil {
		t.Fatalf("BatchInsert failed: %v", err)
	}
	if inserted != 3 {
		t.Errorf("Expected 3 inserted, got %d", inserted)
	}

	for _, e := range employees {
		stored, err := repo.GetByID(ctx, e.ID)
		if err != nil {
			t.Errorf("GetByID failed: %v", err)
		}
		if stored == nil {
			t.Errorf("Employee %s not found", e.ID)
		}
	}
}

func TestMockEmployeeRepository_BatchInsertIsAllOrNothing(t *testing.T) {
	repo := mocks.NewMockEmployeeRepository()
	ctx := context.Background()

	_, err := repo.BatchInsert(ctx, []*models.Employee{
		{ID: employeeID(1), Name: "Ann", Email: "dup@example.com"},
		{ID: employeeID(2), Name: "Ben", Email: "dup@example.com"},
	})
	var dup *repository.DuplicateKeyError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("Expected duplicate email error, got %v", err)
	}
	if len(repo.Employees) != 0 {
		t.Errorf("Expected nothing stored, got %d", len(repo.Employees))
	}
}

func TestMockEmployeeRepository_EmailChecks(t *testing.T) {
	repo := mocks.NewMockEmployeeRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &models.Employee{ID: employeeID(1), Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exists, _ := repo.EmailExists(ctx, "ann@example.com", "")
	if !exists {
		t.Error("Expected email to exist")
	}
	exists, _ = repo.EmailExists(ctx, "ann@example.com", employeeID(1))
	if exists {
		t.Error("Expected the owner to be excluded")
	}

	existing, _ := repo.ExistingEmails(ctx, []string{"ann@example.com", "new@example.com"})
	if len(existing) != 1 || existing[0] != "ann@example.com" {
		t.Errorf("Expected [ann@example.com], got %v", existing)
	}
}

func TestMockEmployeeRepository_FindAndCount(t *testing.T) {
	repo := mocks.NewMockEmployeeRepository()
	ctx := context.Background()

	names := []string{"Eve", "Bob", "alice", "Dan", "Carl"}
	for i, name := range names {
		dept := "IT"
		if i%2 == 0 {
			dept = "HR"
		}
		repo.Create(ctx, &models.Employee{ID: employeeID(i + 1), Name: name, Department: dept, CreatedAt: time.Now()})
	}

	d, err := query.Build(query.EmployeeSchema, query.Params{FilterField: "department", FilterValue: "hr"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s := query.ResolveSort(query.EmployeeSchema, "name", "asc")

	total, _ := repo.Count(ctx, d)
	if total != 3 {
		t.Errorf("Expected 3 HR employees, got %d", total)
	}

	page, err := repo.Find(ctx, d, s, query.NewWindow(1, 2, query.Bounds{Default: 2, Max: 10}))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(page) != 2 || page[0].Name != "alice" || page[1].Name != "Carl" {
		t.Errorf("Expected [alice Carl], got %v", namesOf(page))
	}

	beyond, _ := repo.Find(ctx, d, s, query.NewWindow(5, 2, query.Bounds{Default: 2, Max: 10}))
	if len(beyond) != 0 {
		t.Errorf("Expected empty page, got %d", len(beyond))
	}
}

func namesOf(es []*models.Employee) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name
	}
	return out
}

func TestMockEmployeeRepository_DeleteMany(t *testing.T) {
	repo := mocks.NewMockEmployeeRepository()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		repo.Create(ctx, &models.Employee{ID: employeeID(i), Name: "Emp"})
	}

	deleted, err := repo.DeleteMany(ctx, []string{employeeID(1), employeeID(3), employeeID(9)})
	if err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("Expected 2 deleted, got %v", deleted)
	}
	if len(repo.Employees) != 1 {
		t.Errorf("Expected 1 remaining, got %d", len(repo.Employees))
	}

	gone, _ := repo.Delete(ctx, employeeID(1))
	if gone != nil {
		t.Error("Expected nil for an already deleted employee")
	}
}

func TestMockArticleRepository_Stats(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	prices := []float64{5, 9.99, 10, 75, 1500}
	for i, p := range prices {
		unit := "pcs"
		if i == 4 {
			unit = "box"
		}
		repo.Create(ctx, &models.Article{
			ID: employeeID(i + 1), ArticleNumber: int64(i + 1), ArticleName: "Item",
			Unit: unit, PackageSize: 2, SalesPrice: p, PurchasePrice: p / 2,
		})
	}

	overview, err := repo.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if overview.TotalArticles != 5 {
		t.Errorf("Expected 5 articles, got %d", overview.TotalArticles)
	}
	if overview.HighestSalesPrice != 1500 || overview.LowestSalesPrice != 5 {
		t.Errorf("Unexpected price range %v-%v", overview.LowestSalesPrice, overview.HighestSalesPrice)
	}

	buckets, err := repo.PriceDistribution(ctx, models.PriceBoundaries)
	if err != nil {
		t.Fatalf("PriceDistribution failed: %v", err)
	}
	counts := map[string]int{}
	for _, b := range buckets {
		counts[b.Label] = b.Count
	}
	if counts["0-10"] != 2 || counts["10-50"] != 1 {
		t.Errorf("Unexpected distribution %v", counts)
	}

	units, _ := repo.TopUnits(ctx, 1)
	if len(units) != 1 || units[0].Label != "pcs" || units[0].Count != 4 {
		t.Errorf("Expected pcs x4, got %+v", units)
	}
}

func TestMockJobRepository_ClaimPending(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()
	now := time.Now()

	repo.Create(ctx, &models.Job{ID: "job-2", Status: models.JobStatusPending, CreatedAt: now})
	repo.Create(ctx, &models.Job{ID: "job-1", Status: models.JobStatusPending, CreatedAt: now.Add(-time.Minute)})
	repo.Create(ctx, &models.Job{ID: "job-3", Status: models.JobStatusCompleted, CreatedAt: now})

	claimed, err := repo.ClaimPending(ctx, 1)
	if err != nil {
		t.Fatalf("ClaimPending failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != "job-1" {
		t.Fatalf("Expected job-1 to be claimed first, got %d jobs", len(claimed))
	}
	if claimed[0].Status != models.JobStatusProcessing || claimed[0].StartedAt == nil {
		t.Errorf("Expected claimed job to be processing with a start time")
	}

	claimed, _ = repo.ClaimPending(ctx, 5)
	if len(claimed) != 1 || claimed[0].ID != "job-2" {
		t.Errorf("Expected only job-2 left to claim, got %d", len(claimed))
	}
	if claimed, _ = repo.ClaimPending(ctx, 5); len(claimed) != 0 {
		t.Errorf("Expected nothing left to claim, got %d", len(claimed))
	}

	n, _ := repo.RequeueInterrupted(ctx)
	if n != 2 {
		t.Errorf("Expected 2 requeued jobs, got %d", n)
	}
	if job := repo.Job("job-3"); job.Status != models.JobStatusCompleted {
		t.Errorf("Completed job should not be requeued, got %s", job.Status)
	}
}

func TestMockJobRepository_Errors(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.Job{ID: "job-1", Status: models.JobStatusProcessing})
	repo.AddErrors(ctx, "job-1", []models.ValidationError{
		{Line: 2, Field: "email", Message: "invalid email format"},
		{Line: 3, Field: "name", Message: "name is required"},
		{Line: 4, Field: "csv", Message: "bare quote"},
	})

	limited, _ := repo.GetErrors(ctx, "job-1", 2)
	if len(limited) != 2 {
		t.Errorf("Expected 2 errors with limit, got %d", len(limited))
	}
	all, _ := repo.GetErrors(ctx, "job-1", 0)
	if len(all) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(all))
	}
	if n, _ := repo.CountErrors(ctx, "job-1"); n != 3 {
		t.Errorf("Expected count of 3, got %d", n)
	}

	byKey, _ := repo.GetByIdempotencyKey(ctx, "missing")
	if byKey != nil {
		t.Error("Expected nil for an unknown idempotency key")
	}
}
