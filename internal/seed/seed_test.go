package seed_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/records-api/internal/mocks"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/seed"
	"github.com/records-api/internal/validation"
	"github.com/rs/zerolog"
)

func newRepos() (*repository.Repositories, *mocks.MockEmployeeRepository, *mocks.MockArticleRepository) {
	employees := mocks.NewMockEmployeeRepository()
	articles := mocks.NewMockArticleRepository()
	return &repository.Repositories{
		Employee: employees,
		Article:  articles,
		Job:      mocks.NewMockJobRepository(),
	}, employees, articles
}

func TestGeneratorProducesValidRecords(t *testing.T) {
	gen := seed.NewGenerator(42)

	for i := 1; i <= 500; i++ {
		a := gen.Article(int64(i))
		if errs := validation.Article(a); len(errs) > 0 {
			t.Fatalf("Article %d failed validation: %v", i, errs)
		}
		if a.SalesPrice < a.PurchasePrice {
			t.Errorf("Expected sales price >= purchase price, got %v < %v", a.SalesPrice, a.PurchasePrice)
		}

		e := gen.Employee(i)
		if errs := validation.Employee(e); len(errs) > 0 {
			t.Fatalf("Employee %d failed validation: %v", i, errs)
		}
		if !models.ValidDepartments[e.Department] {
			t.Errorf("Expected a known department, got %q", e.Department)
		}
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := seed.NewGenerator(7).Article(1)
	b := seed.NewGenerator(7).Article(1)
	if *a != *b {
		t.Errorf("Expected equal articles for equal seeds, got %+v and %+v", a, b)
	}
}

func TestSeedArticlesSkipsTakenNumbers(t *testing.T) {
	repos, _, articles := newRepos()
	ctx := context.Background()

	// one existing record whose number collides with the first generated one
	if err := articles.Create(ctx, &models.Article{
		ID: "00000000-0000-0000-0000-000000000001", ArticleNumber: 2, ArticleName: "Existing", Unit: "pcs",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	s := seed.NewSeeder(repos, seed.NewGenerator(1), 2, zerolog.Nop())
	inserted, err := s.Articles(ctx, 5)
	if err != nil {
		t.Fatalf("Articles failed: %v", err)
	}
	if inserted != 5 {
		t.Errorf("Expected 5 inserted, got %d", inserted)
	}
	if len(articles.Articles) != 6 {
		t.Errorf("Expected 6 stored articles, got %d", len(articles.Articles))
	}
	for _, a := range articles.Articles {
		if a.ArticleNumber == 2 && a.ArticleName != "Existing" {
			t.Errorf("Expected article 2 to be left untouched, got %q", a.ArticleName)
		}
	}
}

func TestSeedEmployees(t *testing.T) {
	repos, employees, _ := newRepos()

	s := seed.NewSeeder(repos, seed.NewGenerator(3), 4, zerolog.Nop())
	inserted, err := s.Employees(context.Background(), 10)
	if err != nil {
		t.Fatalf("Employees failed: %v", err)
	}
	if inserted != 10 {
		t.Errorf("Expected 10 inserted, got %d", inserted)
	}
	if employees.BatchInsertCalls != 3 {
		t.Errorf("Expected 3 batch inserts, got %d", employees.BatchInsertCalls)
	}
	for _, e := range employees.Employees {
		if !strings.HasSuffix(e.Email, "@example.com") {
			t.Errorf("Expected generated email, got %q", e.Email)
		}
	}
}

func TestSeedInsertError(t *testing.T) {
	repos, _, articles := newRepos()
	articles.InsertError = errors.New("copy failed")

	s := seed.NewSeeder(repos, seed.NewGenerator(1), 10, zerolog.Nop())
	if _, err := s.Articles(context.Background(), 3); err == nil {
		t.Error("Expected error when the batch insert fails")
	}
}
