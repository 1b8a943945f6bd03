package validation

import (
	"strings"
	"testing"

	"github.com/records-api/internal/models"
)

func TestEmployee(t *testing.T) {
	tests := []struct {
		name       string
		input      models.EmployeeInput
		wantFields []string
	}{
		{
			name:  "valid employee with all fields",
			input: models.EmployeeInput{Name: "Jane Doe", Email: "jane@example.com", Phone: "+1 (555) 123-4567", Job: "Developer", Department: "Engineering"},
		},
		{
			name:  "only name",
			input: models.EmployeeInput{Name: "Jo"},
		},
		{
			name:       "missing name",
			input:      models.EmployeeInput{Email: "jane@example.com"},
			wantFields: []string{"name"},
		},
		{
			name:       "name too short",
			input:      models.EmployeeInput{Name: "J"},
			wantFields: []string{"name"},
		},
		{
			name:       "name too long",
			input:      models.EmployeeInput{Name: strings.Repeat("a", 101)},
			wantFields: []string{"name"},
		},
		{
			name:       "invalid email format",
			input:      models.EmployeeInput{Name: "Jane Doe", Email: "not-an-email"},
			wantFields: []string{"email"},
		},
		{
			name:       "phone with letters",
			input:      models.EmployeeInput{Name: "Jane Doe", Phone: "555-CALL-NOW"},
			wantFields: []string{"phone"},
		},
		{
			name:       "phone too short",
			input:      models.EmployeeInput{Name: "Jane Doe", Phone: "12345"},
			wantFields: []string{"phone"},
		},
		{
			name:       "phone longer than the column",
			input:      models.EmployeeInput{Name: "Ann Lee", Phone: "+1 " + strings.Repeat("5", 60)},
			wantFields: []string{"phone"},
		},
		{
			name:  "phone at the column limit",
			input: models.EmployeeInput{Name: "Ann Lee", Phone: "+1 " + strings.Repeat("5", 47)},
		},
		{
			name:       "job too long",
			input:      models.EmployeeInput{Name: "Jane Doe", Job: strings.Repeat("x", 101)},
			wantFields: []string{"job"},
		},
		{
			name:       "unknown department",
			input:      models.EmployeeInput{Name: "Jane Doe", Department: "Catering"},
			wantFields: []string{"department"},
		},
		{
			name:       "multiple errors",
			input:      models.EmployeeInput{Email: "bad", Phone: "x"},
			wantFields: []string{"name", "email", "phone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Employee(&tt.input)
			assertFields(t, errs, tt.wantFields)
		})
	}
}

func TestArticle(t *testing.T) {
	valid := func() models.ArticleInput {
		return models.ArticleInput{ArticleNumber: 1001, ArticleName: "Widget", Unit: "pcs", PackageSize: 1, PurchasePrice: 2.5, SalesPrice: 4.99}
	}

	tests := []struct {
		name       string
		mutate     func(*models.ArticleInput)
		wantFields []string
	}{
		{"valid article", func(*models.ArticleInput) {}, nil},
		{"zero prices allowed", func(a *models.ArticleInput) { a.PurchasePrice, a.SalesPrice = 0, 0 }, nil},
		{"missing article number", func(a *models.ArticleInput) { a.ArticleNumber = 0 }, []string{"articleNumber"}},
		{"negative article number", func(a *models.ArticleInput) { a.ArticleNumber = -5 }, []string{"articleNumber"}},
		{"missing name", func(a *models.ArticleInput) { a.ArticleName = "" }, []string{"articleName"}},
		{"name too long", func(a *models.ArticleInput) { a.ArticleName = strings.Repeat("n", 201) }, []string{"articleName"}},
		{"unknown unit", func(a *models.ArticleInput) { a.Unit = "barrel" }, []string{"unit"}},
		{"negative package size", func(a *models.ArticleInput) { a.PackageSize = -1 }, []string{"packageSize"}},
		{"negative purchase price", func(a *models.ArticleInput) { a.PurchasePrice = -0.01 }, []string{"purchasePrice"}},
		{"negative sales price", func(a *models.ArticleInput) { a.SalesPrice = -3 }, []string{"salesPrice"}},
		{"largest storable prices", func(a *models.ArticleInput) { a.PurchasePrice, a.SalesPrice = 9999999999.99, 9999999999.99 }, nil},
		{"sales price beyond storage", func(a *models.ArticleInput) { a.SalesPrice = 1e11 }, []string{"salesPrice"}},
		{"purchase price beyond storage", func(a *models.ArticleInput) { a.PurchasePrice = 1e10 }, []string{"purchasePrice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			assertFields(t, Article(&in), tt.wantFields)
		})
	}
}

func TestArticle_MessagesUseJSONNames(t *testing.T) {
	in := models.ArticleInput{ArticleName: "Widget"}
	errs := Article(&in)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	if errs[0].Message != "articleNumber is required" {
		t.Errorf("Unexpected message %q", errs[0].Message)
	}
}

func TestID(t *testing.T) {
	if !ID("550e8400-e29b-41d4-a716-446655440000") {
		t.Error("valid UUID rejected")
	}
	for _, id := range []string{"", "42", "not-a-uuid", "550e8400-e29b-41d4-a716"} {
		if ID(id) {
			t.Errorf("ID(%q) should be invalid", id)
		}
	}
}

func TestBatch_ArticleDuplicates(t *testing.T) {
	b := NewBatch()
	b.SetExistingNumbers([]int64{500})

	first := models.ArticleInput{ArticleNumber: 1, ArticleName: "A", Unit: "pcs"}
	if errs := b.Article(&first); len(errs) != 0 {
		t.Fatalf("first article should pass, got %v", errs)
	}
	b.AddArticle(&first)

	dup := models.ArticleInput{ArticleNumber: 1, ArticleName: "B", Unit: "pcs"}
	errs := b.Article(&dup)
	if len(errs) != 1 || errs[0].Message != "duplicate article number" {
		t.Errorf("Expected duplicate error, got %v", errs)
	}

	existing := models.ArticleInput{ArticleNumber: 500, ArticleName: "C", Unit: "pcs"}
	errs = b.Article(&existing)
	if len(errs) != 1 || errs[0].Message != "article number already exists" {
		t.Errorf("Expected existing error, got %v", errs)
	}
}

func TestBatch_EmployeeDuplicates(t *testing.T) {
	b := NewBatch()
	b.SetExistingEmails([]string{"taken@example.com"})

	first := models.EmployeeInput{Name: "Ann Lee", Email: "ann@example.com"}
	if errs := b.Employee(&first); len(errs) != 0 {
		t.Fatalf("first employee should pass, got %v", errs)
	}
	b.AddEmployee(&first)

	if errs := b.Employee(&models.EmployeeInput{Name: "Ann Two", Email: "ann@example.com"}); len(errs) != 1 {
		t.Errorf("Expected duplicate email error, got %v", errs)
	}
	if errs := b.Employee(&models.EmployeeInput{Name: "Tom Taken", Email: "taken@example.com"}); len(errs) != 1 {
		t.Errorf("Expected existing email error, got %v", errs)
	}

	// employees without email never collide
	b.AddEmployee(&models.EmployeeInput{Name: "No Mail"})
	if errs := b.Employee(&models.EmployeeInput{Name: "No Mail Two"}); len(errs) != 0 {
		t.Errorf("Empty emails should not collide, got %v", errs)
	}
}

func TestNormalizeThenValidate(t *testing.T) {
	in := models.EmployeeInput{Name: "  Sam Smith  ", Email: " SAM@Example.COM ", Job: "Senior Software Engineer"}
	in.Normalize()

	if in.Email != "sam@example.com" {
		t.Errorf("Expected lowercased email, got %q", in.Email)
	}
	if in.Department != "Engineering" {
		t.Errorf("Expected derived department Engineering, got %q", in.Department)
	}
	if errs := Employee(&in); len(errs) != 0 {
		t.Errorf("Normalized input should validate, got %v", errs)
	}
}

func assertFields(t *testing.T, errs []models.FieldError, want []string) {
	t.Helper()
	if len(errs) != len(want) {
		t.Fatalf("Expected %d errors, got %d: %v", len(want), len(errs), errs)
	}
	got := make(map[string]bool)
	for _, e := range errs {
		got[e.Field] = true
	}
	for _, f := range want {
		if !got[f] {
			t.Errorf("Expected error for field %s, got %v", f, errs)
		}
	}
}

func BenchmarkEmployee(b *testing.B) {
	in := &models.EmployeeInput{Name: "Jane Doe", Email: "jane@example.com", Phone: "+1 555 123 4567", Job: "Developer", Department: "Engineering"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Employee(in)
	}
}

func BenchmarkArticle(b *testing.B) {
	in := &models.ArticleInput{ArticleNumber: 1, ArticleName: "Widget", Unit: "pcs", PackageSize: 1, PurchasePrice: 1, SalesPrice: 2}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Article(in)
	}
}
