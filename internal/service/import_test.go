package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
)

func writeUpload(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return path
}

func runImport(t *testing.T, env *testEnv, resource, path string) *models.Job {
	t.Helper()
	ctx := context.Background()

	job, err := env.services.Import.CreateImportJob(ctx, &models.ImportRequest{Resource: resource}, path)
	if err != nil {
		t.Fatalf("CreateImportJob failed: %v", err)
	}
	if job.Status != models.JobStatusPending {
		t.Errorf("Expected pending job, got %s", job.Status)
	}
	if err := env.services.Import.ProcessImport(ctx, job); err != nil {
		t.Fatalf("ProcessImport failed: %v", err)
	}

	stored := env.jobs.Job(job.ID)
	if stored == nil {
		t.Fatal("Expected job to be stored")
	}
	return stored
}

func errorLines(t *testing.T, env *testEnv, jobID string) map[int][]string {
	t.Helper()
	errs, err := env.jobs.GetErrors(context.Background(), jobID, 0)
	if err != nil {
		t.Fatalf("GetErrors failed: %v", err)
	}
	lines := map[int][]string{}
	for _, e := range errs {
		lines[e.Line] = append(lines[e.Line], e.Field)
	}
	return lines
}

func TestImportEmployeesCSV(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.services.Employee.Create(ctx, &models.EmployeeInput{Name: "Existing", Email: "taken@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	path := writeUpload(t, env.cfg.Import.UploadDir, "employees.csv", "\ufeffName,Email,Phone,Job,Department\n"+
		"Alice Johnson,alice@example.com,+1 555 0100,Developer,\n"+
		"X,bad-email,,,\n"+
		"Bob Smith,taken@example.com,,,\n"+
		"Carol White,ALICE@example.com,,,\n"+
		"Dave Brown,dave@example.com,,Accountant,\n")

	job := runImport(t, env, models.ResourceEmployees, path)

	if job.Status != models.JobStatusCompleted {
		t.Errorf("Expected completed, got %s", job.Status)
	}
	if job.TotalRecords != 5 {
		t.Errorf("Expected 5 records, got %d", job.TotalRecords)
	}
	if job.SuccessfulCount != 2 {
		t.Errorf("Expected 2 successful, got %d", job.SuccessfulCount)
	}
	if job.FailedCount != 3 {
		t.Errorf("Expected 3 failed, got %d", job.FailedCount)
	}
	if job.ProcessedCount != 5 {
		t.Errorf("Expected 5 processed, got %d", job.ProcessedCount)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("Expected start and completion times")
	}

	lines := errorLines(t, env, job.ID)
	for _, line := range []int{3, 4, 5} {
		if len(lines[line]) == 0 {
			t.Errorf("Expected an error on line %d", line)
		}
	}
	if len(lines[3]) != 2 {
		t.Errorf("Expected 2 errors on line 3, got %v", lines[3])
	}

	if len(env.employees.Employees) != 3 {
		t.Errorf("Expected 3 stored employees, got %d", len(env.employees.Employees))
	}
	for _, e := range env.employees.Employees {
		if e.Email == "dave@example.com" && e.Department != "Finance" {
			t.Errorf("Expected Finance for Dave, got %q", e.Department)
		}
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected the upload to be removed after processing")
	}
}

func TestImportEmployeesCSVMalformedQuote(t *testing.T) {
	env := newTestEnv(t)

	path := writeUpload(t, env.cfg.Import.UploadDir, "broken.csv", "name,email\n"+
		"Alice Johnson,alice@example.com\n"+
		"\"Bob \"Smith\",bob@example.com\n"+
		"Carol White,carol@example.com\n")

	job := runImport(t, env, models.ResourceEmployees, path)

	if job.SuccessfulCount != 2 || job.FailedCount != 1 {
		t.Errorf("Expected 2 successful and 1 failed, got %d and %d", job.SuccessfulCount, job.FailedCount)
	}
	lines := errorLines(t, env, job.ID)
	if len(lines[3]) != 1 || lines[3][0] != "csv" {
		t.Errorf("Expected a csv error on line 3, got %v", lines)
	}
}

func TestImportArticlesNDJSON(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.services.Article.Create(ctx, article(5, "Taken", 1, 2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	path := writeUpload(t, env.cfg.Import.UploadDir, "articles.ndjson", strings.Join([]string{
		`{"articleNumber":1,"articleName":"Widget","unit":"pcs","salesPrice":9.99}`,
		`{not json}`,
		``,
		`{"articleNumber":2,"articleName":""}`,
		`{"articleNumber":1,"articleName":"Widget copy"}`,
		`{"articleNumber":5,"articleName":"Taken again"}`,
		`{"articleNumber":3,"articleName":"Gadget","unit":"BOX"}`,
	}, "\n"))

	job := runImport(t, env, models.ResourceArticles, path)

	if job.TotalRecords != 6 {
		t.Errorf("Expected 6 records, got %d", job.TotalRecords)
	}
	if job.SuccessfulCount != 2 {
		t.Errorf("Expected 2 successful, got %d", job.SuccessfulCount)
	}
	if job.FailedCount != 4 {
		t.Errorf("Expected 4 failed, got %d", job.FailedCount)
	}

	lines := errorLines(t, env, job.ID)
	want := map[int]string{2: "json", 4: "articleName", 5: "articleNumber", 6: "articleNumber"}
	for line, field := range want {
		found := false
		for _, f := range lines[line] {
			if f == field {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected a %s error on line %d, got %v", field, line, lines[line])
		}
	}

	if len(env.articles.Articles) != 3 {
		t.Errorf("Expected 3 stored articles, got %d", len(env.articles.Articles))
	}
	for _, a := range env.articles.Articles {
		if a.ArticleNumber == 3 && a.Unit != "box" {
			t.Errorf("Expected normalized unit box, got %q", a.Unit)
		}
		if a.ArticleNumber == 5 && a.ArticleName != "Taken" {
			t.Errorf("Expected existing article untouched, got %q", a.ArticleName)
		}
	}
}

func TestImportBatchInsertFailure(t *testing.T) {
	env := newTestEnv(t)
	env.articles.InsertError = errors.New("copy aborted")

	path := writeUpload(t, env.cfg.Import.UploadDir, "articles.ndjson",
		`{"articleNumber":1,"articleName":"One"}`+"\n"+`{"articleNumber":2,"articleName":"Two"}`+"\n")

	job := runImport(t, env, models.ResourceArticles, path)

	if job.SuccessfulCount != 0 || job.FailedCount != 2 {
		t.Errorf("Expected 0 successful and 2 failed, got %d and %d", job.SuccessfulCount, job.FailedCount)
	}
	if lines := errorLines(t, env, job.ID); len(lines[1]) != 1 || len(lines[2]) != 1 {
		t.Errorf("Expected one storage error per line, got %v", lines)
	}
}

func TestImportOversizedValueRejectedAlone(t *testing.T) {
	env := newTestEnv(t)

	path := writeUpload(t, env.cfg.Import.UploadDir, "employees.csv", "name,email,phone\n"+
		"Ann Lee,ann@example.com,+1 "+strings.Repeat("5", 60)+"\n"+
		"Ben Ray,ben@example.com,+1 555 0101\n"+
		"Cal Orr,cal@example.com,+1 555 0102\n")

	job := runImport(t, env, models.ResourceEmployees, path)

	if job.SuccessfulCount != 2 || job.FailedCount != 1 {
		t.Errorf("Expected 2 successful and 1 failed, got %d and %d", job.SuccessfulCount, job.FailedCount)
	}
	lines := errorLines(t, env, job.ID)
	if len(lines) != 1 || len(lines[2]) != 1 || lines[2][0] != "phone" {
		t.Errorf("Expected only a phone error on line 2, got %v", lines)
	}
	if n, _ := env.employees.Count(context.Background(), query.Descriptor{}); n != 2 {
		t.Errorf("Expected 2 stored employees, got %d", n)
	}
}

func TestImportArticlePriceBeyondStorage(t *testing.T) {
	env := newTestEnv(t)

	path := writeUpload(t, env.cfg.Import.UploadDir, "articles.ndjson",
		`{"articleNumber":1,"articleName":"One","salesPrice":100000000000}`+"\n"+
			`{"articleNumber":2,"articleName":"Two","salesPrice":9.5}`+"\n")

	job := runImport(t, env, models.ResourceArticles, path)

	if job.SuccessfulCount != 1 || job.FailedCount != 1 {
		t.Errorf("Expected 1 successful and 1 failed, got %d and %d", job.SuccessfulCount, job.FailedCount)
	}
	if lines := errorLines(t, env, job.ID); len(lines[1]) != 1 || lines[1][0] != "salesPrice" {
		t.Errorf("Expected a salesPrice error on line 1, got %v", lines)
	}
}

func TestImportMissingFileFailsJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, err := env.services.Import.CreateImportJob(ctx, &models.ImportRequest{Resource: models.ResourceEmployees},
		filepath.Join(env.cfg.Import.UploadDir, "gone.csv"))
	if err != nil {
		t.Fatalf("CreateImportJob failed: %v", err)
	}
	if err := env.services.Import.ProcessImport(ctx, job); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if got := env.jobs.Job(job.ID); got.Status != models.JobStatusFailed {
		t.Errorf("Expected failed, got %s", got.Status)
	}
}

func TestCreateImportJobUnknownResource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Import.CreateImportJob(context.Background(), &models.ImportRequest{Resource: "users"}, "/tmp/x.csv")
	de := expectCode(t, err, apperrors.CodeValidation)
	if len(de.Details) != 1 || de.Details[0].Field != "resource" {
		t.Errorf("Expected a resource detail, got %+v", de.Details)
	}
}
