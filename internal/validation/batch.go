package validation

import (
	"github.com/records-api/internal/models"
)

// Batch validates a sequence of records and tracks the unique keys already
// taken, either by storage or by earlier records of the same batch
type Batch struct {
	emails          map[string]bool
	numbers         map[int64]bool
	existingEmails  map[string]bool
	existingNumbers map[int64]bool
}

// NewBatch creates an empty batch validator
func NewBatch() *Batch {
	return &Batch{
		emails:          make(map[string]bool),
		numbers:         make(map[int64]bool),
		existingEmails:  make(map[string]bool),
		existingNumbers: make(map[int64]bool),
	}
}

// SetExistingEmails registers emails already present in storage
func (b *Batch) SetExistingEmails(emails []string) {
	for _, e := range emails {
		b.existingEmails[e] = true
	}
}

// SetExistingNumbers registers article numbers already present in storage
func (b *Batch) SetExistingNumbers(numbers []int64) {
	for _, n := range numbers {
		b.existingNumbers[n] = true
	}
}

// Employee validates a normalized employee and checks its email against the batch
func (b *Batch) Employee(in *models.EmployeeInput) []models.FieldError {
	errs := Employee(in)
	if in.Email == "" || hasField(errs, "email") {
		return errs
	}
	if b.existingEmails[in.Email] {
		errs = append(errs, models.FieldError{Field: "email", Message: "email already exists", Value: in.Email})
	} else if b.emails[in.Email] {
		errs = append(errs, models.FieldError{Field: "email", Message: "duplicate email", Value: in.Email})
	}
	return errs
}

// AddEmployee marks the employee's email as taken
func (b *Batch) AddEmployee(in *models.EmployeeInput) {
	if in.Email != "" {
		b.emails[in.Email] = true
	}
}

// Article validates a normalized article and checks its number against the batch
func (b *Batch) Article(in *models.ArticleInput) []models.FieldError {
	errs := Article(in)
	if hasField(errs, "articleNumber") {
		return errs
	}
	if b.existingNumbers[in.ArticleNumber] {
		errs = append(errs, models.FieldError{Field: "articleNumber", Message: "article number already exists", Value: in.ArticleNumber})
	} else if b.numbers[in.ArticleNumber] {
		errs = append(errs, models.FieldError{Field: "articleNumber", Message: "duplicate article number", Value: in.ArticleNumber})
	}
	return errs
}

// AddArticle marks the article's number as taken
func (b *Batch) AddArticle(in *models.ArticleInput) {
	b.numbers[in.ArticleNumber] = true
}

func hasField(errs []models.FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
