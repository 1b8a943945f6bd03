package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.EmployeeRepository = (*MockEmployeeRepository)(nil)
	_ repository.ArticleRepository  = (*MockArticleRepository)(nil)
	_ repository.JobRepository      = (*MockJobRepository)(nil)
)

var errDuplicate = errors.New("duplicate key value violates unique constraint")

// Column limits of the migrations; the mocks reject rows Postgres would reject
const (
	maxPhoneLen = 50
	maxPrice    = 9999999999.99
)

var (
	errValueTooLong = errors.New("value too long for type character varying(50)")
	errNumericRange = errors.New("numeric field overflow")
)

func checkEmployeeColumns(e *models.Employee) error {
	if len(e.Phone) > maxPhoneLen {
		return errValueTooLong
	}
	return nil
}

func checkArticleColumns(a *models.Article) error {
	if a.PurchasePrice > maxPrice || a.SalesPrice > maxPrice {
		return errNumericRange
	}
	return nil
}

// selectRecords filters and orders records the way the SQL repositories do:
// by the sort field, then by id
func selectRecords[T query.Valuer](all []T, d query.Descriptor, s query.Sort, id func(T) string) []T {
	out := make([]T, 0, len(all))
	for _, r := range all {
		if d.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if s.Less(out[i], out[j]) {
			return true
		}
		if s.Less(out[j], out[i]) {
			return false
		}
		return id(out[i]) < id(out[j])
	})
	return out
}

func window[T any](items []T, w query.Window) []T {
	if w.Skip >= len(items) {
		return []T{}
	}
	end := w.Skip + w.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[w.Skip:end]
}

// MockEmployeeRepository is an in-memory EmployeeRepository
type MockEmployeeRepository struct {
	mu               sync.RWMutex
	Employees        map[string]*models.Employee
	order            []string
	InsertError      error
	QueryError       error
	BatchInsertCalls int
}

func NewMockEmployeeRepository() *MockEmployeeRepository {
	return &MockEmployeeRepository{
		Employees: make(map[string]*models.Employee),
	}
}

func employeeID(e *models.Employee) string { return e.ID }

func (m *MockEmployeeRepository) all() []*models.Employee {
	out := make([]*models.Employee, 0, len(m.order))
	for _, id := range m.order {
		if e, ok := m.Employees[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MockEmployeeRepository) emailTaken(email, excludeID string) bool {
	if email == "" {
		return false
	}
	for id, e := range m.Employees {
		if id != excludeID && e.Email == email {
			return true
		}
	}
	return false
}

func (m *MockEmployeeRepository) insert(e *models.Employee, now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	cp := *e
	m.Employees[e.ID] = &cp
	m.order = append(m.order, e.ID)
}

func (m *MockEmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return m.InsertError
	}
	if _, exists := m.Employees[e.ID]; exists {
		return &repository.DuplicateKeyError{Field: "id", Err: errDuplicate}
	}
	if m.emailTaken(e.Email, "") {
		return &repository.DuplicateKeyError{Field: "email", Err: errDuplicate}
	}
	if err := checkEmployeeColumns(e); err != nil {
		return err
	}
	m.insert(e, time.Now())
	return nil
}

// BatchInsert is all-or-nothing like a COPY
func (m *MockEmployeeRepository) BatchInsert(ctx context.Context, employees []*models.Employee) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchInsertCalls++
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	seen := make(map[string]bool, len(employees))
	for _, e := range employees {
		if e.Email != "" && (seen[e.Email] || m.emailTaken(e.Email, "")) {
			return 0, &repository.DuplicateKeyError{Field: "email", Err: errDuplicate}
		}
		if err := checkEmployeeColumns(e); err != nil {
			return 0, err
		}
		seen[e.Email] = true
	}
	now := time.Now()
	for _, e := range employees {
		m.insert(e, now)
	}
	return len(employees), nil
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryError != nil {
		return nil, m.QueryError
	}
	e, ok := m.Employees[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MockEmployeeRepository) Update(ctx context.Context, e *models.Employee) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Employees[e.ID]
	if !ok {
		return false, nil
	}
	if m.emailTaken(e.Email, e.ID) {
		return false, &repository.DuplicateKeyError{Field: "email", Err: errDuplicate}
	}
	e.CreatedAt = stored.CreatedAt
	e.UpdatedAt = time.Now()
	cp := *e
	m.Employees[e.ID] = &cp
	return true, nil
}

func (m *MockEmployeeRepository) Delete(ctx context.Context, id string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.Employees[id]
	if !ok {
		return nil, nil
	}
	delete(m.Employees, id)
	return e, nil
}

func (m *MockEmployeeRepository) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []string
	for _, id := range ids {
		if _, ok := m.Employees[id]; ok {
			delete(m.Employees, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (m *MockEmployeeRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emailTaken(email, excludeID), nil
}

func (m *MockEmployeeRepository) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, email := range emails {
		if m.emailTaken(email, "") {
			out = append(out, email)
		}
	}
	return out, nil
}

func (m *MockEmployeeRepository) Find(ctx context.Context, d query.Descriptor, s query.Sort, w query.Window) ([]*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryError != nil {
		return nil, m.QueryError
	}
	return window(selectRecords(m.all(), d, s, employeeID), w), nil
}

func (m *MockEmployeeRepository) Count(ctx context.Context, d query.Descriptor) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryError != nil {
		return 0, m.QueryError
	}
	return len(selectRecords(m.all(), d, query.Sort{}, employeeID)), nil
}

func (m *MockEmployeeRepository) Stream(ctx context.Context, d query.Descriptor, s query.Sort, callback func(*models.Employee) error) error {
	m.mu.RLock()
	records := selectRecords(m.all(), d, s, employeeID)
	m.mu.RUnlock()

	for _, e := range records {
		if err := callback(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockEmployeeRepository) DepartmentCounts(ctx context.Context) ([]models.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range m.Employees {
		counts[e.Department]++
	}
	return sortedBuckets(counts, nil), nil
}

// MockArticleRepository is an in-memory ArticleRepository
type MockArticleRepository struct {
	mu               sync.RWMutex
	Articles         map[string]*models.Article
	order            []string
	InsertError      error
	QueryError       error
	BatchInsertCalls int
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[string]*models.Article),
	}
}

func articleID(a *models.Article) string { return a.ID }

func (m *MockArticleRepository) all() []*models.Article {
	out := make([]*models.Article, 0, len(m.order))
	for _, id := range m.order {
		if a, ok := m.Articles[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MockArticleRepository) numberTaken(number int64, excludeID string) bool {
	for id, a := range m.Articles {
		if id != excludeID && a.ArticleNumber == number {
			return true
		}
	}
	return false
}

func (m *MockArticleRepository) insert(a *models.Article, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	cp := *a
	m.Articles[a.ID] = &cp
	m.order = append(m.order, a.ID)
}

func (m *MockArticleRepository) Create(ctx context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return m.InsertError
	}
	if _, exists := m.Articles[a.ID]; exists {
		return &repository.DuplicateKeyError{Field: "id", Err: errDuplicate}
	}
	if m.numberTaken(a.ArticleNumber, "") {
		return &repository.DuplicateKeyError{Field: "articleNumber", Err: errDuplicate}
	}
	if err := checkArticleColumns(a); err != nil {
		return err
	}
	m.insert(a, time.Now())
	return nil
}

// BatchInsert is all-or-nothing like a COPY
func (m *MockArticleRepository) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchInsertCalls++
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	seen := make(map[int64]bool, len(articles))
	for _, a := range articles {
		if seen[a.ArticleNumber] || m.numberTaken(a.ArticleNumber, "") {
			return 0, &repository.DuplicateKeyError{Field: "articleNumber", Err: errDuplicate}
		}
		if err := checkArticleColumns(a); err != nil {
			return 0, err
		}
		seen[a.ArticleNumber] = true
	}
	now := time.Now()
	for _, a := range articles {
		m.insert(a, now)
	}
	return len(articles), nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryError != nil {
		return nil, m.QueryError
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, a *models.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Articles[a.ID]
	if !ok {
		return false, nil
	}
	if m.numberTaken(a.ArticleNumber, a.ID) {
		return false, &repository.DuplicateKeyError{Field: "articleNumber", Err: errDuplicate}
	}
	a.CreatedAt = stored.CreatedAt
	a.UpdatedAt = time.Now()
	cp := *a
	m.Articles[a.ID] = &cp
	return true, nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	delete(m.Articles, id)
	return a, nil
}

func (m *MockArticleRepository) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []string
	for _, id := range ids {
		if _, ok := m.Articles[id]; ok {
			delete(m.Articles, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (m *MockArticleRepository) NumberExists(ctx context.Context, number int64, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.numberTaken(number, excludeID), nil
}

func (m *MockArticleRepository) ExistingNumbers(ctx context.Context, numbers []int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []int64
	for _, n := range numbers {
		if m.numberTaken(n, "") {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MockArticleRepository) Find(ctx context.Context, d query.Descriptor, s query.Sort, w query.Window) ([]*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryError != nil {
		return nil, m.QueryError
	}
	return window(selectRecords(m.all(), d, s, articleID), w), nil
}

func (m *MockArticleRepository) Count(ctx context.Context, d query.Descriptor) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.QueryError != nil {
		return 0, m.QueryError
	}
	return len(selectRecords(m.all(), d, query.Sort{}, articleID)), nil
}

func (m *MockArticleRepository) Stream(ctx context.Context, d query.Descriptor, s query.Sort, callback func(*models.Article) error) error {
	m.mu.RLock()
	records := selectRecords(m.all(), d, s, articleID)
	m.mu.RUnlock()

	for _, a := range records {
		if err := callback(a); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockArticleRepository) Overview(ctx context.Context) (models.ArticleOverview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var o models.ArticleOverview
	if m.QueryError != nil {
		return o, m.QueryError
	}
	var salesSum, purchaseSum float64
	for _, a := range m.Articles {
		if o.TotalArticles == 0 || a.SalesPrice > o.HighestSalesPrice {
			o.HighestSalesPrice = a.SalesPrice
		}
		if o.TotalArticles == 0 || a.SalesPrice < o.LowestSalesPrice {
			o.LowestSalesPrice = a.SalesPrice
		}
		o.TotalArticles++
		o.TotalInventoryValue += a.SalesPrice * a.PackageSize
		o.TotalPackageSize += a.PackageSize
		salesSum += a.SalesPrice
		purchaseSum += a.PurchasePrice
	}
	if o.TotalArticles > 0 {
		o.AverageSalesPrice = models.Round2(salesSum / float64(o.TotalArticles))
		o.AveragePurchasePrice = models.Round2(purchaseSum / float64(o.TotalArticles))
	}
	o.TotalInventoryValue = models.Round2(o.TotalInventoryValue)
	return o, nil
}

func (m *MockArticleRepository) PriceDistribution(ctx context.Context, boundaries []float64) ([]models.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buckets := make([]models.Bucket, len(boundaries))
	for i := range boundaries {
		buckets[i].Label = bucketLabel(boundaries, i)
	}
	for _, a := range m.Articles {
		idx := sort.SearchFloat64s(boundaries, a.SalesPrice)
		// SearchFloat64s finds the first boundary >= price; an exact hit opens that bucket
		if idx == len(boundaries) || boundaries[idx] != a.SalesPrice {
			idx--
		}
		if idx < 0 {
			continue
		}
		buckets[idx].Count++
		buckets[idx].TotalValue = models.Round2(buckets[idx].TotalValue + a.SalesPrice*a.PackageSize)
	}
	return buckets, nil
}

func (m *MockArticleRepository) TopUnits(ctx context.Context, limit int) ([]models.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	values := make(map[string]float64)
	for _, a := range m.Articles {
		counts[a.Unit]++
		values[a.Unit] += a.SalesPrice * a.PackageSize
	}
	buckets := sortedBuckets(counts, values)
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets, nil
}

func bucketLabel(boundaries []float64, i int) string {
	if i+1 < len(boundaries) {
		return fmt.Sprintf("%g-%g", boundaries[i], boundaries[i+1])
	}
	return fmt.Sprintf("%g+", boundaries[i])
}

// sortedBuckets orders by count descending, then label
func sortedBuckets(counts map[string]int, values map[string]float64) []models.Bucket {
	buckets := make([]models.Bucket, 0, len(counts))
	for label, n := range counts {
		b := models.Bucket{Label: label, Count: n}
		if values != nil {
			b.TotalValue = models.Round2(values[label])
		}
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// MockJobRepository is a mock implementation of JobRepository
type MockJobRepository struct {
	mu              sync.RWMutex
	Jobs            map[string]*models.Job
	IdempotencyJobs map[string]*models.Job
	Errors          map[string][]models.ValidationError
	CreateError     error
	UpdateError     error
	ClaimError      error
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs:            make(map[string]*models.Job),
		IdempotencyJobs: make(map[string]*models.Job),
		Errors:          make(map[string][]models.ValidationError),
	}
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *job
	m.Jobs[job.ID] = &cp
	if job.IdempotencyKey != "" {
		m.IdempotencyJobs[job.IdempotencyKey] = &cp
	}
	return nil
}

func (m *MockJobRepository) Update(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateError != nil {
		return m.UpdateError
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *job
	m.Jobs[job.ID] = &cp
	if job.IdempotencyKey != "" {
		m.IdempotencyJobs[job.IdempotencyKey] = &cp
	}
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.Jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.IdempotencyJobs[key]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobRepository) ClaimPending(ctx context.Context, limit int) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ClaimError != nil {
		return nil, m.ClaimError
	}
	var pending []*models.Job
	for _, job := range m.Jobs {
		if job.Status == models.JobStatusPending {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:max(limit, 0)]
	}

	now := time.Now()
	claimed := make([]*models.Job, 0, len(pending))
	for _, job := range pending {
		job.Status = models.JobStatusProcessing
		job.StartedAt = &now
		cp := *job
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (m *MockJobRepository) RequeueInterrupted(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, job := range m.Jobs {
		if job.Status != models.JobStatusProcessing {
			continue
		}
		job.Status = models.JobStatusPending
		job.StartedAt = nil
		job.ProcessedCount, job.SuccessfulCount, job.FailedCount = 0, 0, 0
		delete(m.Errors, id)
		n++
	}
	return n, nil
}

func (m *MockJobRepository) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Errors[jobID] = append(m.Errors[jobID], errors...)
	return nil
}

func (m *MockJobRepository) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errors := m.Errors[jobID]
	if limit > 0 && len(errors) > limit {
		errors = errors[:limit]
	}
	out := make([]models.ValidationError, len(errors))
	copy(out, errors)
	return out, nil
}

func (m *MockJobRepository) CountErrors(ctx context.Context, jobID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.Errors[jobID]), nil
}

// Job returns a snapshot of a stored job
func (m *MockJobRepository) Job(id string) *models.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.Jobs[id]
	if !ok {
		return nil
	}
	cp := *job
	return &cp
}
