package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/records-api/internal/database"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
)

const articleColumns = `id, article_number, article_name, unit, package_size, purchase_price, sales_price, created_at, updated_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.ArticleNumber, &a.ArticleName, &a.Unit, &a.PackageSize,
		&a.PurchasePrice, &a.SalesPrice, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new article and fills its timestamps
func (r *articleRepo) Create(ctx context.Context, a *models.Article) error {
	query := `
		INSERT INTO articles (id, article_number, article_name, unit, package_size, purchase_price, sales_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.ArticleNumber, a.ArticleName, a.Unit, a.PackageSize, a.PurchasePrice, a.SalesPrice,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return translateError(err)
}

// BatchInsert inserts multiple articles using PostgreSQL COPY
func (r *articleRepo) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("articles",
		"id", "article_number", "article_name", "unit", "package_size",
		"purchase_price", "sales_price", "created_at", "updated_at",
	))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	for _, a := range articles {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		_, err := stmt.ExecContext(ctx,
			a.ID, a.ArticleNumber, a.ArticleName, a.Unit, a.PackageSize,
			a.PurchasePrice, a.SalesPrice, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
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

	return len(articles), nil
}

// GetByID retrieves an article by ID, or nil if it does not exist
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// Update replaces the mutable fields of an article. It reports false when
// the article does not exist.
func (r *articleRepo) Update(ctx context.Context, a *models.Article) (bool, error) {
	query := `
		UPDATE articles SET article_number = $1, article_name = $2, unit = $3, package_size = $4,
			purchase_price = $5, sales_price = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ArticleNumber, a.ArticleName, a.Unit, a.PackageSize, a.PurchasePrice, a.SalesPrice, a.ID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, translateError(err)
	}
	return true, nil
}

// Delete removes an article and returns it, or nil if it did not exist
func (r *articleRepo) Delete(ctx context.Context, id string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM articles WHERE id = $1 RETURNING `+articleColumns, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// DeleteMany removes the given articles and returns the ids actually deleted
func (r *articleRepo) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	return deleteMany(ctx, r.db, "articles", ids)
}

// NumberExists checks whether another article already uses the number
func (r *articleRepo) NumberExists(ctx context.Context, number int64, excludeID string) (bool, error) {
	var exists bool
	var err error
	if excludeID == "" {
		err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE article_number = $1)", number).Scan(&exists)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE article_number = $1 AND id <> $2)", number, excludeID).Scan(&exists)
	}
	return exists, err
}

// ExistingNumbers returns which of the given article numbers are already stored
func (r *articleRepo) ExistingNumbers(ctx context.Context, numbers []int64) ([]int64, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, "SELECT article_number FROM articles WHERE article_number = ANY($1)", pq.Array(numbers))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		found = append(found, n)
	}
	return found, rows.Err()
}

// Find returns one page of articles matching the descriptor
func (r *articleRepo) Find(ctx context.Context, d query.Descriptor, s query.Sort, w query.Window) ([]*models.Article, error) {
	where, args := whereClause(d, nil)
	page, args := pageClause(w, args)

	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles`+where+orderClause(s)+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0, w.Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Count returns the number of articles matching the descriptor
func (r *articleRepo) Count(ctx context.Context, d query.Descriptor) (int, error) {
	where, args := whereClause(d, nil)
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&count)
	return count, err
}

// Stream calls callback for every matching article in sort order
func (r *articleRepo) Stream(ctx context.Context, d query.Descriptor, s query.Sort, callback func(*models.Article) error) error {
	where, args := whereClause(d, nil)
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles`+where+orderClause(s), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := callback(a); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Overview aggregates prices and sizes over all articles
func (r *articleRepo) Overview(ctx context.Context) (models.ArticleOverview, error) {
	var o models.ArticleOverview
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(sales_price * package_size), 0),
			COALESCE(AVG(sales_price), 0),
			COALESCE(AVG(purchase_price), 0),
			COALESCE(MAX(sales_price), 0),
			COALESCE(MIN(sales_price), 0),
			COALESCE(SUM(package_size), 0)
		FROM articles
	`).Scan(&o.TotalArticles, &o.TotalInventoryValue, &o.AverageSalesPrice, &o.AveragePurchasePrice,
		&o.HighestSalesPrice, &o.LowestSalesPrice, &o.TotalPackageSize)
	if err != nil {
		return o, err
	}

	o.TotalInventoryValue = models.Round2(o.TotalInventoryValue)
	o.AverageSalesPrice = models.Round2(o.AverageSalesPrice)
	o.AveragePurchasePrice = models.Round2(o.AveragePurchasePrice)
	return o, nil
}

// PriceDistribution counts articles per sales price bucket. boundaries are the
// ascending lower bounds; the last bucket is open-ended.
func (r *articleRepo) PriceDistribution(ctx context.Context, boundaries []float64) ([]models.Bucket, error) {
	buckets := make([]models.Bucket, len(boundaries))
	for i, lo := range boundaries {
		if i+1 < len(boundaries) {
			buckets[i].Label = fmt.Sprintf("%g-%g", lo, boundaries[i+1])
		} else {
			buckets[i].Label = fmt.Sprintf("%g+", lo)
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT width_bucket(sales_price::float8, $1::float8[]) AS bucket,
			COUNT(*), COALESCE(SUM(sales_price * package_size), 0)
		FROM articles
		GROUP BY bucket
	`, pq.Array(boundaries))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var idx, count int
		var value float64
		if err := rows.Scan(&idx, &count, &value); err != nil {
			return nil, err
		}
		// width_bucket is 1-based; 0 means below the first boundary
		if idx < 1 || idx > len(buckets) {
			continue
		}
		buckets[idx-1].Count = count
		buckets[idx-1].TotalValue = models.Round2(value)
	}
	return buckets, rows.Err()
}

// TopUnits returns the most used units by article count
func (r *articleRepo) TopUnits(ctx context.Context, limit int) ([]models.Bucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT unit, COUNT(*), COALESCE(SUM(sales_price * package_size), 0)
		FROM articles
		GROUP BY unit
		ORDER BY COUNT(*) DESC, unit
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.Bucket{}
	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Label, &b.Count, &b.TotalValue); err != nil {
			return nil, err
		}
		b.TotalValue = models.Round2(b.TotalValue)
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
