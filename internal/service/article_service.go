package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/stats"
	"github.com/records-api/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// topUnitsLimit is the number of units reported by Stats
const topUnitsLimit = 10

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repo   repository.ArticleRepository
	bounds query.Bounds
	bulk   config.BulkConfig
	log    zerolog.Logger
}

// NewArticleService creates a new ArticleService
func NewArticleService(repo repository.ArticleRepository, cfg *config.Config, log zerolog.Logger) ArticleService {
	return &articleService{
		repo:   repo,
		bounds: query.Bounds{Default: cfg.Pagination.ArticleDefault, Max: cfg.Pagination.ArticleMax},
		bulk:   cfg.Bulk,
		log:    log.With().Str("service", "article").Logger(),
	}
}

// List returns one page of articles matching the search and unit filter
func (s *articleService) List(ctx context.Context, req ListRequest) (*ArticleList, error) {
	d, sort, w, err := buildQuery(query.ArticleSchema, "unit", req, s.bounds)
	if err != nil {
		return nil, err
	}

	articles, total, err := fetchPage(ctx,
		func(ctx context.Context) (int, error) { return s.repo.Count(ctx, d) },
		func(ctx context.Context) ([]*models.Article, error) { return s.repo.Find(ctx, d, sort, w) },
	)
	if err != nil {
		s.log.Error().Err(err).Str("search", d.Term).Msg("Failed to list articles")
		return nil, apperrors.Storage("list articles", err)
	}

	details := make([]*models.ArticleDetail, len(articles))
	for i, a := range articles {
		details[i] = models.NewArticleDetail(a)
	}

	return &ArticleList{
		Articles:   details,
		Pagination: w.Info(total),
		Search:     SearchInfo{Term: d.Term, ResultsFound: total},
		Sort:       SortInfo{Field: sort.Field, Order: sort.Order},
		Stats:      stats.Articles(articles),
	}, nil
}

// Get retrieves an article by id with its derived values
func (s *articleService) Get(ctx context.Context, id string) (*models.ArticleDetail, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.NewArticleDetail(a), nil
}

func (s *articleService) get(ctx context.Context, id string) (*models.Article, error) {
	if !validation.ID(id) {
		return nil, apperrors.InvalidID("article")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("get article", err)
	}
	if a == nil {
		return nil, apperrors.NotFound("article")
	}
	return a, nil
}

// Create validates and stores a new article. An existing article number is a
// conflict and the stored article is left untouched.
func (s *articleService) Create(ctx context.Context, in *models.ArticleInput) (*models.ArticleDetail, error) {
	in.Normalize()
	if errs := validation.Article(in); len(errs) > 0 {
		return nil, apperrors.Validation("validation failed", errs...)
	}
	if err := s.checkNumber(ctx, in.ArticleNumber, ""); err != nil {
		return nil, err
	}

	a := &models.Article{ID: uuid.New().String()}
	a.Apply(in)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, writeError("create article", err)
	}

	s.log.Info().Str("article_id", a.ID).Int64("article_number", a.ArticleNumber).Msg("Article created")
	return models.NewArticleDetail(a), nil
}

// Update replaces the mutable fields of an existing article
func (s *articleService) Update(ctx context.Context, id string, in *models.ArticleInput) (*models.ArticleDetail, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Normalize()
	if errs := validation.Article(in); len(errs) > 0 {
		return nil, apperrors.Validation("validation failed", errs...)
	}
	if err := s.checkNumber(ctx, in.ArticleNumber, a.ID); err != nil {
		return nil, err
	}

	a.Apply(in)
	found, err := s.repo.Update(ctx, a)
	if err != nil {
		return nil, writeError("update article", err)
	}
	if !found {
		return nil, apperrors.NotFound("article")
	}

	s.log.Info().Str("article_id", a.ID).Msg("Article updated")
	return models.NewArticleDetail(a), nil
}

// Delete removes an article and returns the deleted record
func (s *articleService) Delete(ctx context.Context, id string) (*models.Article, error) {
	if !validation.ID(id) {
		return nil, apperrors.InvalidID("article")
	}
	a, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("delete article", err)
	}
	if a == nil {
		return nil, apperrors.NotFound("article")
	}

	s.log.Info().Str("article_id", a.ID).Int64("article_number", a.ArticleNumber).Msg("Article deleted")
	return a, nil
}

// BulkCreate validates and stores each article independently
func (s *articleService) BulkCreate(ctx context.Context, inputs []*models.ArticleInput) (*BulkCreateResult[*models.ArticleDetail], error) {
	if err := checkBulkSize(len(inputs), s.bulk.MaxCreate, "article"); err != nil {
		return nil, err
	}

	var numbers []int64
	for _, in := range inputs {
		if in != nil {
			in.Normalize()
			numbers = append(numbers, in.ArticleNumber)
		}
	}

	batch := validation.NewBatch()
	existing, err := s.repo.ExistingNumbers(ctx, numbers)
	if err != nil {
		return nil, apperrors.Storage("bulk create articles", err)
	}
	batch.SetExistingNumbers(existing)

	result := &BulkCreateResult[*models.ArticleDetail]{Created: []*models.ArticleDetail{}, Errors: []models.BulkItemError{}}
	for i, in := range inputs {
		if in == nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{Index: i, Message: "item must be an object"})
			continue
		}
		if errs := batch.Article(in); len(errs) > 0 {
			result.Failed++
			result.Errors = append(result.Errors, itemErrors(i, errs)...)
			continue
		}

		a := &models.Article{ID: uuid.New().String()}
		a.Apply(in)
		if err := s.repo.Create(ctx, a); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, bulkWriteError(i, writeError("create article", err)))
			continue
		}
		batch.AddArticle(in)
		result.Created = append(result.Created, models.NewArticleDetail(a))
	}

	s.log.Info().
		Int("requested", len(inputs)).
		Int("created", len(result.Created)).
		Int("failed", result.Failed).
		Msg("Bulk article create completed")
	return result, nil
}

// BulkDelete removes the given articles, reporting ids that could not be deleted
func (s *articleService) BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error) {
	result, err := bulkDelete(ctx, ids, s.bulk.MaxDelete, s.repo.DeleteMany)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("requested", result.Requested).Int("deleted", result.DeletedCount).Msg("Bulk article delete completed")
	return result, nil
}

// Stats aggregates the whole article collection
func (s *articleService) Stats(ctx context.Context) (*models.ArticleStats, error) {
	out := &models.ArticleStats{GeneratedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Overview, err = s.repo.Overview(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.PriceDistribution, err = s.repo.PriceDistribution(gctx, models.PriceBoundaries)
		return err
	})
	g.Go(func() error {
		var err error
		out.TopUnits, err = s.repo.TopUnits(gctx, topUnitsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("Failed to compute article stats")
		return nil, apperrors.Storage("article stats", err)
	}
	return out, nil
}

func (s *articleService) checkNumber(ctx context.Context, number int64, excludeID string) error {
	exists, err := s.repo.NumberExists(ctx, number, excludeID)
	if err != nil {
		return apperrors.Storage("check article number", err)
	}
	if exists {
		return apperrors.Conflict("articleNumber", "an article with this article number already exists")
	}
	return nil
}
