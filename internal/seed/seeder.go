package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
	"github.com/rs/zerolog"
)

// Seeder writes generated records through the repositories' batch insert
type Seeder struct {
	repos     *repository.Repositories
	gen       *Generator
	batchSize int
	log       zerolog.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(repos *repository.Repositories, gen *Generator, batchSize int, log zerolog.Logger) *Seeder {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Seeder{
		repos:     repos,
		gen:       gen,
		batchSize: batchSize,
		log:       log.With().Str("component", "seeder").Logger(),
	}
}

// Articles inserts up to n articles numbered after the current record count.
// Numbers already taken are skipped. It returns the number inserted.
func (s *Seeder) Articles(ctx context.Context, n int) (int, error) {
	existing, err := s.repos.Article.Count(ctx, query.Descriptor{})
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}

	start := time.Now()
	next := int64(existing) + 1
	inserted := 0
	for inserted < n {
		size := min(s.batchSize, n-inserted)
		numbers := make([]int64, size)
		for i := range numbers {
			numbers[i] = next + int64(i)
		}
		next += int64(size)

		taken, err := s.repos.Article.ExistingNumbers(ctx, numbers)
		if err != nil {
			return inserted, fmt.Errorf("check article numbers: %w", err)
		}
		skip := make(map[int64]bool, len(taken))
		for _, num := range taken {
			skip[num] = true
		}

		batch := make([]*models.Article, 0, size)
		for _, num := range numbers {
			if skip[num] {
				continue
			}
			a := &models.Article{ID: uuid.New().String()}
			a.Apply(s.gen.Article(num))
			batch = append(batch, a)
		}

		count, err := s.repos.Article.BatchInsert(ctx, batch)
		if err != nil {
			return inserted, fmt.Errorf("insert articles: %w", err)
		}
		inserted += count

		s.log.Info().
			Int("inserted", inserted).
			Int("target", n).
			Int("skipped", len(taken)).
			Msg("Article batch written")
	}

	s.log.Info().Int("inserted", inserted).Dur("duration", time.Since(start)).Msg("Articles seeded")
	return inserted, nil
}

// Employees inserts n employees. Generated emails that already exist are dropped,
// so fewer than n rows may be written.
func (s *Seeder) Employees(ctx context.Context, n int) (int, error) {
	offset, err := s.repos.Employee.Count(ctx, query.Descriptor{})
	if err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}

	start := time.Now()
	inserted := 0
	for done := 0; done < n; {
		size := min(s.batchSize, n-done)
		inputs := make([]*models.EmployeeInput, size)
		emails := make([]string, size)
		for i := range inputs {
			inputs[i] = s.gen.Employee(offset + done + i + 1)
			emails[i] = inputs[i].Email
		}
		done += size

		taken, err := s.repos.Employee.ExistingEmails(ctx, emails)
		if err != nil {
			return inserted, fmt.Errorf("check emails: %w", err)
		}
		skip := make(map[string]bool, len(taken))
		for _, email := range taken {
			skip[email] = true
		}

		batch := make([]*models.Employee, 0, size)
		for _, in := range inputs {
			if skip[in.Email] {
				continue
			}
			e := &models.Employee{ID: uuid.New().String()}
			e.Apply(in)
			batch = append(batch, e)
		}

		count, err := s.repos.Employee.BatchInsert(ctx, batch)
		if err != nil {
			return inserted, fmt.Errorf("insert employees: %w", err)
		}
		inserted += count

		s.log.Info().Int("inserted", inserted).Int("target", n).Msg("Employee batch written")
	}

	s.log.Info().Int("inserted", inserted).Dur("duration", time.Since(start)).Msg("Employees seeded")
	return inserted, nil
}
