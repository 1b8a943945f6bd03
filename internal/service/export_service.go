package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

// flushEvery is the number of records written between flushes
const flushEvery = 100

var (
	employeeCSVHeader = []string{"id", "name", "email", "phone", "job", "department", "created_at", "updated_at"}
	articleCSVHeader  = []string{"id", "article_number", "article_name", "unit", "package_size", "purchase_price", "sales_price", "created_at", "updated_at"}
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamEmployees writes every employee matching the request in the requested format
func (s *exportService) StreamEmployees(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error {
	d, sort, err := exportQuery(query.EmployeeSchema, "department", req)
	if err != nil {
		return err
	}

	count, err := streamRecords(w, req.Format, models.ResourceEmployees, employeeCSVHeader, employeeRow,
		func(fn func(*models.Employee) error) error { return s.repos.Employee.Stream(ctx, d, sort, fn) })
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Employees export failed")
		return err
	}

	s.log.Info().Str("format", req.Format).Int("count", count).Msg("Employees export completed")
	return nil
}

// StreamArticles writes every article matching the request in the requested format
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, req *models.ExportRequest) error {
	d, sort, err := exportQuery(query.ArticleSchema, "unit", req)
	if err != nil {
		return err
	}

	count, err := streamRecords(w, req.Format, models.ResourceArticles, articleCSVHeader, articleRow,
		func(fn func(*models.Article) error) error { return s.repos.Article.Stream(ctx, d, sort, fn) })
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Articles export failed")
		return err
	}

	s.log.Info().Str("format", req.Format).Int("count", count).Msg("Articles export completed")
	return nil
}

// exportQuery resolves the request before anything is written to the response
func exportQuery(schema *query.Schema, filterField string, req *models.ExportRequest) (query.Descriptor, query.Sort, error) {
	switch req.Format {
	case FormatNDJSON, FormatJSON, FormatCSV:
	default:
		return query.Descriptor{}, query.Sort{}, apperrors.Validation(
			fmt.Sprintf("unsupported format: %s", req.Format),
			models.FieldError{Field: "format", Message: "must be one of ndjson, json, csv", Value: req.Format},
		)
	}

	d, err := query.Build(schema, query.Params{
		Search:      req.Search,
		FilterField: filterField,
		FilterValue: req.Filter,
	})
	if err != nil {
		return d, query.Sort{}, paramError(err)
	}
	return d, query.ResolveSort(schema, req.SortBy, req.SortOrder), nil
}

// streamRecords encodes records as they are produced by stream. Once the
// first byte is written, errors can no longer change the response status.
func streamRecords[T any](
	w http.ResponseWriter,
	format, name string,
	header []string,
	row func(T) []string,
	stream func(func(T) error) error,
) (int, error) {
	flusher, _ := w.(http.Flusher)
	count := 0

	switch format {
	case FormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".ndjson")

		enc := json.NewEncoder(w)
		err := stream(func(rec T) error {
			if err := enc.Encode(rec); err != nil {
				return err
			}
			count++
			if count%flushEvery == 0 && flusher != nil {
				flusher.Flush()
			}
			return nil
		})
		return count, err

	case FormatJSON:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".json")

		if _, err := w.Write([]byte("[")); err != nil {
			return 0, err
		}
		err := stream(func(rec T) error {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if count > 0 {
				if _, err := w.Write([]byte(",")); err != nil {
					return err
				}
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
			count++
			return nil
		})
		if _, werr := w.Write([]byte("]")); err == nil {
			err = werr
		}
		return count, err

	case FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+name+".csv")

		writer := csv.NewWriter(w)
		if err := writer.Write(header); err != nil {
			return 0, err
		}
		err := stream(func(rec T) error {
			if err := writer.Write(row(rec)); err != nil {
				return err
			}
			count++
			if count%flushEvery == 0 {
				writer.Flush()
			}
			return nil
		})
		writer.Flush()
		if err == nil {
			err = writer.Error()
		}
		return count, err
	}

	return 0, fmt.Errorf("unsupported format: %s", format)
}

func employeeRow(e *models.Employee) []string {
	return []string{
		e.ID,
		e.Name,
		e.Email,
		e.Phone,
		e.Job,
		e.Department,
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func articleRow(a *models.Article) []string {
	return []string{
		a.ID,
		strconv.FormatInt(a.ArticleNumber, 10),
		a.ArticleName,
		a.Unit,
		strconv.FormatFloat(a.PackageSize, 'f', -1, 64),
		strconv.FormatFloat(a.PurchasePrice, 'f', 2, 64),
		strconv.FormatFloat(a.SalesPrice, 'f', 2, 64),
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
