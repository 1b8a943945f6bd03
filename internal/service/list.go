package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/query"
	"github.com/records-api/internal/repository"
	"golang.org/x/sync/errgroup"
)

// fetchPage runs the count and the page read concurrently. The two reads are
// not isolated: a write landing between them can make total and page disagree.
func fetchPage[T any](
	ctx context.Context,
	count func(context.Context) (int, error),
	find func(context.Context) ([]T, error),
) ([]T, int, error) {
	var items []T
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = find(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// buildQuery resolves raw list parameters against a schema
func buildQuery(schema *query.Schema, filterField string, req ListRequest, bounds query.Bounds) (query.Descriptor, query.Sort, query.Window, error) {
	d, err := query.Build(schema, query.Params{
		Search:      req.Search,
		FilterField: filterField,
		FilterValue: req.Filter,
	})
	if err != nil {
		return d, query.Sort{}, query.Window{}, paramError(err)
	}
	return d, query.ResolveSort(schema, req.SortBy, req.SortOrder), query.ParseWindow(req.Page, req.Limit, bounds), nil
}

func paramError(err error) error {
	var pe *query.ParamError
	if errors.As(err, &pe) {
		return apperrors.Validation("invalid query parameters", models.FieldError{Field: pe.Field, Message: pe.Message})
	}
	return apperrors.Validation(err.Error())
}

// writeError maps a repository write failure onto a domain error
func writeError(op string, err error) error {
	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) {
		return apperrors.Conflict(dup.Field, fmt.Sprintf("a record with this %s already exists", dup.Field))
	}
	return apperrors.Storage(op, err)
}

// splitIDs validates and de-duplicates ids for a bulk delete. Malformed ids
// are returned as failures.
func splitIDs(ids []string, limit int) ([]string, []models.BulkDeleteFailure, int, error) {
	seen := make(map[string]bool, len(ids))
	var unique []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	if len(unique) == 0 {
		return nil, nil, 0, apperrors.Validation("at least one id is required")
	}
	if len(unique) > limit {
		return nil, nil, 0, apperrors.Validation(fmt.Sprintf("at most %d ids can be deleted at once", limit))
	}

	var valid []string
	var failed []models.BulkDeleteFailure
	for _, id := range unique {
		parsed, err := uuid.Parse(id)
		if err != nil {
			failed = append(failed, models.BulkDeleteFailure{ID: id, Reason: "invalid id format"})
			continue
		}
		// storage reports ids in canonical form
		if canonical := parsed.String(); !seen[canonical] || canonical == id {
			seen[canonical] = true
			valid = append(valid, canonical)
		}
	}
	return valid, failed, len(unique), nil
}

// bulkDelete deletes the valid ids and reports ids that did not resolve
func bulkDelete(ctx context.Context, ids []string, limit int, deleteMany func(context.Context, []string) ([]string, error)) (*BulkDeleteResult, error) {
	valid, failed, requested, err := splitIDs(ids, limit)
	if err != nil {
		return nil, err
	}

	deleted, err := deleteMany(ctx, valid)
	if err != nil {
		return nil, apperrors.Storage("bulk delete", err)
	}

	gone := make(map[string]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	deletedIDs := make([]string, 0, len(deleted))
	for _, id := range valid {
		if gone[id] {
			deletedIDs = append(deletedIDs, id)
		} else {
			failed = append(failed, models.BulkDeleteFailure{ID: id, Reason: "not found"})
		}
	}
	if failed == nil {
		failed = []models.BulkDeleteFailure{}
	}

	return &BulkDeleteResult{
		Requested:    requested,
		DeletedCount: len(deletedIDs),
		DeletedIDs:   deletedIDs,
		Failed:       failed,
	}, nil
}

func checkBulkSize(n, limit int, entity string) error {
	if n == 0 {
		return apperrors.Validation(fmt.Sprintf("at least one %s is required", entity))
	}
	if n > limit {
		return apperrors.Validation(fmt.Sprintf("at most %d %ss can be created at once", limit, entity))
	}
	return nil
}

func itemErrors(index int, errs []models.FieldError) []models.BulkItemError {
	out := make([]models.BulkItemError, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.BulkItemError{Index: index, Field: e.Field, Message: e.Message})
	}
	return out
}
