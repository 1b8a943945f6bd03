package query

import (
	"math"
	"strconv"
	"strings"
)

// Bounds are the per-entity page size limits
type Bounds struct {
	Default int
	Max     int
}

// Window is a resolved page of results
type Window struct {
	Page  int
	Limit int
	Skip  int
}

// PageInfo is the pagination block of a list response
type PageInfo struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalCount   int  `json:"totalCount"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
	StartIndex   int  `json:"startIndex"`
	EndIndex     int  `json:"endIndex"`
}

// ParseWindow resolves raw page and limit parameters. A page that is not an
// integer becomes 1; a missing or non-integer limit becomes the default.
func ParseWindow(pageRaw, limitRaw string, b Bounds) Window {
	page, err := strconv.Atoi(strings.TrimSpace(pageRaw))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitRaw))
	if err != nil {
		limit = b.Default
	}
	return NewWindow(page, limit, b)
}

// NewWindow clamps page to >= 1 and limit to [1, b.Max]
func NewWindow(page, limit int, b Bounds) Window {
	maxLimit := b.Max
	if maxLimit < 1 {
		maxLimit = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page < 1 {
		page = 1
	}
	// keep OFFSET inside a signed 32-bit range
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}

	return Window{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

// Info computes the pagination block for total matching records
func (w Window) Info(total int) PageInfo {
	totalPages := 0
	if total > 0 {
		totalPages = (total + w.Limit - 1) / w.Limit
	}
	end := w.Skip + w.Limit
	if end > total {
		end = total
	}

	return PageInfo{
		CurrentPage:  w.Page,
		TotalPages:   totalPages,
		TotalCount:   total,
		ItemsPerPage: w.Limit,
		HasNextPage:  w.Page < totalPages,
		HasPrevPage:  w.Page > 1,
		StartIndex:   w.Skip + 1,
		EndIndex:     end,
	}
}
