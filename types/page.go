package types

import "math"

const (
	// MinPageSize and MaxPageSize bound the number of items per page.
	MinPageSize = 5
	MaxPageSize = 50

	// DefaultPageSize is used when a listing does not request a size.
	DefaultPageSize = 10

	// MaxPage keeps Offset within a Postgres integer for every page size.
	MaxPage = math.MaxInt32/MaxPageSize + 1
)

// PageRequest describes which slice of a listing to return.
type PageRequest struct {
	// Page is 1-based, clamped to [1, MaxPage].
	Page int

	// PageSize is clamped to [MinPageSize, MaxPageSize].
	PageSize int

	// Ascending selects the sort direction of the listing.
	Ascending bool
}

// Normalize clamps the request into its valid range.
func (p PageRequest) Normalize() PageRequest {
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.PageSize < MinPageSize:
		p.PageSize = MinPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of items skipped before the requested page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of a listing plus the paging metadata clients need to
// navigate the rest of it.
type Page[T any] struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
	Items       []T  `json:"items"`
}

// NewPage assembles a Page from a normalized request, the items on it and
// the total number of matching items.
func NewPage[T any](req PageRequest, items []T, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}
	return Page[T]{
		Page:        req.Page,
		PageSize:    req.PageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasPrevious: req.Page > 1,
		HasNext:     req.Page < totalPages,
		Items:       items,
	}
}
