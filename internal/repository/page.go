package repository

import (
	"fmt"
	"math"
)

// MaxPageSize is the largest page a caller may request.
const MaxPageSize = 1000

// Sortable car fields. The values double as column names.
const (
	SortByID        = "id"
	SortByMake      = "make"
	SortByModel     = "model"
	SortByYear      = "year"
	SortByColor     = "color"
	SortByCreatedAt = "created_at"
)

var sortableFields = map[string]bool{
	SortByID:        true,
	SortByMake:      true,
	SortByModel:     true,
	SortByYear:      true,
	SortByColor:     true,
	SortByCreatedAt: true,
}

// Page is a zero-based page request.
// Number is bounded so that Number*Size fits in an int.
type Page struct {
	Number     int
	Size       int
	SortBy     string
	Descending bool
}

// Validate checks the page bounds and sort field.
func (p Page) Validate() error {
	if p.Number < 0 || p.Size <= 0 || p.Size > MaxPageSize {
		return ErrInvalidPage
	}
	if p.Number > math.MaxInt/p.Size {
		return ErrInvalidPage
	}
	if p.SortBy != "" && !sortableFields[p.SortBy] {
		return ErrInvalidSort
	}
	return nil
}

// SortField returns the field to order by, defaulting to the identifier.
func (p Page) SortField() string {
	if p.SortBy == "" {
		return SortByID
	}
	return p.SortBy
}

// IsTextSort reports whether the page is ordered by a text column.
func (p Page) IsTextSort() bool {
	switch p.SortField() {
	case SortByMake, SortByModel, SortByColor:
		return true
	}
	return false
}

// OrderBy renders an SQL ORDER BY clause for a validated page.
// Text columns are compared with collation when it is non-empty, so stores
// can agree on byte order. Ties are broken by ascending id.
func (p Page) OrderBy(collation string) string {
	dir := "ASC"
	if p.Descending {
		dir = "DESC"
	}
	field := p.SortField()
	if field == SortByID {
		return "ORDER BY id " + dir
	}
	if collation != "" && p.IsTextSort() {
		field = fmt.Sprintf("%s COLLATE %q", field, collation)
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", field, dir)
}

// Offset returns the number of records preceding the page.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// PageResult carries one page of items and the total count of records.
type PageResult[T any] struct {
	Items  []*T
	Total  int64
	Number int
	Size   int
}

// TotalPages returns the number of pages needed to hold Total records.
func (r *PageResult[T]) TotalPages() int {
	if r.Size <= 0 {
		return 0
	}
	return int((r.Total + int64(r.Size) - 1) / int64(r.Size))
}

// HasNext reports whether a page follows this one.
func (r *PageResult[T]) HasNext() bool {
	return r.Number+1 < r.TotalPages()
}
