package repository

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Validate(t *testing.T) {
	testCases := []struct {
		name string
		page Page
		want error
	}{
		{"first page", Page{Number: 0, Size: 10}, nil},
		{"sorted", Page{Number: 2, Size: 5, SortBy: SortByYear, Descending: true}, nil},
		{"max size", Page{Size: MaxPageSize}, nil},
		{"negative number", Page{Number: -1, Size: 10}, ErrInvalidPage},
		{"zero size", Page{Number: 0, Size: 0}, ErrInvalidPage},
		{"too large", Page{Size: MaxPageSize + 1}, ErrInvalidPage},
		{"last addressable page", Page{Number: math.MaxInt / 1000, Size: 1000}, nil},
		{"offset overflow", Page{Number: math.MaxInt/1000 + 1, Size: 1000}, ErrInvalidPage},
		{"offset overflow small size", Page{Number: math.MaxInt, Size: 2}, ErrInvalidPage},
		{"unknown field", Page{Size: 10, SortBy: "price"}, ErrInvalidSort},
		{"injection", Page{Size: 10, SortBy: "id; DROP TABLE cars"}, ErrInvalidSort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.page.Validate(), tc.want)
		})
	}
}

func TestPage_DefaultsAndOffset(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	assert.Equal(t, SortByID, p.SortField())
	assert.Equal(t, 60, p.Offset())

	p.SortBy = SortByMake
	assert.Equal(t, SortByMake, p.SortField())
}

func TestPage_OrderBy(t *testing.T) {
	assert.Equal(t, "ORDER BY id ASC", Page{Size: 1}.OrderBy(""))
	assert.Equal(t, "ORDER BY id DESC", Page{Size: 1, Descending: true}.OrderBy(""))
	assert.Equal(t, "ORDER BY make ASC, id ASC", Page{Size: 1, SortBy: SortByMake}.OrderBy(""))
	assert.Equal(t, "ORDER BY created_at DESC, id ASC", Page{Size: 1, SortBy: SortByCreatedAt, Descending: true}.OrderBy(""))
}

func TestPage_OrderByCollation(t *testing.T) {
	assert.Equal(t, `ORDER BY make COLLATE "C" ASC, id ASC`, Page{Size: 1, SortBy: SortByMake}.OrderBy("C"))
	assert.Equal(t, `ORDER BY color COLLATE "C" DESC, id ASC`, Page{Size: 1, SortBy: SortByColor, Descending: true}.OrderBy("C"))
	assert.Equal(t, "ORDER BY year ASC, id ASC", Page{Size: 1, SortBy: SortByYear}.OrderBy("C"))
	assert.Equal(t, "ORDER BY id ASC", Page{Size: 1}.OrderBy("C"))
}

func TestPage_OffsetAtLimit(t *testing.T) {
	p := Page{Number: math.MaxInt / MaxPageSize, Size: MaxPageSize}
	require.NoError(t, p.Validate())
	assert.Positive(t, p.Offset())
}

func TestPageResult_TotalPages(t *testing.T) {
	testCases := []struct {
		total   int64
		size    int
		number  int
		pages   int
		hasNext bool
	}{
		{total: 0, size: 10, number: 0, pages: 0, hasNext: false},
		{total: 10, size: 10, number: 0, pages: 1, hasNext: false},
		{total: 11, size: 10, number: 0, pages: 2, hasNext: true},
		{total: 11, size: 10, number: 1, pages: 2, hasNext: false},
		{total: 5, size: 0, number: 0, pages: 0, hasNext: false},
	}

	for _, tc := range testCases {
		r := &PageResult[struct{}]{Total: tc.total, Size: tc.size, Number: tc.number}
		assert.Equal(t, tc.pages, r.TotalPages(), "total=%d size=%d", tc.total, tc.size)
		assert.Equal(t, tc.hasNext, r.HasNext(), "total=%d size=%d number=%d", tc.total, tc.size, tc.number)
	}
}
