package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{50, 5, 10},
		{7, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, application.TotalPages(tt.total, tt.size), "TotalPages(%d, %d)", tt.total, tt.size)
	}
}

func TestPager_NavigationBounds(t *testing.T) {
	p := application.NewPager(10, 25)
	assert.Equal(t, 3, p.TotalPages())
	assert.Equal(t, 1, p.Page())

	assert.False(t, p.Prev(), "prev on first page is a no-op")
	assert.Equal(t, 1, p.Page())

	assert.True(t, p.GoTo(3))
	assert.False(t, p.Next(), "next on last page is a no-op")
	assert.Equal(t, 3, p.Page())

	assert.False(t, p.GoTo(4), "page beyond the last is a no-op")
	assert.False(t, p.GoTo(0))
	assert.False(t, p.GoTo(-1))
	assert.Equal(t, 3, p.Page())

	assert.True(t, p.Prev())
	assert.Equal(t, 2, p.Page())
	assert.Equal(t, 10, p.Offset())
}

func TestPager_EmptyListCannotMove(t *testing.T) {
	p := application.NewPager(10, 0)
	assert.Equal(t, 0, p.TotalPages())
	assert.False(t, p.Next())
	assert.False(t, p.GoTo(1))
	assert.Equal(t, 1, p.Page())
}

func TestPager_SetTotalClampsPage(t *testing.T) {
	p := application.NewPager(10, 100)
	p.GoTo(8)

	p.SetTotal(25)
	assert.Equal(t, 3, p.Page())

	p.SetTotal(0)
	assert.Equal(t, 1, p.Page())
}

func TestPager_SetPageSizeResetsPage(t *testing.T) {
	p := application.NewPager(10, 100)
	p.GoTo(4)

	assert.True(t, p.SetPageSize(20))
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 5, p.TotalPages())

	assert.False(t, p.SetPageSize(15), "only offered sizes are accepted")
	assert.Equal(t, 20, p.PageSize())
}

func TestNewPager_InvalidSizeFallsBack(t *testing.T) {
	p := application.NewPager(7, 10)
	assert.Equal(t, application.DefaultPageSize, p.PageSize())
}

func TestSlice_SecondPageOfTen(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, application.Slice(items, 2, 10))
	assert.Equal(t, []int{21, 22, 23, 24, 25}, application.Slice(items, 3, 10))
	assert.Empty(t, application.Slice(items, 4, 10))
	assert.Empty(t, application.Slice(items, 0, 10))
}

// render flattens page links into a compact string form for comparison.
func render(links []application.PageLink) []any {
	out := make([]any, len(links))
	for i, l := range links {
		if l.Ellipsis {
			out[i] = "..."
		} else {
			out[i] = l.Number
		}
	}
	return out
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           []any
	}{
		{"no pages", 1, 0, []any{}},
		{"few pages", 2, 3, []any{1, 2, 3}},
		{"exactly five", 5, 5, []any{1, 2, 3, 4, 5}},
		{"start of many", 1, 10, []any{1, 2, 3, 4, 5, "...", 10}},
		{"second of many", 2, 10, []any{1, 2, 3, 4, 5, "...", 10}},
		{"window touches first", 4, 10, []any{1, 2, 3, 4, 5, 6, "...", 10}},
		{"middle", 5, 10, []any{1, "...", 3, 4, 5, 6, 7, "...", 10}},
		{"near end", 8, 10, []any{1, "...", 6, 7, 8, 9, 10}},
		{"last", 10, 10, []any{1, "...", 6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(application.PageNumbers(tt.current, tt.total)))
		})
	}
}

func TestPageNumbers_MarksCurrent(t *testing.T) {
	for _, l := range application.PageNumbers(3, 10) {
		assert.Equal(t, l.Number == 3, l.Current)
	}
}
