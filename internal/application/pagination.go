package application

import "slices"

// PageSizes are the page sizes offered by list views.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is the page size a list view starts with.
const DefaultPageSize = 10

// maxPageLinks is the widest run of page numbers shown before the list is
// collapsed with ellipses.
const maxPageLinks = 5

// TotalPages returns ceil(total/size), or 0 when there is nothing to show.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ValidPageSize reports whether size is one of PageSizes.
func ValidPageSize(size int) bool {
	return slices.Contains(PageSizes, size)
}

// Pager tracks the current page of a paginated view. Navigation outside
// [1, TotalPages] is ignored.
type Pager struct {
	page  int
	size  int
	total int
}

// NewPager creates a pager on page 1. A size outside PageSizes falls back
// to DefaultPageSize.
func NewPager(size, total int) *Pager {
	if !ValidPageSize(size) {
		size = DefaultPageSize
	}
	return &Pager{page: 1, size: size, total: max(total, 0)}
}

// Page returns the current page (1-based).
func (p *Pager) Page() int { return p.page }

// PageSize returns the page size.
func (p *Pager) PageSize() int { return p.size }

// Total returns the item count.
func (p *Pager) Total() int { return p.total }

// TotalPages returns the number of pages.
func (p *Pager) TotalPages() int { return TotalPages(p.total, p.size) }

// GoTo moves to page n and reports whether the page changed. Requests
// outside [1, TotalPages] are no-ops.
func (p *Pager) GoTo(n int) bool {
	if n < 1 || n > p.TotalPages() || n == p.page {
		return false
	}
	p.page = n
	return true
}

// Next moves one page forward if there is one.
func (p *Pager) Next() bool { return p.GoTo(p.page + 1) }

// Prev moves one page back if there is one.
func (p *Pager) Prev() bool { return p.GoTo(p.page - 1) }

// HasNext reports whether Next would move.
func (p *Pager) HasNext() bool { return p.page < p.TotalPages() }

// HasPrev reports whether Prev would move.
func (p *Pager) HasPrev() bool { return p.page > 1 }

// SetPageSize changes the page size and returns to page 1. Sizes outside
// PageSizes are ignored.
func (p *Pager) SetPageSize(size int) bool {
	if !ValidPageSize(size) {
		return false
	}
	p.size = size
	p.page = 1
	return true
}

// SetTotal updates the item count and clamps the current page into range.
func (p *Pager) SetTotal(total int) {
	p.total = max(total, 0)
	p.page = min(p.page, max(p.TotalPages(), 1))
}

// Reset returns to page 1.
func (p *Pager) Reset() { p.page = 1 }

// Offset returns the index of the first item on the current page.
func (p *Pager) Offset() int { return (p.page - 1) * p.size }

// PageNumbers returns the page links to render for the current page.
func (p *Pager) PageNumbers() []PageLink { return PageNumbers(p.page, p.TotalPages()) }

// PageLink is one entry of a pagination bar: a page number or an ellipsis.
type PageLink struct {
	Number   int
	Ellipsis bool
	Current  bool
}

// PageNumbers returns the links for a pagination bar. Up to five pages are
// listed in full; beyond that the first and last page are always shown,
// with a five-page window around current and ellipses over the gaps.
func PageNumbers(current, totalPages int) []PageLink {
	link := func(n int) PageLink { return PageLink{Number: n, Current: n == current} }

	var links []PageLink
	if totalPages <= maxPageLinks {
		for i := 1; i <= totalPages; i++ {
			links = append(links, link(i))
		}
		return links
	}

	half := maxPageLinks / 2
	start := max(1, current-half)
	end := min(totalPages, current+half)
	if current <= half {
		end = maxPageLinks
	}
	if current+half >= totalPages {
		start = totalPages - maxPageLinks + 1
	}

	if start > 1 {
		links = append(links, link(1))
		if start > 2 {
			links = append(links, PageLink{Ellipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		links = append(links, link(i))
	}
	if end < totalPages {
		if end < totalPages-1 {
			links = append(links, PageLink{Ellipsis: true})
		}
		links = append(links, link(totalPages))
	}
	return links
}

// Slice returns the items on page (1-based) of the given size. Pages out of
// range yield an empty slice.
func Slice[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}
