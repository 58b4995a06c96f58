package application

import (
	"sync"
	"time"
)

// PRQuery is the server-side query of the PR dashboard.
type PRQuery struct {
	Page  int
	Limit int
	Name  string
	From  time.Time
	To    time.Time
}

// PRQueryController owns the PR dashboard query. Name changes are debounced
// and reset to page 1; page, page size and date changes fetch immediately.
// fetch is called with the query to run, without the controller's lock
// held, so it may report the response total through Observe.
type PRQueryController struct {
	mu       sync.Mutex
	pager    *Pager
	name     string
	from, to time.Time
	debounce *Debouncer
	fetch    func(PRQuery)
}

// NewPRQueryController creates a controller on page 1 with the given page
// size. delay is the name filter's quiet period (SearchDebounce in the GUI).
func NewPRQueryController(pageSize int, delay time.Duration, fetch func(PRQuery)) *PRQueryController {
	return &PRQueryController{
		pager:    NewPager(pageSize, 0),
		debounce: NewDebouncer(delay),
		fetch:    fetch,
	}
}

// Query returns the current query.
func (c *PRQueryController) Query() PRQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *PRQueryController) queryLocked() PRQuery {
	return PRQuery{Page: c.pager.Page(), Limit: c.pager.PageSize(), Name: c.name, From: c.from, To: c.to}
}

// Refresh fetches the current query immediately.
func (c *PRQueryController) Refresh() {
	c.emit(func() bool { return true })
}

// SetName records new filter text. One fetch, with the final text and page
// 1, runs once the text has been stable for the debounce delay.
func (c *PRQueryController) SetName(name string) {
	c.debounce.Trigger(func() {
		c.emit(func() bool {
			c.name = name
			c.pager.Reset()
			return true
		})
	})
}

// SetDates applies a date range filter and returns to page 1. Zero times
// clear the corresponding bound.
func (c *PRQueryController) SetDates(from, to time.Time) {
	c.emit(func() bool {
		c.from, c.to = from, to
		c.pager.Reset()
		return true
	})
}

// Clear removes every filter and returns to page 1.
func (c *PRQueryController) Clear() {
	c.debounce.Cancel()
	c.emit(func() bool {
		c.name = ""
		c.from, c.to = time.Time{}, time.Time{}
		c.pager.Reset()
		return true
	})
}

// GoTo moves to page n. Pages outside the last known range are ignored.
func (c *PRQueryController) GoTo(n int) {
	c.emit(func() bool { return c.pager.GoTo(n) })
}

// Next moves one page forward.
func (c *PRQueryController) Next() {
	c.emit(func() bool { return c.pager.Next() })
}

// Prev moves one page back.
func (c *PRQueryController) Prev() {
	c.emit(func() bool { return c.pager.Prev() })
}

// SetPageSize changes the page size and returns to page 1.
func (c *PRQueryController) SetPageSize(size int) {
	c.emit(func() bool { return c.pager.SetPageSize(size) })
}

// Observe records the total reported by the last response so navigation
// knows the page range.
func (c *PRQueryController) Observe(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pager.SetTotal(total)
}

// Pager returns a copy of the pager state for rendering.
func (c *PRQueryController) Pager() Pager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.pager
}

// Close cancels any pending debounced fetch.
func (c *PRQueryController) Close() {
	c.debounce.Cancel()
}

func (c *PRQueryController) emit(change func() bool) {
	c.mu.Lock()
	if !change() {
		c.mu.Unlock()
		return
	}
	q := c.queryLocked()
	c.mu.Unlock()

	c.fetch(q)
}
