package application_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

type fetchRecorder struct {
	mu      sync.Mutex
	queries []application.PRQuery
}

func (r *fetchRecorder) fetch(q application.PRQuery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func (r *fetchRecorder) all() []application.PRQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]application.PRQuery(nil), r.queries...)
}

const testDebounce = 30 * time.Millisecond

func TestDebouncer_RunsOnlyLastCall(t *testing.T) {
	d := application.NewDebouncer(testDebounce)

	var mu sync.Mutex
	var calls []int
	done := make(chan struct{})
	for i := 1; i <= 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			calls = append(calls, i)
			mu.Unlock()
			if i == 5 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(2 * testDebounce)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5}, calls)
}

func TestDebouncer_CancelDropsPendingCall(t *testing.T) {
	d := application.NewDebouncer(testDebounce)

	ran := make(chan struct{}, 1)
	d.Trigger(func() { ran <- struct{}{} })
	d.Cancel()

	select {
	case <-ran:
		t.Fatal("cancelled call ran")
	case <-time.After(3 * testDebounce):
	}
}

func TestPRQueryController_DebouncedSearchFetchesOnceOnPageOne(t *testing.T) {
	rec := &fetchRecorder{}
	c := application.NewPRQueryController(10, testDebounce, rec.fetch)
	defer c.Close()

	c.Observe(100)
	c.GoTo(4)
	require.Len(t, rec.all(), 1)

	for _, text := range []string{"a", "ap", "api", "api-"} {
		c.SetName(text)
	}
	c.SetName("api-gw")

	require.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)

	got := rec.all()
	require.Len(t, got, 2, "burst of keystrokes must produce exactly one fetch")
	assert.Equal(t, "api-gw", got[1].Name)
	assert.Equal(t, 1, got[1].Page)
	assert.Equal(t, 10, got[1].Limit)
}

func TestPRQueryController_PagingFetchesImmediately(t *testing.T) {
	rec := &fetchRecorder{}
	c := application.NewPRQueryController(10, time.Hour, rec.fetch)
	defer c.Close()

	c.Observe(45)
	c.Next()
	c.Next()
	c.Prev()
	c.GoTo(99) // out of range, ignored
	c.SetPageSize(20)
	c.SetPageSize(13) // not offered, ignored

	got := rec.all()
	require.Len(t, got, 4)
	assert.Equal(t, []int{2, 3, 2, 1}, []int{got[0].Page, got[1].Page, got[2].Page, got[3].Page})
	assert.Equal(t, 20, got[3].Limit)
}

func TestPRQueryController_DatesAndClear(t *testing.T) {
	rec := &fetchRecorder{}
	c := application.NewPRQueryController(5, testDebounce, rec.fetch)
	defer c.Close()

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	c.Observe(50)
	c.GoTo(3)
	c.SetDates(from, to)
	c.SetName("pending")
	c.Clear()

	time.Sleep(3 * testDebounce)

	got := rec.all()
	require.Len(t, got, 3, "clear cancels the pending name fetch")
	assert.Equal(t, 1, got[1].Page)
	assert.Equal(t, from, got[1].From)
	assert.Equal(t, to, got[1].To)

	cleared := got[2]
	assert.Equal(t, 1, cleared.Page)
	assert.Empty(t, cleared.Name)
	assert.True(t, cleared.From.IsZero())
	assert.True(t, cleared.To.IsZero())
}
