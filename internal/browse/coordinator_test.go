package browse

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomasarrieta/shopwindow/internal/catalog"
	pkgerrors "github.com/tomasarrieta/shopwindow/pkg/errors"
)

type fakeCatalog struct {
	mu         sync.Mutex
	calls      []catalog.ListParams
	gates      map[int]chan struct{}
	failCalls  map[int]error
	totalPages int
	categories []catalog.Category
	catErr     error
	catCalls   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		gates:      map[int]chan struct{}{},
		failCalls:  map[int]error{},
		totalPages: 10,
		categories: []catalog.Category{{ID: 1, Slug: "laptops", Name: "Laptops"}},
	}
}

func (f *fakeCatalog) gate(call int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[call] = ch
	return ch
}

func (f *fakeCatalog) failCall(call int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCalls[call] = err
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCatalog) lastCall() catalog.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeCatalog) ListProducts(ctx context.Context, params catalog.ListParams) (*catalog.ProductPage, error) {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, params)
	gate := f.gates[idx]
	err := f.failCalls[idx]
	totalPages := f.totalPages
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &catalog.ProductPage{
		Products:      []catalog.Product{{ID: fmt.Sprintf("p-page-%d", params.Page), Slug: "p", Name: "P"}},
		CurrentPage:   params.Page,
		PerPage:       params.PerPage,
		TotalProducts: totalPages * params.PerPage,
		TotalPages:    totalPages,
	}, nil
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catCalls++
	if f.catErr != nil {
		return nil, f.catErr
	}
	return f.categories, nil
}

type recordingHistory struct {
	mu      sync.Mutex
	queries []string
}

func (r *recordingHistory) Replace(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
}

func (r *recordingHistory) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func startCoordinator(t *testing.T, fake *fakeCatalog, history History, debounce time.Duration, initialQuery string) *Coordinator {
	t.Helper()
	coord := NewCoordinator(CoordinatorParams{
		Client:   fake,
		History:  history,
		Debounce: debounce,
	})
	coord.Start(context.Background(), initialQuery)
	t.Cleanup(coord.Stop)
	waitFor(t, func() bool { return coord.View().Results != nil || coord.View().Err.Status }, "initial fetch")
	return coord
}

func TestStartRestoresStateFromQueryAndFetchesInParallel(t *testing.T) {
	fake := newFakeCatalog()
	coord := startCoordinator(t, fake, nil, 50*time.Millisecond, "categories=laptops&page=2")

	if got := fake.callCount(); got != 1 {
		t.Fatalf("expected exactly one product fetch on start, got %d", got)
	}
	params := fake.lastCall()
	if len(params.Categories) != 1 || params.Categories[0] != "laptops" || params.Page != 2 {
		t.Fatalf("expected restored snapshot in request, got %+v", params)
	}

	waitFor(t, func() bool { return len(coord.View().Categories) == 1 }, "category fetch")
	if fake.catCalls != 1 {
		t.Fatalf("expected one category fetch per mount, got %d", fake.catCalls)
	}
}

func TestDebounceCoalescesRapidMutations(t *testing.T) {
	fake := newFakeCatalog()
	coord := startCoordinator(t, fake, nil, 50*time.Millisecond, "")

	coord.ToggleCategory("laptops")
	coord.ToggleCategory("phones")
	coord.SetPriceRange(100, 900)
	coord.SetOnSale(true)

	waitFor(t, func() bool { return fake.callCount() == 2 }, "debounced fetch")
	time.Sleep(150 * time.Millisecond)
	if got := fake.callCount(); got != 2 {
		t.Fatalf("expected the burst to coalesce into one request, got %d total", got)
	}

	params := fake.lastCall()
	if len(params.Categories) != 2 || params.PriceMin != 100 || params.PriceMax != 900 || !params.OnSale || params.Page != 1 {
		t.Fatalf("expected request for the final settled state, got %+v", params)
	}
}

func TestPageChangeDispatchesImmediately(t *testing.T) {
	fake := newFakeCatalog()
	// An hour-long debounce: anything that fires within the test fired
	// immediately.
	coord := startCoordinator(t, fake, nil, time.Hour, "")

	coord.SetPage(2)
	waitFor(t, func() bool { return fake.callCount() == 2 }, "page fetch")
	if got := fake.lastCall().Page; got != 2 {
		t.Fatalf("expected page 2 request, got %d", got)
	}

	coord.ToggleCategory("laptops")
	time.Sleep(50 * time.Millisecond)
	if got := fake.callCount(); got != 2 {
		t.Fatalf("filter change must wait out the debounce, got %d calls", got)
	}
}

func TestPageChangeCancelsPendingDebounce(t *testing.T) {
	fake := newFakeCatalog()
	coord := startCoordinator(t, fake, nil, 100*time.Millisecond, "")

	coord.ToggleCategory("laptops")
	coord.SetPage(2)

	waitFor(t, func() bool { return fake.callCount() == 2 }, "immediate page fetch")
	params := fake.lastCall()
	// The page click lands on the already-toggled state, in one request.
	if params.Page != 2 || len(params.Categories) != 1 {
		t.Fatalf("expected combined snapshot, got %+v", params)
	}

	time.Sleep(250 * time.Millisecond)
	if got := fake.callCount(); got != 2 {
		t.Fatalf("expected the pending debounce to be cancelled, got %d calls", got)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	fake := newFakeCatalog()
	coord := startCoordinator(t, fake, nil, time.Hour, "")

	slow := fake.gate(1)
	coord.SetPage(2)
	coord.SetPage(3)

	waitFor(t, func() bool {
		view := coord.View()
		return view.Results != nil && view.Results.Source.Page == 3
	}, "newer response applied")

	close(slow)
	time.Sleep(50 * time.Millisecond)

	view := coord.View()
	if view.Results.Source.Page != 3 {
		t.Fatalf("stale response overwrote newer result: showing page %d", view.Results.Source.Page)
	}
	if view.Results.Items[0].ID != "p-page-3" {
		t.Fatalf("unexpected items %v", view.Results.Items)
	}
	if view.Loading {
		t.Fatal("expected loading cleared after the current token resolved")
	}
}

func TestFetchFailureKeepsPreviousResults(t *testing.T) {
	fake := newFakeCatalog()
	coord := startCoordinator(t, fake, nil, 5*time.Millisecond, "")

	fake.failCall(1, pkgerrors.New(pkgerrors.CodeDependency, "catalog on fire"))
	coord.SetOnSale(true)

	waitFor(t, func() bool { return coord.View().Err.Status }, "error state")
	view := coord.View()
	if view.Results == nil {
		t.Fatal("expected previous results to survive the failure")
	}
	if view.Results.Source.OnSale {
		t.Fatal("failed fetch must not update the result source")
	}
	if view.Err.Message != "catalog on fire" {
		t.Fatalf("expected remote message surfaced, got %q", view.Err.Message)
	}
	if view.Loading {
		t.Fatal("expected loading cleared on failure")
	}

	// The next successful fetch replaces the error.
	coord.SetOnSale(false)
	waitFor(t, func() bool { return !coord.View().Err.Status }, "error cleared")
}

func TestFirstFetchFailureShowsEmptyState(t *testing.T) {
	fake := newFakeCatalog()
	fake.failCall(0, pkgerrors.New(pkgerrors.CodeDependency, "cold start failure"))
	coord := startCoordinator(t, fake, nil, 5*time.Millisecond, "")

	view := coord.View()
	if !view.Err.Status {
		t.Fatal("expected error state")
	}
	if view.Results != nil {
		t.Fatal("expected no results on first-fetch failure")
	}
}

func TestCategoryFailureIsIndependent(t *testing.T) {
	fake := newFakeCatalog()
	fake.catErr = pkgerrors.New(pkgerrors.CodeDependency, "categories down")
	coord := startCoordinator(t, fake, nil, 5*time.Millisecond, "")

	waitFor(t, func() bool { return coord.View().CategoriesErr.Status }, "category error")
	view := coord.View()
	if view.Results == nil {
		t.Fatal("product fetch must not be blocked by a category failure")
	}
	if view.Err.Status {
		t.Fatal("product error state must stay clean")
	}
	if view.CategoriesErr.Message != "categories down" {
		t.Fatalf("unexpected category error %q", view.CategoriesErr.Message)
	}
}

func TestRetryReissuesCurrentState(t *testing.T) {
	fake := newFakeCatalog()
	fake.failCall(0, pkgerrors.New(pkgerrors.CodeDependency, "flaky"))
	coord := startCoordinator(t, fake, nil, time.Hour, "")

	coord.Retry()
	waitFor(t, func() bool { return coord.View().Results != nil }, "retry success")
	if got := fake.callCount(); got != 2 {
		t.Fatalf("expected exactly one retry request, got %d", got)
	}
}

func TestHistoryReceivesCanonicalQueries(t *testing.T) {
	fake := newFakeCatalog()
	history := &recordingHistory{}
	coord := startCoordinator(t, fake, history, 5*time.Millisecond, "")

	coord.ToggleCategory("laptops")
	coord.ToggleCategory("laptops")

	waitFor(t, func() bool { return len(history.all()) == 2 }, "history writes")
	got := history.all()
	if got[0] != "categories=laptops" || got[1] != "" {
		t.Fatalf("unexpected history %v", got)
	}
}

func TestApplyQueryLoopGuard(t *testing.T) {
	fake := newFakeCatalog()
	history := &recordingHistory{}
	coord := startCoordinator(t, fake, history, time.Hour, "")

	coord.ToggleCategory("laptops")
	// The outbound write lands in history; feeding the same canonical string
	// back in (the inbound listener firing on our own write) must not fetch
	// or write again.
	waitFor(t, func() bool { return len(history.all()) == 1 }, "outbound write")
	calls := fake.callCount()

	coord.ApplyQuery("categories=laptops")
	time.Sleep(50 * time.Millisecond)
	if got := fake.callCount(); got != calls {
		t.Fatalf("loop guard failed: canonical echo issued a fetch (%d -> %d)", calls, got)
	}
	if got := len(history.all()); got != 1 {
		t.Fatalf("loop guard failed: canonical echo wrote history %d times", got)
	}

	// A genuinely different inbound URL fetches immediately.
	coord.ApplyQuery("categories=laptops,phones&page=2")
	waitFor(t, func() bool { return fake.callCount() == calls+1 }, "inbound navigation fetch")
	params := fake.lastCall()
	if params.Page != 2 || len(params.Categories) != 2 {
		t.Fatalf("expected inbound state fetched, got %+v", params)
	}
	if got := len(history.all()); got != 1 {
		t.Fatalf("inbound navigation must not write back to history, got %d writes", got)
	}
}

func TestMutationsBeforeStartAreIgnored(t *testing.T) {
	fake := newFakeCatalog()
	coord := NewCoordinator(CoordinatorParams{Client: fake})

	coord.ToggleCategory("laptops")
	coord.SetPage(2)
	if got := fake.callCount(); got != 0 {
		t.Fatalf("expected no fetches before Start, got %d", got)
	}
}

func TestSetPageOutOfBoundsIsNoop(t *testing.T) {
	fake := newFakeCatalog()
	fake.totalPages = 3
	coord := startCoordinator(t, fake, nil, time.Hour, "")

	coord.SetPage(0)
	coord.SetPage(4)
	time.Sleep(50 * time.Millisecond)
	if got := fake.callCount(); got != 1 {
		t.Fatalf("expected out-of-bounds pages to be no-ops, got %d calls", got)
	}

	coord.SetPage(3)
	waitFor(t, func() bool { return fake.callCount() == 2 }, "last page fetch")
}
