package browse

import (
	"context"
	"sync"
	"time"

	"github.com/tomasarrieta/shopwindow/internal/catalog"
	pkgerrors "github.com/tomasarrieta/shopwindow/pkg/errors"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
	"github.com/tomasarrieta/shopwindow/pkg/metrics"
)

const (
	resourceProducts   = "products"
	resourceCategories = "categories"

	// DefaultDebounce matches the storefront's search-input debounce.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultFetchTimeout bounds a single catalog round trip.
	DefaultFetchTimeout = 15 * time.Second
)

// CatalogClient is the outbound surface the coordinator drives.
type CatalogClient interface {
	ListProducts(ctx context.Context, params catalog.ListParams) (*catalog.ProductPage, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// ResultSet is the last accepted page of products plus its pagination
// metadata and the snapshot that produced it. It is replaced wholesale on
// every accepted response, never merged.
type ResultSet struct {
	Items      []catalog.Product
	TotalItems int
	TotalPages int
	Source     FilterState
}

// ErrorState is the render contract's error surface: the latest fetch
// failure, replaced (not appended) by the next outcome.
type ErrorState struct {
	Status  bool
	Message string
}

// View is the snapshot the embedding UI renders from.
type View struct {
	State         FilterState
	Results       *ResultSet
	Categories    []catalog.Category
	Loading       bool
	Err           ErrorState
	CategoriesErr ErrorState
}

// CoordinatorParams configures a Coordinator. Client is required; everything
// else has a usable zero value.
type CoordinatorParams struct {
	Client       CatalogClient
	Logger       *logger.Logger
	Metrics      *metrics.BrowseMetrics
	History      History
	Defaults     Defaults
	Debounce     time.Duration
	FetchTimeout time.Duration
	OnUpdate     func(View)
}

// Coordinator owns the debounce timer, the request token sequence and the
// displayed results. Responses are applied in causal order of request
// issuance: only the response carrying the latest minted token may touch
// the ResultSet, so an out-of-order arrival can never overwrite the result
// of a newer request. There is no request cancellation; superseded requests
// simply have their responses discarded on arrival.
type Coordinator struct {
	client       CatalogClient
	logg         *logger.Logger
	metrics      *metrics.BrowseMetrics
	history      History
	codec        Codec
	debounce     time.Duration
	fetchTimeout time.Duration
	onUpdate     func(View)

	mu         sync.Mutex
	ctx        context.Context
	state      FilterState
	results    *ResultSet
	categories []catalog.Category
	loading    bool
	err        ErrorState
	catErr     ErrorState
	token      uint64
	timer      *time.Timer
	lastQuery  string
	started    bool
}

// NewCoordinator builds a stopped coordinator; call Start to fetch.
func NewCoordinator(params CoordinatorParams) *Coordinator {
	codec := NewCodec(params.Defaults)
	debounce := params.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fetchTimeout := params.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Coordinator{
		client:       params.Client,
		logg:         params.Logger,
		metrics:      params.Metrics,
		history:      params.History,
		codec:        codec,
		debounce:     debounce,
		fetchTimeout: fetchTimeout,
		onUpdate:     params.OnUpdate,
		state:        codec.Defaults.State(),
	}
}

// Start seeds the state from an initial query string (URL restore), issues
// the first product fetch immediately, and kicks off the independent
// category fetch in parallel.
func (c *Coordinator) Start(ctx context.Context, initialQuery string) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.ctx = ctx
	c.state = c.codec.Decode(initialQuery)
	c.lastQuery = c.codec.Encode(c.state)
	c.mu.Unlock()

	go c.fetchCategories(ctx)
	c.dispatch()
}

// Stop cancels any pending debounce. In-flight responses still resolve but
// can no longer be observed once the owning context is done.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
}

// SetPage moves to page n, bounded by the total from the last accepted
// ResultSet. Pagination clicks are discrete, so the fetch fires immediately
// rather than waiting out a debounce.
func (c *Coordinator) SetPage(n int) {
	c.mutate(func(s FilterState) FilterState {
		return s.WithPage(n, c.knownTotalPagesLocked())
	}, false)
}

// ToggleCategory flips a category filter. Debounced.
func (c *Coordinator) ToggleCategory(slug string) {
	c.mutate(func(s FilterState) FilterState {
		return s.ToggleCategory(slug)
	}, true)
}

// SetPriceRange applies the clamped price window. Debounced: slider drags
// arrive in bursts and only the settled position should produce a request.
func (c *Coordinator) SetPriceRange(min, max int) {
	c.mutate(func(s FilterState) FilterState {
		return s.WithPriceRange(min, max, c.codec.Defaults)
	}, true)
}

// SetOnSale flips the sale filter. Debounced.
func (c *Coordinator) SetOnSale(on bool) {
	c.mutate(func(s FilterState) FilterState {
		return s.WithOnSale(on)
	}, true)
}

// SetSortBy changes the sort order. Debounced.
func (c *Coordinator) SetSortBy(order SortOrder) {
	c.mutate(func(s FilterState) FilterState {
		return s.WithSortBy(order)
	}, true)
}

// Retry re-issues a fetch for the current state, for an explicit retry
// affordance after a failure. Immediate.
func (c *Coordinator) Retry() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.cancelTimerLocked()
	c.mu.Unlock()
	c.dispatch()
}

// ApplyQuery handles inbound URL navigation (back/forward). A query that
// decodes to the current state is a no-op, which breaks the inbound →
// outbound → inbound loop; a real change fetches immediately.
func (c *Coordinator) ApplyQuery(query string) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	next := c.codec.Decode(query)
	if next.Equal(c.state) {
		c.mu.Unlock()
		return
	}
	c.state = next
	// Remember the canonical form without writing it back: the URL is
	// already there, re-publishing it would re-trigger this listener.
	c.lastQuery = c.codec.Encode(next)
	c.cancelTimerLocked()
	c.mu.Unlock()
	c.dispatch()
}

// View returns the current render snapshot.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// CanonicalQuery returns the canonical serialization of the current state.
func (c *Coordinator) CanonicalQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codec.Encode(c.state)
}

func (c *Coordinator) mutate(apply func(FilterState) FilterState, debounced bool) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	next := apply(c.state)
	if next.Equal(c.state) {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.syncURLLocked()

	if debounced {
		c.scheduleLocked()
		c.mu.Unlock()
		c.notify()
		return
	}
	c.cancelTimerLocked()
	c.mu.Unlock()
	c.notify()
	c.dispatch()
}

// syncURLLocked publishes the canonical query string, skipping the write
// when it would repeat the last one.
func (c *Coordinator) syncURLLocked() {
	canonical := c.codec.Encode(c.state)
	if canonical == c.lastQuery {
		return
	}
	c.lastQuery = canonical
	if c.history != nil {
		c.history.Replace(canonical)
	}
}

// scheduleLocked restarts the debounce window. A restart drops the pending
// timer, so superseded intermediate states never reach the network.
func (c *Coordinator) scheduleLocked() {
	c.cancelTimerLocked()
	c.timer = time.AfterFunc(c.debounce, c.dispatch)
}

func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// dispatch mints the next token and starts the fetch for the current state.
func (c *Coordinator) dispatch() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.token++
	token := c.token
	snapshot := c.state.clone()
	ctx := c.ctx
	c.loading = true
	c.mu.Unlock()
	c.notify()

	go c.fetchProducts(ctx, token, snapshot)
}

func (c *Coordinator) fetchProducts(ctx context.Context, token uint64, snapshot FilterState) {
	c.metrics.IncIssued(resourceProducts)
	if c.logg != nil {
		ctx = c.logg.WithFetchToken(ctx, token)
		c.logg.Debug(ctx, "browse.fetch.start")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	page, err := c.client.ListProducts(fetchCtx, snapshot.ListParams())
	c.metrics.ObserveDuration(resourceProducts, time.Since(start))

	c.mu.Lock()
	if token != c.token {
		// A newer request was minted while this one was in flight. Its
		// response is dead on arrival regardless of order or outcome.
		c.mu.Unlock()
		c.metrics.IncStale(resourceProducts)
		if c.logg != nil {
			c.logg.Debug(ctx, "browse.fetch.stale_discarded")
		}
		return
	}

	c.loading = false
	if err != nil {
		// Keep whatever was on screen; stale-but-valid data beats a blank
		// grid. The very first fetch has nothing to keep, so the empty
		// state shows through.
		c.err = ErrorState{Status: true, Message: publicFetchMessage(err, "could not load products, please try again")}
		c.metrics.IncFailed(resourceProducts)
		if c.logg != nil {
			c.logg.Error(ctx, "browse.fetch.failed", err)
		}
	} else {
		c.results = &ResultSet{
			Items:      page.Products,
			TotalItems: page.TotalProducts,
			TotalPages: page.TotalPages,
			Source:     snapshot,
		}
		c.err = ErrorState{}
		c.metrics.IncApplied(resourceProducts)
	}
	c.mu.Unlock()
	c.notify()
}

// fetchCategories runs once per Start, in parallel with product fetches.
// Its failure is reported independently and never blocks the product list.
func (c *Coordinator) fetchCategories(ctx context.Context) {
	c.metrics.IncIssued(resourceCategories)

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	categories, err := c.client.ListCategories(fetchCtx)
	c.metrics.ObserveDuration(resourceCategories, time.Since(start))

	c.mu.Lock()
	if err != nil {
		c.catErr = ErrorState{Status: true, Message: publicFetchMessage(err, "could not load categories")}
		c.metrics.IncFailed(resourceCategories)
		if c.logg != nil {
			c.logg.Error(ctx, "browse.categories.failed", err)
		}
	} else {
		c.categories = categories
		c.catErr = ErrorState{}
		c.metrics.IncApplied(resourceCategories)
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) knownTotalPagesLocked() int {
	if c.results == nil {
		return 0
	}
	return c.results.TotalPages
}

func (c *Coordinator) viewLocked() View {
	return View{
		State:         c.state.clone(),
		Results:       c.results,
		Categories:    c.categories,
		Loading:       c.loading,
		Err:           c.err,
		CategoriesErr: c.catErr,
	}
}

func (c *Coordinator) notify() {
	if c.onUpdate == nil {
		return
	}
	c.mu.Lock()
	view := c.viewLocked()
	c.mu.Unlock()
	c.onUpdate(view)
}

func publicFetchMessage(err error, fallback string) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return fallback
}
