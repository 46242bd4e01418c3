// Package query owns the paging and search state of the dataset grid and keeps
// only the newest query result current.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/logging"
	"github.com/colonyops/harvest/pkg/debounce"
)

const (
	DefaultPageSize = 20
	DefaultDebounce = 300 * time.Millisecond
)

// Fetcher retrieves one page of the dataset.
type Fetcher interface {
	FetchPage(ctx context.Context, req dataset.PageRequest) (dataset.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req dataset.PageRequest) (dataset.Page, error)

func (f FetcherFunc) FetchPage(ctx context.Context, req dataset.PageRequest) (dataset.Page, error) {
	return f(ctx, req)
}

// Request is a page request stamped with the generation it was issued under.
type Request struct {
	Gen uint64
	dataset.PageRequest
}

// Result is the outcome of executing a Request. Applied is true only when the
// page became the current page. Followup is set when the requested page was
// past the end of the dataset and a request for the last page was issued in
// its place.
type Result struct {
	Request  Request
	Page     dataset.Page
	Err      error
	Applied  bool
	Followup *Request
}

// Snapshot is a copy of the controller's visible state.
type Snapshot struct {
	Items      []dataset.Record
	Total      int
	TotalPages int
	PageIndex  int
	PageSize   int
	Search     string
	Loading    bool
	Err        error
	Loaded     bool // at least one page has been applied
}

// Options configures a Controller.
type Options struct {
	PageSize int
	Debounce time.Duration
	Logger   *zerolog.Logger
}

// Controller tracks {pageIndex, pageSize, searchTerm} and the latest applied
// page. Every issued request bumps a generation counter; completions for any
// other generation are discarded. Safe for concurrent use.
type Controller struct {
	fetcher   Fetcher
	debouncer *debounce.Debouncer
	log       zerolog.Logger

	mu      sync.Mutex
	params  dataset.PageRequest
	gen     uint64
	page    dataset.Page
	loaded  bool
	loading bool
	err     error
}

// New creates a controller that fetches pages through fetcher.
func New(fetcher Fetcher, opts Options) *Controller {
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	logger := logging.Component("query")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Controller{
		fetcher:   fetcher,
		debouncer: debounce.New(opts.Debounce),
		log:       logger,
		params: dataset.PageRequest{
			PageIndex: 1,
			PageSize:  opts.PageSize,
		},
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]dataset.Record, len(c.page.Items))
	copy(items, c.page.Items)

	return Snapshot{
		Items:      items,
		Total:      c.page.TotalCount,
		TotalPages: c.page.TotalPages,
		PageIndex:  c.params.PageIndex,
		PageSize:   c.params.PageSize,
		Search:     c.params.Search,
		Loading:    c.loading,
		Err:        c.err,
		Loaded:     c.loaded,
	}
}

// Params returns the current query parameters.
func (c *Controller) Params() dataset.PageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Generation returns the latest issued generation.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetPage moves to page i. Out-of-range pages are rejected with a validation
// error and nothing is issued.
func (c *Controller) SetPage(i int) (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkPageLocked(i); err != nil {
		return Request{}, err
	}

	// The issued request already carries any pending search term.
	c.debouncer.Cancel()
	c.params.PageIndex = i
	return c.issueLocked(), nil
}

// NextPage moves forward one page.
func (c *Controller) NextPage() (Request, error) {
	return c.SetPage(c.Params().PageIndex + 1)
}

// PrevPage moves back one page.
func (c *Controller) PrevPage() (Request, error) {
	return c.SetPage(c.Params().PageIndex - 1)
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(n int) (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 1 {
		return Request{}, dataset.Validationf("page size must be at least 1, got %d", n)
	}

	// The issued request already carries any pending search term.
	c.debouncer.Cancel()
	c.params.PageSize = n
	c.params.PageIndex = 1
	return c.issueLocked(), nil
}

// SetSearch changes the search term and returns to page 1 immediately,
// invalidating requests in flight. The query itself is debounced: fire
// receives exactly one request once typing settles. Returns false when the term is unchanged and nothing is pending.
func (c *Controller) SetSearch(term string, fire func(Request)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if term == c.params.Search && !c.debouncer.Pending() {
		return false
	}

	c.params.Search = term
	c.params.PageIndex = 1
	// Pages requested under the old term must not land on top of the new one.
	c.gen++
	c.loading = true

	c.debouncer.Call(func() {
		c.mu.Lock()
		req := c.issueLocked()
		c.mu.Unlock()

		c.log.Debug().Str("search", req.Search).Uint64("gen", req.Gen).Msg("search settled")
		if fire != nil {
			fire(req)
		}
	})
	return true
}

// SearchPending reports whether a debounced search has not fired yet.
func (c *Controller) SearchPending() bool {
	return c.debouncer.Pending()
}

// Refresh re-issues the current parameters.
func (c *Controller) Refresh() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked()
}

// Query sets all parameters at once and fetches synchronously. A change of
// page size or search term resets the page index to 1.
func (c *Controller) Query(ctx context.Context, pageIndex, pageSize int, search string) Result {
	c.mu.Lock()
	if pageSize < 1 {
		c.mu.Unlock()
		return Result{Err: dataset.Validationf("page size must be at least 1, got %d", pageSize)}
	}
	if pageSize != c.params.PageSize || search != c.params.Search {
		pageIndex = 1
	} else if err := c.checkPageLocked(pageIndex); err != nil {
		c.mu.Unlock()
		return Result{Err: err}
	}

	c.debouncer.Cancel()
	c.params = dataset.PageRequest{PageIndex: pageIndex, PageSize: pageSize, Search: search}
	req := c.issueLocked()
	c.mu.Unlock()

	res := c.Execute(ctx, req)
	if res.Followup != nil {
		return c.Execute(ctx, *res.Followup)
	}
	return res
}

// Execute fetches req and applies the page if req is still the latest
// generation.
func (c *Controller) Execute(ctx context.Context, req Request) Result {
	if err := req.Validate(); err != nil {
		return c.Complete(req, dataset.Page{}, err)
	}

	page, err := c.fetcher.FetchPage(ctx, req.PageRequest)
	return c.Complete(req, page, err)
}

// Complete applies the outcome of req. Results for superseded generations are
// returned with a stale-result error and leave the state untouched.
func (c *Controller) Complete(req Request, page dataset.Page, err error) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{Request: req, Page: page, Err: err}

	if req.Gen != c.gen {
		c.log.Debug().
			Uint64("gen", req.Gen).
			Uint64("latest", c.gen).
			Msg("dropping stale page result")
		res.Err = dataset.Stale(req.Gen)
		return res
	}

	c.loading = false
	if err != nil {
		c.err = err
		return res
	}

	// The dataset can shrink between queries; never show an empty page past the end.
	if page.Empty() && page.TotalPages > 0 && req.PageIndex > page.TotalPages {
		c.params.PageIndex = page.TotalPages
		next := c.issueLocked()
		res.Followup = &next
		return res
	}

	c.page = page
	c.loaded = true
	c.err = nil
	res.Applied = true
	return res
}

// Close discards any pending search and invalidates in-flight requests.
func (c *Controller) Close() {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.gen++
	c.loading = false
	c.mu.Unlock()
}

func (c *Controller) checkPageLocked(i int) error {
	if i < 1 {
		return dataset.Validationf("page %d out of range", i)
	}
	if c.loaded {
		last := max(c.page.TotalPages, 1)
		if i > last {
			return dataset.Validationf("page %d out of range [1, %d]", i, last)
		}
	}
	return nil
}

func (c *Controller) issueLocked() Request {
	c.gen++
	c.loading = true
	return Request{Gen: c.gen, PageRequest: c.params}
}
