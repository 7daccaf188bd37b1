package source

import (
	"fmt"
	"net/url"
	"strconv"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/promise"
	"github.com/reoring/databind/transport"
)

// Paging is the owned paging state of a PaginatedArraySource. Pages are
// one-based; MaxPages and Count are zero until a load has reported a
// total.
type Paging struct {
	Page     int
	Size     int
	Count    int
	MaxPages int
	Order    string
	OrderAsc bool
}

// LoadParams selects the page to fetch. Zero fields fall back to the
// source's current paging state.
type LoadParams struct {
	Page  int
	Size  int
	Order string
	// OrderAsc applies only when Order is set.
	OrderAsc bool
	// Query is merged into the request on top of the paging parameters.
	Query url.Values
}

// PageResult is what a page endpoint must decode to: the raw items of
// one page plus the total item count across all pages.
type PageResult struct {
	Items []any
	Count int
}

// ParseFunc extracts a PageResult from a transport response. The default
// expects an object with an "items" array and a numeric "count".
type ParseFunc func(resp *transport.Response) (PageResult, error)

// PaginatedOptions configures NewPaginated. URL, Transport and Loop are
// required; Size defaults to 20.
type PaginatedOptions struct {
	Name      string
	URL       string
	Transport *transport.Transport
	Loop      *promise.Loop
	Size      int
	Order     string
	OrderAsc  bool
	Parse     ParseFunc
	Logger    *logging.Logger
}

const defaultPageSize = 20

// PaginatedArraySource is an ArraySource whose backing items come from a
// paged network endpoint. A successful load replaces the items and the
// paging metadata atomically; a failed load flips the bound element into
// its failure state and leaves the paging state untouched.
type PaginatedArraySource struct {
	*ArraySource
	url   string
	tr    *transport.Transport
	loop  *promise.Loop
	parse ParseFunc

	paging Paging
	call   *transport.Call
}

// NewPaginated builds a PaginatedArraySource over class.
func NewPaginated(class *model.ArrayClass, opts PaginatedOptions) (*PaginatedArraySource, error) {
	if opts.URL == "" || opts.Transport == nil || opts.Loop == nil {
		return nil, databind.NewSourceError(opts.Name, "new", "",
			"paginated source needs URL, Transport and Loop")
	}
	inner, err := NewArray(class, &ArrayOptions{Name: opts.Name, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	size := opts.Size
	if size <= 0 {
		size = defaultPageSize
	}
	parse := opts.Parse
	if parse == nil {
		parse = parsePageObject
	}
	return &PaginatedArraySource{
		ArraySource: inner,
		url:         opts.URL,
		tr:          opts.Transport,
		loop:        opts.Loop,
		parse:       parse,
		paging:      Paging{Page: 1, Size: size, Order: opts.Order, OrderAsc: opts.OrderAsc},
	}, nil
}

// Paging reports the current paging state.
func (s *PaginatedArraySource) Paging() Paging { return s.paging }

// Load fetches one page and applies it. A load already in flight is
// aborted first. The returned promise resolves with the new paging state
// after the items are swapped in and rejects with the transport error on
// failure; a deliberate abort rejects too but does not flip the element
// into its failure state.
func (s *PaginatedArraySource) Load(params LoadParams) *promise.Promise {
	req := s.paging
	if params.Page > 0 {
		req.Page = params.Page
	}
	if params.Size > 0 {
		req.Size = params.Size
	}
	if params.Order != "" {
		req.Order = params.Order
		req.OrderAsc = params.OrderAsc
	}
	s.Abort()

	query := url.Values{}
	for k, vs := range params.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("page", strconv.Itoa(req.Page))
	query.Set("size", strconv.Itoa(req.Size))
	if req.Order != "" {
		query.Set("order", req.Order)
		dir := "desc"
		if req.OrderAsc {
			dir = "asc"
		}
		query.Set("dir", dir)
	}

	call := s.tr.Get(s.loop, s.url, query)
	s.call = call
	p := call.Promise().Then(func(v any) (any, error) {
		resp := v.(*transport.Response)
		page, err := s.parse(resp)
		if err != nil {
			return nil, err
		}
		if err := s.items.SetItems(page.Items); err != nil {
			return nil, err
		}
		req.Count = page.Count
		req.MaxPages = pageCount(page.Count, req.Size)
		s.paging = req
		if s.call == call {
			s.call = nil
		}
		return s.paging, nil
	})
	p.Catch(func(err error) (any, error) {
		if s.call == call {
			s.call = nil
		}
		if transport.IsAborted(err) {
			s.log.Debugf("%s: load aborted", s.name)
			return nil, nil
		}
		s.log.Warningf("%s: load failed: %v", s.name, err)
		if s.el != nil {
			s.el.Fail(err)
		}
		return nil, nil
	})
	return p
}

// Abort cancels the in-flight load, if any. Idempotent; the aborted
// load's promise rejects with an aborted transport error.
func (s *PaginatedArraySource) Abort() {
	if s.call != nil {
		s.call.Abort()
		s.call = nil
	}
}

// ---- page navigation ----

// GetPage loads page n.
func (s *PaginatedArraySource) GetPage(n int) *promise.Promise {
	return s.Load(LoadParams{Page: n})
}

// GetNextPage loads the page after the current one, clamped to the last
// known page.
func (s *PaginatedArraySource) GetNextPage() *promise.Promise {
	next := s.paging.Page + 1
	if s.paging.MaxPages > 0 && next > s.paging.MaxPages {
		next = s.paging.MaxPages
	}
	return s.GetPage(next)
}

// GetPreviousPage loads the page before the current one, clamped to the
// first.
func (s *PaginatedArraySource) GetPreviousPage() *promise.Promise {
	prev := s.paging.Page - 1
	if prev < 1 {
		prev = 1
	}
	return s.GetPage(prev)
}

// GetFirstPage loads page one.
func (s *PaginatedArraySource) GetFirstPage() *promise.Promise {
	return s.GetPage(1)
}

// GetLastPage loads the last known page, or the first when no load has
// reported a total yet.
func (s *PaginatedArraySource) GetLastPage() *promise.Promise {
	last := s.paging.MaxPages
	if last < 1 {
		last = 1
	}
	return s.GetPage(last)
}

// parsePageObject handles the default page shape, an object carrying an
// "items" array and a "count" number.
func parsePageObject(resp *transport.Response) (PageResult, error) {
	obj, ok := resp.Data.(map[string]any)
	if !ok {
		return PageResult{}, fmt.Errorf("page response is %T, not an object", resp.Data)
	}
	items, _ := obj["items"].([]any)
	count := len(items)
	if n, ok := obj["count"].(float64); ok {
		count = int(n)
	}
	return PageResult{Items: items, Count: count}, nil
}

func pageCount(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}
