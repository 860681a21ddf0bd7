// Package catalog holds the state of the public ticket listing: the filter
// values, the current page and the last page of results.  Pagination and
// filtering happen on the backend; the view only guards against responses
// arriving out of order.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/apperr"
	"github.com/iliyamo/ticketbari-web/internal/model"
)

// DefaultPageSize matches the three-by-three grid of the listing page.
const DefaultPageSize = 9

// ErrStale is returned by Navigate when a newer fetch was issued while this
// one was in flight.  The stale result is discarded.
var ErrStale = errors.New("catalog: stale response discarded")

// Sort orders for SortByPrice.
const (
	SortNone = ""
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filters are the user-controlled search inputs.  Empty fields do not
// constrain the listing.
type Filters struct {
	From          string `json:"from" query:"from"`
	To            string `json:"to" query:"to"`
	TransportType string `json:"transportType" query:"transportType"`
	SortByPrice   string `json:"sortByPrice" query:"sort"`
}

// Normalize trims the inputs and validates the enumerated fields.
func (f Filters) Normalize() (Filters, error) {
	f.From = strings.TrimSpace(f.From)
	f.To = strings.TrimSpace(f.To)
	f.TransportType = strings.ToLower(strings.TrimSpace(f.TransportType))
	f.SortByPrice = strings.ToLower(strings.TrimSpace(f.SortByPrice))
	if f.TransportType != "" {
		if _, ok := model.ParseTransportType(f.TransportType); !ok {
			return f, apperr.ValidationError{Field: "transportType", Msg: "must be bus, train, launch or plane"}
		}
	}
	switch f.SortByPrice {
	case SortNone, SortAsc, SortDesc:
	default:
		return f, apperr.ValidationError{Field: "sort", Msg: "must be asc or desc"}
	}
	return f, nil
}

func (f Filters) sortBy() string {
	switch f.SortByPrice {
	case SortAsc:
		return "price_asc"
	case SortDesc:
		return "price_desc"
	}
	return ""
}

// Lister is the slice of the backend client the view needs.
type Lister interface {
	ListTickets(ctx context.Context, q api.TicketQuery) (model.TicketPage, error)
}

// Result is one rendered page.
type Result struct {
	Filters    Filters        `json:"filters"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	Tickets    []model.Ticket `json:"tickets"`
}

// View is the listing state of one browser session.  It is safe for
// concurrent use; concurrent fetches are ordered by issue sequence.
type View struct {
	backend Lister

	mu       sync.Mutex
	filters  Filters
	page     int
	pageSize int
	seq      uint64 // last issued fetch
	result   Result
	loaded   bool
}

func NewView(backend Lister) *View {
	return &View{backend: backend, page: 1, pageSize: DefaultPageSize}
}

// Navigate applies f and page and issues the fetch under the same lock.  A
// change of filters lands on page 1 and ignores page; page 0 keeps the
// current page.  If another Navigate is issued before this one returns,
// this one's response is dropped and ErrStale is returned; its error, if
// any, is dropped too.
func (v *View) Navigate(ctx context.Context, f Filters, page int) (Result, error) {
	v.mu.Lock()
	if f != v.filters {
		v.filters = f
		v.page = 1
	} else if page > 0 {
		v.page = page
	}
	q := v.issueLocked()
	v.mu.Unlock()
	return v.run(ctx, q)
}

// query is one issued fetch.
type query struct {
	seq     uint64
	filters Filters
	page    int
	size    int
}

func (v *View) issueLocked() query {
	v.seq++
	return query{seq: v.seq, filters: v.filters, page: v.page, size: v.pageSize}
}

func (v *View) run(ctx context.Context, q query) (Result, error) {
	f := q.filters
	out, err := v.backend.ListTickets(ctx, api.TicketQuery{
		Page:          q.page,
		Limit:         q.size,
		From:          f.From,
		To:            f.To,
		TransportType: f.TransportType,
		SortBy:        f.sortBy(),
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if q.seq != v.seq {
		return Result{}, ErrStale
	}
	if err != nil {
		return Result{}, err
	}
	if out.Tickets == nil {
		out.Tickets = []model.Ticket{}
	}
	v.result = Result{Filters: f, Page: q.page, PageSize: q.size, TotalPages: out.TotalPages, Tickets: out.Tickets}
	v.loaded = true
	return v.result, nil
}
