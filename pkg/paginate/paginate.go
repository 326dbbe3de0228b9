// Package paginate drives the page-fetch loops shared by all source
// connectors. Each source API paginates differently; connectors describe
// their idiom with a Descriptor and the engine handles the loop, so the
// per-source code is reduced to an envelope unwrapper.
package paginate

import (
	"context"
	"net/url"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/ticketferry/ticketferry/pkg/errors"
)

// Strategy identifies a pagination idiom.
type Strategy int

const (
	// StrategyOffset walks offset/limit windows and stops on a short page.
	StrategyOffset Strategy = iota

	// StrategyPage walks numbered pages. Termination uses, in order of
	// preference: an explicit next-page URL, a reported page total, or a
	// short page.
	StrategyPage

	// StrategyAfterID passes the last-seen record ID as a cursor and stops
	// on a short page or a missing cursor.
	StrategyAfterID

	// StrategyCursor passes back an opaque token minted by the source and
	// stops when the source withholds the next token.
	StrategyCursor
)

// Page is the uniform result of unwrapping one response envelope.
type Page struct {
	// Items holds the raw records from this page, still encoded.
	Items []gojson.RawMessage

	// HasMore reports that another page exists. The offset strategy treats
	// it as an override that forces another window even after a short
	// page; the page strategy relies on it whenever the envelope carries
	// neither a next-page link nor a page total.
	HasMore bool

	// TotalPages is the source-reported page count, 0 when unreported.
	TotalPages int

	// NextURL is a complete next-page link, "" when absent.
	NextURL string

	// NextAfter is the cursor for after-ID pagination, "" when exhausted.
	NextAfter string

	// NextCursor is the opaque token for cursor pagination, "" when
	// exhausted.
	NextCursor string
}

// UnwrapFunc decodes one response body into a Page. It owns all knowledge
// of the source's envelope shape.
type UnwrapFunc func(body []byte) (*Page, error)

// FetchFunc performs one page request. path may be a relative path or an
// absolute next-page URL.
type FetchFunc func(ctx context.Context, path string, query url.Values) ([]byte, error)

// EmitFunc receives each record in page order. A non-nil error aborts the
// drain.
type EmitFunc func(item gojson.RawMessage) error

// Descriptor describes one paginated collection endpoint.
type Descriptor struct {
	// Strategy selects the loop idiom.
	Strategy Strategy

	// Path is the collection endpoint, relative to the client base URL.
	Path string

	// Query carries fixed parameters sent with every page request.
	Query url.Values

	// PageSize is the requested window size. Required for every strategy
	// except StrategyCursor, where the source dictates the window.
	PageSize int

	// StartPage is the first page number for StrategyPage (default 1).
	StartPage int

	// Parameter names, per source dialect. Zero values get the common
	// defaults from normalize.
	OffsetParam  string
	LimitParam   string
	PageParam    string
	PerPageParam string
	AfterParam   string
	CursorParam  string

	// Unwrap decodes each response envelope.
	Unwrap UnwrapFunc
}

func (d *Descriptor) normalize() {
	if d.OffsetParam == "" {
		d.OffsetParam = "offset"
	}
	if d.LimitParam == "" {
		d.LimitParam = "limit"
	}
	if d.PageParam == "" {
		d.PageParam = "page"
	}
	if d.PerPageParam == "" {
		d.PerPageParam = "per_page"
	}
	if d.AfterParam == "" {
		d.AfterParam = "after_id"
	}
	if d.CursorParam == "" {
		d.CursorParam = "cursor"
	}
	if d.StartPage == 0 {
		d.StartPage = 1
	}
}

func (d *Descriptor) baseQuery() url.Values {
	q := url.Values{}
	for key, vals := range d.Query {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	return q
}

// Drain fetches every page of the described collection and emits each
// record in order. It stops at the strategy's terminal condition, on
// context cancellation, or on the first fetch/unwrap/emit error.
func Drain(ctx context.Context, fetch FetchFunc, desc *Descriptor, emit EmitFunc) error {
	if desc.Unwrap == nil {
		return errors.New(errors.ErrorTypeValidation, "pagination descriptor has no unwrap function")
	}
	if desc.Strategy != StrategyCursor && desc.PageSize <= 0 {
		return errors.New(errors.ErrorTypeValidation, "pagination descriptor has no page size")
	}
	desc.normalize()

	switch desc.Strategy {
	case StrategyOffset:
		return drainOffset(ctx, fetch, desc, emit)
	case StrategyPage:
		return drainPage(ctx, fetch, desc, emit)
	case StrategyAfterID:
		return drainAfterID(ctx, fetch, desc, emit)
	case StrategyCursor:
		return drainCursor(ctx, fetch, desc, emit)
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown pagination strategy %d", desc.Strategy)
	}
}

func fetchPage(ctx context.Context, fetch FetchFunc, desc *Descriptor, path string, query url.Values) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "pagination canceled")
	}
	body, err := fetch(ctx, path, query)
	if err != nil {
		return nil, err
	}
	page, err := desc.Unwrap(body)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func emitAll(page *Page, emit EmitFunc) error {
	for _, item := range page.Items {
		if err := emit(item); err != nil {
			return err
		}
	}
	return nil
}

func drainOffset(ctx context.Context, fetch FetchFunc, desc *Descriptor, emit EmitFunc) error {
	offset := 0
	for {
		q := desc.baseQuery()
		q.Set(desc.OffsetParam, strconv.Itoa(offset))
		q.Set(desc.LimitParam, strconv.Itoa(desc.PageSize))

		page, err := fetchPage(ctx, fetch, desc, desc.Path, q)
		if err != nil {
			return err
		}
		if err := emitAll(page, emit); err != nil {
			return err
		}
		if len(page.Items) < desc.PageSize && !page.HasMore {
			return nil
		}
		offset += len(page.Items)
	}
}

func drainPage(ctx context.Context, fetch FetchFunc, desc *Descriptor, emit EmitFunc) error {
	pageNum := desc.StartPage
	nextURL := ""
	for {
		var (
			path  string
			query url.Values
		)
		if nextURL != "" {
			// Source-provided links already carry their own parameters.
			path = nextURL
		} else {
			path = desc.Path
			query = desc.baseQuery()
			query.Set(desc.PageParam, strconv.Itoa(pageNum))
			query.Set(desc.PerPageParam, strconv.Itoa(desc.PageSize))
		}

		page, err := fetchPage(ctx, fetch, desc, path, query)
		if err != nil {
			return err
		}
		if err := emitAll(page, emit); err != nil {
			return err
		}

		switch {
		case page.NextURL != "":
			nextURL = page.NextURL
		case page.TotalPages > 0:
			if pageNum >= page.TotalPages {
				return nil
			}
			nextURL = ""
			pageNum++
		case page.HasMore:
			nextURL = ""
			pageNum++
		default:
			return nil
		}
	}
}

func drainAfterID(ctx context.Context, fetch FetchFunc, desc *Descriptor, emit EmitFunc) error {
	after := ""
	for {
		q := desc.baseQuery()
		q.Set(desc.LimitParam, strconv.Itoa(desc.PageSize))
		if after != "" {
			q.Set(desc.AfterParam, after)
		}

		page, err := fetchPage(ctx, fetch, desc, desc.Path, q)
		if err != nil {
			return err
		}
		if err := emitAll(page, emit); err != nil {
			return err
		}
		if len(page.Items) < desc.PageSize || page.NextAfter == "" {
			return nil
		}
		after = page.NextAfter
	}
}

func drainCursor(ctx context.Context, fetch FetchFunc, desc *Descriptor, emit EmitFunc) error {
	cursor := ""
	for {
		q := desc.baseQuery()
		if cursor != "" {
			q.Set(desc.CursorParam, cursor)
		}

		page, err := fetchPage(ctx, fetch, desc, desc.Path, q)
		if err != nil {
			return err
		}
		if err := emitAll(page, emit); err != nil {
			return err
		}
		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}
