package tfe

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Pagination is the JSON:API meta.pagination block.
type Pagination struct {
	CurrentPage int `json:"current-page"`
	TotalPages  int `json:"total-pages"`
	TotalCount  int `json:"total-count"`
	PageSize    int `json:"page-size"`
}

// Meta is the top-level JSON:API meta object.
type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Page is one decoded page of a listing.
type Page[T any] interface {
	Items() []T
	PageInfo() *Pagination
}

// ListEnvelope is the standard list document shape.
type ListEnvelope[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

func (e *ListEnvelope[T]) Items() []T             { return e.Data }
func (e *ListEnvelope[T]) PageInfo() *Pagination { return e.Meta.Pagination }

type pageOptions struct {
	allowMissing bool
	pageSize     int
	maxItems     int
	resource     string
}

// PageOption tunes FetchAll and FetchPages.
type PageOption func(*pageOptions)

// AllowMissing makes a 404 on the first page yield an empty listing.
func AllowMissing() PageOption {
	return func(o *pageOptions) { o.allowMissing = true }
}

// PageSize overrides the client's configured page size.
func PageSize(n int) PageOption {
	return func(o *pageOptions) { o.pageSize = n }
}

// MaxItems stops fetching once n items have been collected.
func MaxItems(n int) PageOption {
	return func(o *pageOptions) { o.maxItems = n }
}

// Resource names the listing in error messages.
func Resource(name string) PageOption {
	return func(o *pageOptions) { o.resource = name }
}

// FetchAll walks every page of a standard list endpoint.
func FetchAll[T any](ctx context.Context, c *Client, path string, query url.Values, opts ...PageOption) ([]T, error) {
	return FetchPages(ctx, c, path, query, func() Page[T] { return &ListEnvelope[T]{} }, opts...)
}

// FetchPages walks pages sequentially until the server reports the last
// page, concatenating items in server order. newPage allocates the decode
// target for each page.
func FetchPages[T any](ctx context.Context, c *Client, path string, query url.Values, newPage func() Page[T], opts ...PageOption) ([]T, error) {
	o := pageOptions{pageSize: c.cfg.PageSize, resource: path}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 || o.pageSize > 100 {
		o.pageSize = 100
	}

	var (
		items     []T
		lastTotal = -1
	)
	for page := 1; ; {
		q := url.Values{}
		for k, vs := range query {
			q[k] = append([]string(nil), vs...)
		}
		q.Set("page[number]", strconv.Itoa(page))
		q.Set("page[size]", strconv.Itoa(o.pageSize))

		doc := newPage()
		err := c.Do(ctx, Request{Path: path, Query: q, Resource: o.resource}, doc)
		if err != nil {
			if page == 1 && o.allowMissing && IsNotFound(err) {
				return []T{}, nil
			}
			return nil, fmt.Errorf("fetch %s page %d: %w", o.resource, page, err)
		}
		got := doc.Items()
		items = append(items, got...)
		if o.maxItems > 0 && len(items) >= o.maxItems {
			return items[:o.maxItems], nil
		}

		info := doc.PageInfo()
		if info == nil || len(got) == 0 {
			if info != nil {
				lastTotal = info.TotalCount
			}
			break
		}
		lastTotal = info.TotalCount
		if info.TotalPages == 0 || info.CurrentPage >= info.TotalPages {
			break
		}
		// A server that does not advance current-page must not loop forever.
		page = max(info.CurrentPage+1, page+1)
	}

	if lastTotal >= 0 && lastTotal != len(items) {
		c.logger.Warn("listing count differs from reported total",
			"resource", o.resource, "total_count", lastTotal, "fetched", len(items))
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
