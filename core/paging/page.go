package paging

import "context"

// MaxPageSize is the largest page the API serves.
const MaxPageSize = 200

// Page is the payload of paginated list endpoints.
type Page[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Data  []T `json:"data"`
}

// Paginator returns a Paginator over the whole collection, positioned on this page.
func (p Page[T]) Paginator() *Paginator {
	pg := New(p.Total, p.Limit)
	pg.JumpTo(p.Page)
	return pg
}

// NormalizeParams clamps requested page/limit like the API does: page >= 1, limit in [1, MaxPageSize].
func NormalizeParams(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Slice returns the requested page of items, for servers holding the full collection in memory.
// A page past the end has no data.
func Slice[T any](items []T, page, limit int) Page[T] {
	page, limit = NormalizeParams(page, limit)
	out := make([]T, 0, limit)
	if start := (page - 1) * limit; start < len(items) {
		end := start + limit
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end]...)
	}
	return Page[T]{Total: len(items), Page: page, Limit: limit, Data: out}
}

// PageFunc fetches one page of a collection.
type PageFunc[T any] func(ctx context.Context, page, limit int) (Page[T], error)

// Collect walks the pages of a collection, limit items at a time, until every item is read.
// limit <= 0 means MaxPageSize.
func Collect[T any](ctx context.Context, limit int, fetch PageFunc[T]) ([]T, error) {
	if limit <= 0 {
		limit = MaxPageSize
	}
	all := make([]T, 0)
	for page := 1; ; page++ {
		p, err := fetch(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Data...)
		if len(p.Data) == 0 || len(all) >= p.Total {
			return all, nil
		}
	}
}
