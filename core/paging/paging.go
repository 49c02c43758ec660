// Package paging computes page counts and page windows independently of the data source.
package paging

import "strconv"

// DefaultPageSize is used whenever a non-positive page size is given.
const DefaultPageSize = 10

// maxLinks is how many contiguous page numbers are shown before the ellipsis.
const maxLinks = 5

// Paginator tracks the current page over a collection of `total` items.
// The current page is always within [1, max(PageCount, 1)].
type Paginator struct {
	total    int
	pageSize int
	current  int
}

// New returns a Paginator positioned on the first page.
func New(total, pageSize int) *Paginator {
	if total < 0 {
		total = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{total: total, pageSize: pageSize, current: 1}
}

func (p *Paginator) Total() int    { return p.total }
func (p *Paginator) PageSize() int { return p.pageSize }
func (p *Paginator) Current() int  { return p.current }

// PageCount is ceil(total / pageSize).
func (p *Paginator) PageCount() int {
	return (p.total + p.pageSize - 1) / p.pageSize
}

func (p *Paginator) lastPage() int {
	if n := p.PageCount(); n > 1 {
		return n
	}
	return 1
}

// SetTotal updates the collection size and re-clamps the current page.
func (p *Paginator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.current = p.clamp(p.current)
}

func (p *Paginator) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if last := p.lastPage(); n > last {
		return last
	}
	return n
}

// Next moves to the following page, staying on the last one.
func (p *Paginator) Next() int {
	p.current = p.clamp(p.current + 1)
	return p.current
}

// Prev moves to the previous page, staying on the first one.
func (p *Paginator) Prev() int {
	p.current = p.clamp(p.current - 1)
	return p.current
}

// JumpTo moves to page n, clamped into range.
func (p *Paginator) JumpTo(n int) int {
	p.current = p.clamp(n)
	return p.current
}

func (p *Paginator) HasNext() bool { return p.current < p.lastPage() }
func (p *Paginator) HasPrev() bool { return p.current > 1 }

// Offset is the index of the first item of the current page.
func (p *Paginator) Offset() int {
	return (p.current - 1) * p.pageSize
}

// Bounds returns the [start, end) indexes of the current page.
func (p *Paginator) Bounds() (start, end int) {
	start = p.Offset()
	if start > p.total {
		start = p.total
	}
	end = start + p.pageSize
	if end > p.total {
		end = p.total
	}
	return start, end
}

// Window slices the current page out of items.
// items is expected to hold the whole collection (len(items) == Total()).
func Window[T any](p *Paginator, items []T) []T {
	start, end := p.Bounds()
	if end > len(items) {
		end = len(items)
	}
	if start > end {
		start = end
	}
	return items[start:end]
}

// Link is one entry of the page-number list. Ellipsis entries have Page == 0.
type Link struct {
	Page     int
	Current  bool
	Ellipsis bool
}

func (l Link) String() string {
	switch {
	case l.Ellipsis:
		return "…"
	case l.Current:
		return "[" + strconv.Itoa(l.Page) + "]"
	}
	return strconv.Itoa(l.Page)
}

// Links returns the page-number list: every page when PageCount <= 5,
// otherwise up to 5 contiguous numbers around the current page, an ellipsis, then the last page.
func (p *Paginator) Links() []Link {
	count := p.PageCount()
	if count <= 1 {
		return []Link{{Page: 1, Current: true}}
	}
	if count <= maxLinks {
		links := make([]Link, 0, count)
		for i := 1; i <= count; i++ {
			links = append(links, Link{Page: i, Current: i == p.current})
		}
		return links
	}

	start := p.current - maxLinks/2
	if start < 1 {
		start = 1
	}
	end := start + maxLinks - 1
	if end >= count {
		// the window reaches the last page, no ellipsis needed
		end = count
		start = count - maxLinks + 1
	}

	links := make([]Link, 0, maxLinks+2)
	for i := start; i <= end; i++ {
		links = append(links, Link{Page: i, Current: i == p.current})
	}
	if end < count {
		if end < count-1 {
			links = append(links, Link{Ellipsis: true})
		}
		links = append(links, Link{Page: count, Current: count == p.current})
	}
	return links
}
