// Package pagination presents an ordered list in fixed-size pages.
package pagination

import (
	"errors"
	"fmt"
)

// DefaultPageSize is used when nothing else is configured.
const DefaultPageSize = 10

var ErrInvalidPageSize = errors.New("page size must be positive")

// TotalPages returns ceil(n/size), zero for an empty list.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Slice returns the items of a 1-based page. Page 0 is treated as page 1 and
// a page past the end is empty.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 {
		return []T{}
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// Paginator tracks the current page over a list that can be replaced when a
// query is re-run.
type Paginator[T any] struct {
	size    int
	current int
	items   []T
}

func New[T any](size int) (*Paginator[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	return &Paginator[T]{size: size, current: 1}, nil
}

// SetItems replaces the list and keeps the current page. Call Clamp when the
// list may have shrunk.
func (p *Paginator[T]) SetItems(items []T) {
	p.items = items
}

func (p *Paginator[T]) Items() []T      { return p.items }
func (p *Paginator[T]) PageSize() int   { return p.size }
func (p *Paginator[T]) Current() int    { return p.current }
func (p *Paginator[T]) TotalPages() int { return TotalPages(len(p.items), p.size) }

// Page returns the items of the current page.
func (p *Paginator[T]) Page() []T {
	return Slice(p.items, p.current, p.size)
}

func (p *Paginator[T]) HasNext() bool { return p.current < p.TotalPages() }
func (p *Paginator[T]) HasPrev() bool { return p.current > 1 }

// Next moves forward one page and reports whether it moved.
func (p *Paginator[T]) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.current++
	return true
}

// Prev moves back one page and reports whether it moved.
func (p *Paginator[T]) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.current--
	return true
}

// GoTo jumps to page n, limited to [1, TotalPages].
func (p *Paginator[T]) GoTo(n int) {
	p.current = max(1, min(n, p.TotalPages()))
}

// OutOfRange reports whether the current page lies past the last page of a
// non-empty list.
func (p *Paginator[T]) OutOfRange() bool {
	total := p.TotalPages()
	return total > 0 && p.current > total
}

// Clamp moves the current page back to the last page after the list shrank.
// With no pages at all the current page is left alone.
func (p *Paginator[T]) Clamp() {
	if total := p.TotalPages(); total > 0 && p.current > total {
		p.current = total
	}
}
