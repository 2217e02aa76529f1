// Package pagination cuts ordered collections into fixed-size pages.
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// PerPage is the page size used by every list view.
const PerPage = 10

// Window describes one page of a collection of Count items. Number is always a
// valid page: an integer outside [1, NumPages] lands on the last page.
type Window struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	Count       int  `json:"count"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// ParsePage reads a 1-based page number; anything that is not an integer means page 1.
// Integers too large for int saturate, so they stay out of range.
func ParsePage(raw string) int {
	n, ok := parse(raw)
	if !ok {
		return 1
	}
	return n
}

func parse(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(raw, "-") {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return n, err == nil
}

// NumPages is ceil(count/PerPage), with an empty collection still having one page.
func NumPages(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + PerPage - 1) / PerPage
}

func NewWindow(count int, rawPage string) Window {
	if count < 0 {
		count = 0
	}
	pages := NumPages(count)
	n, ok := parse(rawPage)
	switch {
	case !ok:
		n = 1
	case n < 1 || n > pages:
		n = pages
	}
	return Window{
		Number:      n,
		NumPages:    pages,
		Count:       count,
		HasPrevious: n > 1,
		HasNext:     n < pages,
	}
}

func (w Window) Offset() int {
	return (w.Number - 1) * PerPage
}

func (w Window) Limit() int {
	return PerPage
}

// Page is a window plus the items that fall in it.
type Page[T any] struct {
	Items []T `json:"items"`
	Window
}

// NewPage wraps items that were already fetched for w. A nil slice becomes empty
// so rendered pages always carry a list.
func NewPage[T any](items []T, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Window: w}
}

// Slice pages an in-memory ordered collection.
func Slice[T any](items []T, rawPage string) Page[T] {
	w := NewWindow(len(items), rawPage)
	start := w.Offset()
	end := start + PerPage
	if end > len(items) {
		end = len(items)
	}
	if start > end {
		start = end
	}
	return NewPage(items[start:end], w)
}
