// Package paging parses the page/limit query convention and builds the
// pagination fields of list responses.
//
// Requests carry ?page=N&limit=M. Feed-style responses report hasMore via
// look-ahead (fetch limit+1); listing responses report total/pages.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is used when the limit parameter is absent or invalid.
const DefaultLimit = 20

// MaxLimit caps the limit parameter.
const MaxLimit = 100

// Page holds the parsed pagination window.
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents to skip for this window.
func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// LimitPlusOne returns Limit+1 for look-ahead hasMore detection.
func (p Page) LimitPlusOne() int64 {
	return int64(p.Limit + 1)
}

// Parse reads page and limit from the request query, applying defaults
// and the MaxLimit cap.
func Parse(r *http.Request) Page {
	p := Page{Page: 1, Limit: DefaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = v
		if p.Limit > MaxLimit {
			p.Limit = MaxLimit
		}
	}
	return p
}

// Feed builds the page/hasMore fields for a look-ahead result set.
// rows must have been fetched with LimitPlusOne; Trim reports whether a
// row beyond the window came back.
func (p Page) Feed(fetched int) (hasMore bool, shown int) {
	if fetched > p.Limit {
		return true, p.Limit
	}
	return false, fetched
}

// Pages returns the total page count for a listing with total rows.
func (p Page) Pages(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
