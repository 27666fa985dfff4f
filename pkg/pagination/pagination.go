package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params captures the page/per_page request inputs.
type Params struct {
	Page    int
	PerPage int
}

// FromQuery parses pagination inputs from a query string, clamping to
// sane bounds.
func FromQuery(values url.Values) Params {
	page, _ := strconv.Atoi(values.Get("page"))
	perPage, _ := strconv.Atoi(values.Get("per_page"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the row limit for the current page.
func (p Params) Limit() int {
	return p.PerPage
}

// Meta contains metadata for paginated listings.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta computes pagination metadata.
func NewMeta(params Params, total int) Meta {
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Meta{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
