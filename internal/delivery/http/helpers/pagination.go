package helpers

import (
	"net/http"
	"net/url"
	"strconv"

	"volunteerhub/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// positiveQueryInt returns the named query value when it parses as an integer
// of at least 1, and fallback otherwise.
func positiveQueryInt(q url.Values, name string, fallback int) int {
	v, err := strconv.Atoi(q.Get(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// ParsePagination reads ?page= and ?page_size= for event listings. Bad values
// fall back to the defaults and page_size is capped at MaxPageSize.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.PaginationParams{
		Page:     positiveQueryInt(q, "page", DefaultPage),
		PageSize: min(positiveQueryInt(q, "page_size", DefaultPageSize), MaxPageSize),
	}
}

// PaginationMeta accompanies a page of events.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta describes the page params selected out of total events.
// TotalPages is 0 when the page size is not positive.
func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	meta := PaginationMeta{Page: params.Page, PageSize: params.PageSize, Total: total}
	if params.PageSize > 0 {
		meta.TotalPages = (total + params.PageSize - 1) / params.PageSize
	}
	return meta
}
