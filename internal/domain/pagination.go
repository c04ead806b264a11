package domain

// PaginationParams holds offset-based pagination parameters for list queries.
// Page is 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit returns the page size, at least 1.
func (p PaginationParams) Limit() int {
	return max(p.PageSize, 1)
}

// Offset returns the 0-based row offset of the first item on the page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
