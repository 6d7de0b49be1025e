package core

// Result is the outcome of a single-document state change.
// Boolean operations only expose OK(); Err carries the cause when the store failed.
type Result struct {
	Affected int64
	Err      error
}

// OK reports whether exactly one document changed.
func (r Result) OK() bool {
	return r.Err == nil && r.Affected == 1
}

// Pagination
const PageSize = 5

// Page converts a 1-based page number to skip & limit values.
// Pages lower than 1 are treated as the first page.
func Page(page int) (skip, limit int) {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize, PageSize
}
