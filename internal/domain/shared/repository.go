package shared

import (
	"context"

	"github.com/google/uuid"
)

// Filter holds common listing parameters for repository queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// Limit returns the page size, defaulting to 20
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	return f.PageSize
}

// SequenceGenerator hands out monotonically increasing sequence numbers for
// document numbering. Scope identifies the document family (for example
// "sale" or "invoice:<shopID>") and period the numbering window (a day for
// sales, a year for invoices). Implementations must be race-free under
// concurrent calls for the same (tenant, scope, period) key.
type SequenceGenerator interface {
	Next(ctx context.Context, tenantID uuid.UUID, scope, period string) (int64, error)
}
