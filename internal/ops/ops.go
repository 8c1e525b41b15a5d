// Package ops implements the operations shared by the CLI and the MCP
// server. Each operation takes an Input struct and returns an Output struct
// ready to be rendered as JSON.
package ops

import (
	"github.com/hpungsan/snip/internal/snippet"
)

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate applies limit and offset to items. A limit of zero means the default.
func paginate(items []snippet.View, limit, offset int) ([]snippet.View, Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)

	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)

	page := items[start:end]
	if page == nil {
		page = []snippet.View{}
	}
	return page, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}
