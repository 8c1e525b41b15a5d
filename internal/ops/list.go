package ops

import (
	"github.com/hpungsan/snip/internal/filter"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Category string // optional exact category filter (sanitized)
	Label    string // optional label filter (sanitized)
	Limit    int    // default: 50, max: 500
	Offset   int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []snippet.View `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// List returns snippets in collection order with pagination.
func List(s *session.Session, input ListInput) (*ListOutput, error) {
	var criteria filter.Criteria
	if c := snippet.Sanitize(input.Category); c != "" {
		criteria.Categories = []string{c}
	}
	if l := snippet.Sanitize(input.Label); l != "" {
		criteria.Labels = []string{l}
	}

	var views []snippet.View
	if err := s.Do(func(r *repo.Repository) error {
		var err error
		views, err = r.LoadForPresentation()
		return err
	}); err != nil {
		return nil, err
	}

	if !criteria.IsEmpty() {
		matched := filter.Match(views, criteria)
		views = keep(views, matched)
	}

	items, page := paginate(views, input.Limit, input.Offset)
	return &ListOutput{Items: items, Pagination: page}, nil
}

// keep returns the views whose id is in ids, in order.
func keep(views []snippet.View, ids map[string]struct{}) []snippet.View {
	out := make([]snippet.View, 0, len(ids))
	for _, v := range views {
		if _, ok := ids[v.ID]; ok {
			out = append(out, v)
		}
	}
	return out
}
