package ops

import (
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/filter"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query      string   // optional free text
	Categories []string // optional category bubbles
	Labels     []string // optional label bubbles
	Mode       string   // "AND" (default) or "OR"
	Limit      int      // default: 50, max: 500
	Offset     int      // default: 0
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items       []snippet.View `json:"items"`
	Description string         `json:"description"`
	Pagination  Pagination     `json:"pagination"`
}

// Search evaluates a filter against the whole collection. It does not
// change the session's own filter.
func Search(s *session.Session, input SearchInput) (*SearchOutput, error) {
	mode, err := filter.ParseMode(input.Mode)
	if err != nil {
		return nil, err
	}
	criteria := filter.Criteria{
		Categories: sanitizeAll(input.Categories),
		Labels:     sanitizeAll(input.Labels),
		Mode:       mode,
		Query:      input.Query,
	}
	if criteria.IsEmpty() {
		return nil, errors.NewInvalidRequest("query, categories or labels is required")
	}

	var views []snippet.View
	if err := s.Do(func(r *repo.Repository) error {
		var err error
		views, err = r.LoadForPresentation()
		return err
	}); err != nil {
		return nil, err
	}

	matched := keep(views, filter.Match(views, criteria))
	items, page := paginate(matched, input.Limit, input.Offset)
	return &SearchOutput{
		Items:       items,
		Description: filter.Describe(criteria),
		Pagination:  page,
	}, nil
}

func sanitizeAll(names []string) []string {
	var out []string
	for _, n := range names {
		if s := snippet.Sanitize(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}
