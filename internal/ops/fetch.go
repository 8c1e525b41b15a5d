package ops

import (
	"strings"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string // required
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	snippet.View        // embedded (copy, not pointer)
	PromptChars  int    `json:"prompt_chars"`
	CategoryID   string `json:"category_id"`
}

// Fetch retrieves a snippet by id.
func Fetch(s *session.Session, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	var out *FetchOutput
	err := s.Do(func(r *repo.Repository) error {
		sn, err := r.Get(id)
		if err != nil {
			return err
		}
		out = &FetchOutput{
			View:        r.ToView(sn),
			PromptChars: snippet.CountChars(sn.PromptText),
			CategoryID:  sn.CategoryID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
