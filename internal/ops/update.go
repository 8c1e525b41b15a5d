package ops

import (
	"strings"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// UpdateInput contains parameters for the Update operation.
// Nil fields keep their current value.
type UpdateInput struct {
	ID         string // required
	Name       *string
	Category   *string
	PromptText *string
	Labels     *[]string
	Exclusive  *bool
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID      string       `json:"id"`
	Snippet snippet.View `json:"snippet"`
}

// Update replaces the fields given in input and keeps the rest. A category or
// label set that is not given stays bound to its current records.
func Update(s *session.Session, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Name == nil && input.Category == nil && input.PromptText == nil &&
		input.Labels == nil && input.Exclusive == nil {
		return nil, errors.NewInvalidRequest("no fields to update")
	}

	var current snippet.View
	if err := s.Do(func(r *repo.Repository) error {
		var err error
		current, err = r.GetView(id)
		return err
	}); err != nil {
		return nil, err
	}

	in := snippet.Input{
		ID:         id,
		Name:       current.Name,
		Category:   current.Category,
		PromptText: current.PromptText,
		Labels:     current.Labels,
		Exclusive:  current.Exclusive,
	}
	if input.Name != nil {
		in.Name = *input.Name
	}
	if input.Category != nil {
		in.Category = *input.Category
	}
	if input.PromptText != nil {
		in.PromptText = *input.PromptText
	}
	if input.Labels != nil {
		in.Labels = *input.Labels
	}
	if input.Exclusive != nil {
		in.Exclusive = *input.Exclusive
	}

	keep := repo.Keep{Category: input.Category == nil, Labels: input.Labels == nil}
	if err := s.UpdateKeeping(in, keep); err != nil {
		return nil, err
	}

	out, err := Fetch(s, FetchInput{ID: id})
	if err != nil {
		return nil, err
	}
	return &UpdateOutput{ID: id, Snippet: out.View}, nil
}
