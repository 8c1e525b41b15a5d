package ops

import (
	"strings"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/session"
)

// CloneSuffix is appended to a cloned snippet's name when none is given.
const CloneSuffix = " (Copy)"

// CloneInput contains parameters for the Clone operation.
type CloneInput struct {
	ID   string // required
	Name string // optional, default: "<name> (Copy)"
}

// Clone copies a snippet under a new id.
func Clone(s *session.Session, input CloneInput) (*AddOutput, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	src, err := Fetch(s, FetchInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = src.Name + CloneSuffix
	}

	return Add(s, AddInput{
		Name:       name,
		Category:   src.Category,
		PromptText: src.PromptText,
		Labels:     src.Labels,
		Exclusive:  src.Exclusive,
	})
}
