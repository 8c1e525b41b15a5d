package ops

import (
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Name       string   // required
	Category   string   // required, sanitized
	PromptText string   // required, must not contain ';'
	Labels     []string // optional, sanitized and de-duplicated
	Exclusive  bool
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	ID      string       `json:"id"`
	Snippet snippet.View `json:"snippet"`
}

// Add creates a snippet.
func Add(s *session.Session, input AddInput) (*AddOutput, error) {
	id, err := s.Add(snippet.Input{
		Name:       input.Name,
		Category:   input.Category,
		PromptText: input.PromptText,
		Labels:     input.Labels,
		Exclusive:  input.Exclusive,
	})
	if err != nil {
		return nil, err
	}
	return addOutput(s, id)
}

func addOutput(s *session.Session, id string) (*AddOutput, error) {
	out, err := Fetch(s, FetchInput{ID: id})
	if err != nil {
		return nil, err
	}
	return &AddOutput{ID: id, Snippet: out.View}, nil
}
