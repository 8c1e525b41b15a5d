package ops

import (
	"strings"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/session"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	IDs []string // required; unknown ids are skipped
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// Delete removes snippets by id.
func Delete(s *session.Session, input DeleteInput) (*DeleteOutput, error) {
	seen := make(map[string]bool, len(input.IDs))
	ids := make([]string, 0, len(input.IDs))
	for _, id := range input.IDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("ids is required and must not be empty")
	}

	n, err := s.Delete(ids)
	if err != nil {
		return nil, err
	}
	return &DeleteOutput{Deleted: n, Skipped: len(ids) - n}, nil
}
