package ops

import (
	"github.com/hpungsan/snip/internal/metadata"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
)

// CategoriesOutput contains the result of the Categories operation.
type CategoriesOutput struct {
	Items []metadata.Category `json:"items"`
}

// Categories lists category records ordered by sort_order, then name.
func Categories(s *session.Session) (*CategoriesOutput, error) {
	var items []metadata.Category
	if err := s.Do(func(r *repo.Repository) error {
		items = r.Metadata().Categories()
		return nil
	}); err != nil {
		return nil, err
	}
	return &CategoriesOutput{Items: items}, nil
}

// LabelsOutput contains the result of the Labels operation.
type LabelsOutput struct {
	Items []metadata.Label `json:"items"`
}

// Labels lists label records ordered by name.
func Labels(s *session.Session) (*LabelsOutput, error) {
	var items []metadata.Label
	if err := s.Do(func(r *repo.Repository) error {
		items = r.Metadata().Labels()
		return nil
	}); err != nil {
		return nil, err
	}
	return &LabelsOutput{Items: items}, nil
}

// CleanupInput contains parameters for the Cleanup operation.
type CleanupInput struct {
	RemoveUnused bool // false only reports unused records
}

// Cleanup reports, and optionally removes, categories and labels no snippet uses.
func Cleanup(s *session.Session, input CleanupInput) (*metadata.CleanupStats, error) {
	var stats metadata.CleanupStats
	if err := s.Do(func(r *repo.Repository) error {
		var err error
		stats, err = r.Metadata().Cleanup(input.RemoveUnused)
		return err
	}); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RefreshInput contains parameters for the Refresh operation.
type RefreshInput struct {
	Reload bool // re-read metadata.json before recounting
}

// RefreshOutput contains the result of the Refresh operation.
type RefreshOutput struct {
	Snippets   int `json:"snippets"`
	Categories int `json:"categories"`
	Labels     int `json:"labels"`
}

// Refresh heals orphan references and recounts usage from snippets.json.
func Refresh(s *session.Session, input RefreshInput) (*RefreshOutput, error) {
	var out RefreshOutput
	if err := s.Do(func(r *repo.Repository) error {
		meta := r.Metadata()
		if input.Reload {
			meta.Reload()
		}
		snippets, err := r.Load()
		if err != nil {
			return err
		}
		if err := meta.ValidateAndRefresh(snippets); err != nil {
			return err
		}
		out = RefreshOutput{
			Snippets:   len(snippets),
			Categories: len(meta.Categories()),
			Labels:     len(meta.Labels()),
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &out, nil
}
