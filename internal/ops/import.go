package ops

import (
	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required, sample-format .json file
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	IDs      []string      `json:"ids"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a record that could not be imported.
type ImportError struct {
	Index   int    `json:"index"`
	Title   string `json:"title,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import replays every record of a sample-format file through Add, so each
// gets a new id and real metadata bindings. Invalid records are skipped and
// reported. Paths are checked by ValidatePath against cfg.
func Import(s *session.Session, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	dataDir, err := dataDirOf(s)
	if err != nil {
		return nil, err
	}
	if err := ValidatePath(input.Path, PathCheckRead, dataDir, cfg); err != nil {
		return nil, err
	}
	samples, err := repo.ReadSamples(input.Path)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{IDs: []string{}, Errors: []ImportError{}}
	for i, sample := range samples {
		id, err := s.Add(sample.Input())
		if err != nil {
			code := string(errors.ErrInternal)
			if se, ok := errors.As(err); ok {
				code = string(se.Code)
			}
			out.Errors = append(out.Errors, ImportError{
				Index:   i,
				Title:   sample.Title,
				Code:    code,
				Message: err.Error(),
			})
			out.Skipped++
			if errors.Is(err, errors.ErrStorage) {
				return out, err
			}
			continue
		}
		out.IDs = append(out.IDs, id)
		out.Imported++
	}
	return out, nil
}
