package ops

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/jsonfile"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path     string // optional, default: <data dir>/exports/snippets-<timestamp>.json
	Category string // optional filter by category (sanitized)
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes snippets in the sample format (title, content, category,
// labels, exclusive), so the file can seed a new data directory or be
// imported elsewhere. The file is replaced atomically. Paths are checked by
// ValidatePath against cfg.
func Export(s *session.Session, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	var (
		samples []snippet.Sample
		dataDir string
	)
	category := snippet.Sanitize(input.Category)
	if err := s.Do(func(r *repo.Repository) error {
		dataDir = r.Dir()
		views, err := r.LoadForPresentation()
		if err != nil {
			return err
		}
		samples = make([]snippet.Sample, 0, len(views))
		for _, v := range views {
			if category != "" && v.Category != category {
				continue
			}
			samples = append(samples, snippet.SampleFromView(v))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultExportPath(dataDir, now)
	}
	if err := ValidatePath(exportPath, PathCheckWrite, dataDir, cfg); err != nil {
		return nil, err
	}

	if err := jsonfile.Write(exportPath, samples); err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewStorage(fmt.Errorf("failed to write export: %w", err))
	}

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(samples),
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath generates the default export path.
func defaultExportPath(dataDir string, now time.Time) string {
	filename := fmt.Sprintf("snippets-%s.json", now.Format("2006-01-02T150405"))
	return filepath.Join(ExportsDir(dataDir), filename)
}
