package repo

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/jsonfile"
	"github.com/hpungsan/snip/internal/snippet"
)

// seed populates a first-run data directory. It does nothing once
// snippets.json exists. Samples come from sample_snippets.json in the data
// directory, or the bundled set when that file is absent, and are replayed
// through Add so they get real metadata records.
func (r *Repository) seed() error {
	if jsonfile.Exists(r.path) {
		return nil
	}
	if r.opts.SkipSamples {
		r.logger.Debug("sample seeding skipped")
		return nil
	}

	samples, source, err := r.loadSamples()
	if err != nil {
		return err
	}

	if err := r.writeFile(r.path, []snippet.Snippet{}); err != nil {
		return errors.NewStorage(fmt.Errorf("initialize snippets: %w", err))
	}

	added := 0
	for i, s := range samples {
		if _, err := r.Add(s.Input()); err != nil {
			r.logger.Warn("sample skipped", zap.Int("index", i), zap.String("title", s.Title), zap.Error(err))
			continue
		}
		added++
	}
	r.logger.Info("seeded sample snippets", zap.String("source", source), zap.Int("count", added))
	return nil
}

func (r *Repository) loadSamples() ([]snippet.Sample, string, error) {
	path := filepath.Join(r.dir, SampleFile)
	var samples []snippet.Sample
	err := jsonfile.Read(path, &samples)
	switch {
	case err == nil:
		return samples, path, nil
	case errors.Is(err, errors.ErrFileNotFound):
	default:
		return nil, "", errors.NewStorage(fmt.Errorf("load samples: %w", err))
	}

	if err := json.Unmarshal(bundledSamples, &samples); err != nil {
		return nil, "", errors.NewInternal(fmt.Errorf("decode bundled samples: %w", err))
	}
	return samples, "bundled", nil
}

// ReadSamples reads a sample-format file, such as one written by an export.
func ReadSamples(path string) ([]snippet.Sample, error) {
	var samples []snippet.Sample
	if err := jsonfile.Read(path, &samples); err != nil {
		if errors.Is(err, errors.ErrFileNotFound) {
			return nil, err
		}
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid sample file: %v", err))
	}
	return samples, nil
}
