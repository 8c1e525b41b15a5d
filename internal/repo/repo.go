// Package repo persists snippets in snippets.json and keeps the metadata
// usage counters in step with every create, update and delete.
package repo

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/jsonfile"
	"github.com/hpungsan/snip/internal/metadata"
	"github.com/hpungsan/snip/internal/snippet"
)

const (
	// SnippetsFile holds the live collection.
	SnippetsFile = "snippets.json"

	// SampleFile is the optional first-run seed in the data directory.
	SampleFile = "sample_snippets.json"
)

//go:embed sample_snippets.json
var bundledSamples []byte

// Options tunes a Repository.
type Options struct {
	// MaxPromptChars limits prompt text size. Zero disables the check.
	MaxPromptChars int

	// SkipSamples disables first-run seeding.
	SkipSamples bool
}

// Repository is the snippet collection in a data directory. Every mutation
// reads the whole file, changes it in memory and writes it back.
//
// Repository is not safe for concurrent use.
type Repository struct {
	dir    string
	path   string
	meta   *metadata.Store
	opts   Options
	logger *zap.Logger

	newID     func() string
	writeFile func(path string, v any) error
}

// New returns a Repository over dataDir using meta for category and label
// records. It does not touch the filesystem; see Open.
func New(dataDir string, meta *metadata.Store, opts Options, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		dir:       dataDir,
		path:      filepath.Join(dataDir, SnippetsFile),
		meta:      meta,
		opts:      opts,
		logger:    logger,
		newID:     uuid.NewString,
		writeFile: jsonfile.Write,
	}
}

// Open prepares dataDir for use: it creates the directory, seeds a first-run
// collection, then heals orphan references and recounts usage.
func Open(dataDir string, cfg *config.Config, logger *zap.Logger) (*Repository, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.NewStorage(fmt.Errorf("create data directory: %w", err))
	}

	meta := metadata.New(filepath.Join(dataDir, metadata.FileName), metadata.Options{
		Strict:           cfg.StrictPersistence,
		DefaultSortOrder: cfg.DefaultSortOrder,
	}, logger.Named("metadata"))

	r := New(dataDir, meta, Options{
		MaxPromptChars: cfg.MaxPromptChars,
		SkipSamples:    cfg.SkipSamples,
	}, logger.Named("repo"))

	if err := r.seed(); err != nil {
		return nil, err
	}
	snippets, err := r.Load()
	if err != nil {
		return nil, err
	}
	if err := meta.ValidateAndRefresh(snippets); err != nil {
		return nil, err
	}
	r.logger.Debug("repository opened", zap.String("dir", dataDir), zap.Int("snippets", len(snippets)))
	return r, nil
}

// Dir returns the data directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Metadata returns the category and label store.
func (r *Repository) Metadata() *metadata.Store {
	return r.meta
}

// Load returns the stored collection in file order. A missing file is an
// empty collection.
func (r *Repository) Load() ([]snippet.Snippet, error) {
	var snippets []snippet.Snippet
	if err := jsonfile.Read(r.path, &snippets); err != nil {
		if errors.Is(err, errors.ErrFileNotFound) {
			return []snippet.Snippet{}, nil
		}
		return nil, errors.NewStorage(fmt.Errorf("load snippets: %w", err))
	}
	if snippets == nil {
		snippets = []snippet.Snippet{}
	}
	return snippets, nil
}

// LoadForPresentation returns the collection with category and label ids
// resolved to names.
func (r *Repository) LoadForPresentation() ([]snippet.View, error) {
	snippets, err := r.Load()
	if err != nil {
		return nil, err
	}
	views := make([]snippet.View, 0, len(snippets))
	for _, sn := range snippets {
		views = append(views, r.ToView(sn))
	}
	return views, nil
}

// ToView resolves a stored snippet to its presentation form.
func (r *Repository) ToView(sn snippet.Snippet) snippet.View {
	return snippet.View{
		ID:         sn.ID,
		Name:       sn.Name,
		Category:   r.meta.CategoryName(sn.CategoryID),
		Labels:     r.meta.LabelNames(sn.LabelIDs),
		PromptText: sn.PromptText,
		Exclusive:  sn.Exclusive,
	}
}

// Get returns the stored snippet with this id.
func (r *Repository) Get(id string) (snippet.Snippet, error) {
	snippets, err := r.Load()
	if err != nil {
		return snippet.Snippet{}, err
	}
	if i := indexOf(snippets, id); i >= 0 {
		return snippets[i], nil
	}
	return snippet.Snippet{}, errors.NewNotFound(id)
}

// GetView returns the presentation form of the snippet with this id.
func (r *Repository) GetView(id string) (snippet.View, error) {
	sn, err := r.Get(id)
	if err != nil {
		return snippet.View{}, err
	}
	return r.ToView(sn), nil
}

// binding is validated input ready to be bound to metadata.
type binding struct {
	name       string
	category   string
	categoryID string
	labels     []string
	labelIDs   []string
	promptText string
	exclusive  bool
}

// Keep selects bindings an update carries over by id instead of resolving
// the input names again. A snippet healed onto a placeholder record keeps it.
type Keep struct {
	Category bool
	Labels   bool
}

// prepare normalizes, validates and sanitizes input without side effects.
func (r *Repository) prepare(in snippet.Input) (snippet.Input, binding, error) {
	in = in.Normalize()
	if err := in.Validate(r.opts.MaxPromptChars); err != nil {
		return in, binding{}, err
	}
	category, err := snippet.SanitizeCategory(in.Category)
	if err != nil {
		return in, binding{}, err
	}
	labels, err := snippet.SanitizeLabels(in.Labels)
	if err != nil {
		return in, binding{}, err
	}
	return in, binding{
		name:       in.Name,
		category:   category,
		labels:     labels,
		promptText: in.PromptText,
		exclusive:  in.Exclusive,
	}, nil
}

// newSnippet ensures the metadata records exist and counts one more use of
// each before returning the stored form.
func (r *Repository) newSnippet(id string, b binding) (snippet.Snippet, error) {
	categoryID, labelIDs, err := r.meta.Bind(metadata.Refs{
		Category:   b.category,
		CategoryID: b.categoryID,
		Labels:     b.labels,
		LabelIDs:   b.labelIDs,
	})
	if err != nil {
		return snippet.Snippet{}, err
	}
	return snippet.Snippet{
		ID:         id,
		Name:       b.name,
		CategoryID: categoryID,
		PromptText: b.promptText,
		LabelIDs:   labelIDs,
		Exclusive:  b.exclusive,
	}, nil
}

// retire gives back the usage counts sn holds.
func (r *Repository) retire(sn snippet.Snippet) error {
	return r.meta.Release(sn.CategoryID, sn.LabelIDs)
}

// Add validates input, binds its category and labels and appends the new
// snippet. It returns the new id.
func (r *Repository) Add(in snippet.Input) (string, error) {
	_, b, err := r.prepare(in)
	if err != nil {
		return "", err
	}
	snippets, err := r.Load()
	if err != nil {
		return "", err
	}

	sn, err := r.newSnippet(r.newID(), b)
	if err != nil {
		r.heal()
		return "", err
	}
	snippets = append(snippets, sn)
	if err := r.save(snippets); err != nil {
		return "", err
	}

	r.logger.Info("snippet added", zap.String("id", sn.ID), zap.String("name", sn.Name))
	return sn.ID, nil
}

// Update replaces the snippet with in.ID. The old category and label
// bindings are retired and the new ones bound; the id is kept.
func (r *Repository) Update(in snippet.Input) error {
	return r.UpdateKeeping(in, Keep{})
}

// UpdateKeeping is Update with the bindings selected by keep carried over
// from the stored snippet.
func (r *Repository) UpdateKeeping(in snippet.Input, keep Keep) error {
	in, b, err := r.prepare(in)
	if err != nil {
		return err
	}
	if in.ID == "" {
		return errors.NewMissingFields([]string{"id"})
	}

	snippets, err := r.Load()
	if err != nil {
		return err
	}
	i := indexOf(snippets, in.ID)
	if i < 0 {
		return errors.NewNotFound(in.ID)
	}

	old := snippets[i]
	if keep.Category {
		b.categoryID = old.CategoryID
	}
	if keep.Labels {
		b.labelIDs = append([]string{}, old.LabelIDs...)
		b.labels = b.labels[:0]
		for _, name := range r.meta.LabelNames(old.LabelIDs) {
			b.labels = append(b.labels, snippet.Sanitize(name))
		}
	}

	if err := r.retire(old); err != nil {
		r.heal()
		return err
	}
	sn, err := r.newSnippet(in.ID, b)
	if err != nil {
		r.heal()
		return err
	}
	snippets[i] = sn
	if err := r.save(snippets); err != nil {
		return err
	}

	r.logger.Info("snippet updated", zap.String("id", sn.ID), zap.String("name", sn.Name))
	return nil
}

// DeleteMany removes every snippet whose id is listed, retiring its
// bindings. Unknown ids are skipped. It returns how many were removed.
func (r *Repository) DeleteMany(ids []string) (int, error) {
	snippets, err := r.Load()
	if err != nil {
		return 0, err
	}

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	kept := make([]snippet.Snippet, 0, len(snippets))
	deleted := 0
	for _, sn := range snippets {
		if !remove[sn.ID] {
			kept = append(kept, sn)
			continue
		}
		if err := r.retire(sn); err != nil {
			r.heal()
			return 0, err
		}
		deleted++
	}
	if deleted == 0 {
		return 0, nil
	}

	if err := r.save(kept); err != nil {
		return 0, err
	}
	r.logger.Info("snippets deleted", zap.Int("count", deleted))
	return deleted, nil
}

// save writes the collection. On failure the metadata counters are rebuilt
// from what is actually on disk.
func (r *Repository) save(snippets []snippet.Snippet) error {
	if err := r.writeFile(r.path, snippets); err != nil {
		r.logger.Error("snippet write failed", zap.String("path", r.path), zap.Error(err))
		r.heal()
		return errors.NewStorage(fmt.Errorf("write snippets: %w", err))
	}
	return nil
}

// heal recounts metadata usage from the persisted collection.
func (r *Repository) heal() {
	snippets, err := r.Load()
	if err != nil {
		r.logger.Error("cannot reload snippets to recount usage", zap.Error(err))
		return
	}
	if err := r.meta.RefreshUsageCounts(snippets); err != nil {
		r.logger.Error("usage recount failed", zap.Error(err))
	}
}

func indexOf(snippets []snippet.Snippet, id string) int {
	for i := range snippets {
		if snippets[i].ID == id {
			return i
		}
	}
	return -1
}
