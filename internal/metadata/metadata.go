// Package metadata persists categories and labels as UUID-keyed records with
// usage counters in metadata.json.
package metadata

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/jsonfile"
	"github.com/hpungsan/snip/internal/snippet"
)

// FileName is the metadata file inside the data directory.
const FileName = "metadata.json"

// DefaultSortOrder is the sort_order of categories created without one.
const DefaultSortOrder = 5

// Placeholder names for records synthesized for orphan references.
const (
	UnknownCategoryName = "Unknown Category"
	UnknownLabelName    = "Unknown Label"
)

// Kind selects the record family a counter operation applies to.
type Kind string

const (
	KindCategory Kind = "categories"
	KindLabel    Kind = "labels"
)

// Category is a persisted category record. Field order is the key order
// written to metadata.json.
type Category struct {
	Name       string  `json:"name"`
	ID         string  `json:"id"`
	SortOrder  int     `json:"sort_order"`
	Color      *string `json:"color"`
	DtCreated  string  `json:"dt_created"`
	UsageCount int     `json:"usage_count"`
}

// Label is a persisted label record.
type Label struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	DtCreated  string `json:"dt_created"`
	UsageCount int    `json:"usage_count"`
}

type document struct {
	Categories categorySection `json:"categories"`
	Labels     labelSection    `json:"labels"`
}

type categorySection struct {
	Items map[string]*Category `json:"items"`
}

type labelSection struct {
	Items map[string]*Label `json:"items"`
}

func emptyDocument() *document {
	return &document{
		Categories: categorySection{Items: map[string]*Category{}},
		Labels:     labelSection{Items: map[string]*Label{}},
	}
}

// CleanupStats reports the outcome of Cleanup.
type CleanupStats struct {
	CategoriesRemoved int `json:"categories_removed"`
	LabelsRemoved     int `json:"labels_removed"`
	CategoriesUnused  int `json:"categories_unused"`
	LabelsUnused      int `json:"labels_unused"`
}

// Options tunes a Store.
type Options struct {
	// Strict returns write failures to the caller. Otherwise they are logged
	// and the in-memory cache stays the working copy.
	Strict bool

	// DefaultSortOrder is used by EnsureCategoryDefault. Zero means DefaultSortOrder.
	DefaultSortOrder int
}

// Store is the metadata cache backed by metadata.json. The file is read on
// first access and rewritten after every mutation.
//
// Store is not safe for concurrent use.
type Store struct {
	path             string
	strict           bool
	defaultSortOrder int
	logger           *zap.Logger

	doc   *document
	now   func() time.Time
	newID func() string
}

// New returns a Store for the file at path. Nothing is read until first use.
func New(path string, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	sortOrder := opts.DefaultSortOrder
	if sortOrder == 0 {
		sortOrder = DefaultSortOrder
	}
	return &Store{
		path:             path,
		strict:           opts.Strict,
		defaultSortOrder: sortOrder,
		logger:           logger,
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Reload drops the cache so the next access re-reads the file.
func (s *Store) Reload() {
	s.doc = nil
}

// load returns the cached document, reading the file on first use. A missing
// file is created empty.
func (s *Store) load() (*document, error) {
	if s.doc != nil {
		return s.doc, nil
	}

	doc := emptyDocument()
	err := jsonfile.Read(s.path, doc)
	switch {
	case err == nil:
		if doc.Categories.Items == nil {
			doc.Categories.Items = map[string]*Category{}
		}
		if doc.Labels.Items == nil {
			doc.Labels.Items = map[string]*Label{}
		}
		s.doc = doc
	case errors.Is(err, errors.ErrFileNotFound):
		s.doc = emptyDocument()
		if err := s.save(); err != nil {
			s.doc = nil
			return nil, err
		}
	default:
		return nil, errors.NewStorage(fmt.Errorf("load metadata: %w", err))
	}
	return s.doc, nil
}

// cached is load for read-only callers that cannot return an error.
func (s *Store) cached() *document {
	doc, err := s.load()
	if err != nil {
		s.logger.Warn("metadata unavailable", zap.String("path", s.path), zap.Error(err))
		return emptyDocument()
	}
	return doc
}

// save writes the cache to disk.
func (s *Store) save() error {
	if err := jsonfile.Write(s.path, s.doc); err != nil {
		if s.strict {
			return errors.NewStorage(fmt.Errorf("write metadata: %w", err))
		}
		s.logger.Warn("metadata write failed; continuing with in-memory copy",
			zap.String("path", s.path), zap.Error(err))
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// EnsureCategory returns the id of the category with exactly this name,
// creating it with a zero usage count if absent.
func (s *Store) EnsureCategory(name string, sortOrder int, color *string) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	id, created := s.ensureCategory(doc, name, sortOrder, color)
	if created {
		if err := s.save(); err != nil {
			return "", err
		}
	}
	return id, nil
}

// EnsureCategoryDefault is EnsureCategory with the default sort order and no color.
func (s *Store) EnsureCategoryDefault(name string) (string, error) {
	return s.EnsureCategory(name, s.defaultSortOrder, nil)
}

func (s *Store) ensureCategory(doc *document, name string, sortOrder int, color *string) (string, bool) {
	if c := findCategory(doc, name); c != nil {
		return c.ID, false
	}
	id := s.newID()
	doc.Categories.Items[id] = &Category{
		Name:      name,
		ID:        id,
		SortOrder: sortOrder,
		Color:     color,
		DtCreated: s.timestamp(),
	}
	s.logger.Debug("category created", zap.String("name", name), zap.String("id", id))
	return id, true
}

// EnsureLabel returns the id of the label with exactly this name, creating it
// if absent.
func (s *Store) EnsureLabel(name string) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	id, created := s.ensureLabel(doc, name)
	if created {
		if err := s.save(); err != nil {
			return "", err
		}
	}
	return id, nil
}

// EnsureLabels ensures every name, returning one id per input in input order.
// Duplicate names yield duplicate ids.
func (s *Store) EnsureLabels(names []string) ([]string, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(names))
	dirty := false
	for _, name := range names {
		id, created := s.ensureLabel(doc, name)
		dirty = dirty || created
		ids = append(ids, id)
	}
	if dirty {
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *Store) ensureLabel(doc *document, name string) (string, bool) {
	if l := findLabel(doc, name); l != nil {
		return l.ID, false
	}
	id := s.newID()
	doc.Labels.Items[id] = &Label{
		Name:      name,
		ID:        id,
		DtCreated: s.timestamp(),
	}
	s.logger.Debug("label created", zap.String("name", name), zap.String("id", id))
	return id, true
}

// Increment adds one to the usage count of the record. Unknown ids are ignored.
func (s *Store) Increment(kind Kind, id string) error {
	return s.adjust(kind, id, 1)
}

// Decrement subtracts one from the usage count of the record, flooring at
// zero. Unknown ids are ignored.
func (s *Store) Decrement(kind Kind, id string) error {
	return s.adjust(kind, id, -1)
}

func (s *Store) adjust(kind Kind, id string, delta int) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if !adjustCount(doc, kind, id, delta) {
		return nil
	}
	return s.save()
}

func adjustCount(doc *document, kind Kind, id string, delta int) bool {
	var count *int
	switch kind {
	case KindCategory:
		if c, ok := doc.Categories.Items[id]; ok {
			count = &c.UsageCount
		}
	case KindLabel:
		if l, ok := doc.Labels.Items[id]; ok {
			count = &l.UsageCount
		}
	}
	if count == nil {
		return false
	}
	*count = max(0, *count+delta)
	return true
}

// Refs names the category and labels a snippet binds. A CategoryID that has
// a record is used as it is instead of resolving Category; non-nil LabelIDs
// likewise replace Labels.
type Refs struct {
	Category   string
	CategoryID string
	Labels     []string
	LabelIDs   []string
}

// Bind ensures the category and labels exist and increments each usage count
// once per reference, with a single write. It returns the resolved ids.
func (s *Store) Bind(refs Refs) (string, []string, error) {
	doc, err := s.load()
	if err != nil {
		return "", nil, err
	}

	categoryID := refs.CategoryID
	if _, ok := doc.Categories.Items[categoryID]; !ok {
		categoryID, _ = s.ensureCategory(doc, refs.Category, s.defaultSortOrder, nil)
	}

	var labelIDs []string
	if refs.LabelIDs != nil {
		labelIDs = make([]string, 0, len(refs.LabelIDs))
		for i, id := range refs.LabelIDs {
			if _, ok := doc.Labels.Items[id]; !ok {
				if i >= len(refs.Labels) {
					continue
				}
				id, _ = s.ensureLabel(doc, refs.Labels[i])
			}
			labelIDs = append(labelIDs, id)
		}
	} else {
		labelIDs = make([]string, 0, len(refs.Labels))
		for _, name := range refs.Labels {
			id, _ := s.ensureLabel(doc, name)
			labelIDs = append(labelIDs, id)
		}
	}

	adjustCount(doc, KindCategory, categoryID, 1)
	for _, id := range labelIDs {
		adjustCount(doc, KindLabel, id, 1)
	}
	if err := s.save(); err != nil {
		return "", nil, err
	}
	return categoryID, labelIDs, nil
}

// Release decrements the usage counts a snippet holds, with a single write.
func (s *Store) Release(categoryID string, labelIDs []string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	dirty := adjustCount(doc, KindCategory, categoryID, -1)
	for _, id := range labelIDs {
		if adjustCount(doc, KindLabel, id, -1) {
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	return s.save()
}

// ValidateReferences synthesizes placeholder records, with the referenced
// ids and zero usage, for every category or label id the snippets reference
// that has no record. The file is written once if anything was created.
func (s *Store) ValidateReferences(snippets []snippet.Snippet) error {
	doc, err := s.load()
	if err != nil {
		return err
	}

	var orphanCategories, orphanLabels int
	for _, sn := range snippets {
		if id := sn.CategoryID; id != "" {
			if _, ok := doc.Categories.Items[id]; !ok {
				doc.Categories.Items[id] = &Category{
					Name:      UnknownCategoryName,
					ID:        id,
					SortOrder: DefaultSortOrder,
					DtCreated: s.timestamp(),
				}
				orphanCategories++
				s.logger.Warn("orphan category reference healed",
					zap.String("category_id", id), zap.String("snippet_id", sn.ID))
			}
		}
		for _, id := range sn.LabelIDs {
			if id == "" {
				continue
			}
			if _, ok := doc.Labels.Items[id]; !ok {
				doc.Labels.Items[id] = &Label{
					Name:      UnknownLabelName,
					ID:        id,
					DtCreated: s.timestamp(),
				}
				orphanLabels++
				s.logger.Warn("orphan label reference healed",
					zap.String("label_id", id), zap.String("snippet_id", sn.ID))
			}
		}
	}

	if orphanCategories == 0 && orphanLabels == 0 {
		s.logger.Debug("metadata references valid")
		return nil
	}
	s.logger.Info("placeholder metadata created",
		zap.Int("categories", orphanCategories), zap.Int("labels", orphanLabels))
	return s.save()
}

// RefreshUsageCounts resets every usage count and recounts references from
// the snippets. References to unknown ids are not counted.
func (s *Store) RefreshUsageCounts(snippets []snippet.Snippet) error {
	doc, err := s.load()
	if err != nil {
		return err
	}

	for _, c := range doc.Categories.Items {
		c.UsageCount = 0
	}
	for _, l := range doc.Labels.Items {
		l.UsageCount = 0
	}
	for _, sn := range snippets {
		adjustCount(doc, KindCategory, sn.CategoryID, 1)
		for _, id := range sn.LabelIDs {
			adjustCount(doc, KindLabel, id, 1)
		}
	}

	if err := s.save(); err != nil {
		return err
	}

	var usedCategories, usedLabels int
	for _, c := range doc.Categories.Items {
		if c.UsageCount > 0 {
			usedCategories++
		}
	}
	for _, l := range doc.Labels.Items {
		if l.UsageCount > 0 {
			usedLabels++
		}
	}
	s.logger.Info("usage counts refreshed",
		zap.Int("categories_used", usedCategories),
		zap.Int("categories_total", len(doc.Categories.Items)),
		zap.Int("labels_used", usedLabels),
		zap.Int("labels_total", len(doc.Labels.Items)))
	return nil
}

// ValidateAndRefresh heals orphan references and then recounts usage.
// Run it once at startup before anything is displayed.
func (s *Store) ValidateAndRefresh(snippets []snippet.Snippet) error {
	if err := s.ValidateReferences(snippets); err != nil {
		return err
	}
	return s.RefreshUsageCounts(snippets)
}

// Cleanup reports unused records and, when removeUnused is set, deletes them.
func (s *Store) Cleanup(removeUnused bool) (CleanupStats, error) {
	doc, err := s.load()
	if err != nil {
		return CleanupStats{}, err
	}

	var stats CleanupStats
	if removeUnused {
		for id, c := range doc.Categories.Items {
			if c.UsageCount == 0 {
				delete(doc.Categories.Items, id)
				stats.CategoriesRemoved++
			}
		}
		for id, l := range doc.Labels.Items {
			if l.UsageCount == 0 {
				delete(doc.Labels.Items, id)
				stats.LabelsRemoved++
			}
		}
		if stats.CategoriesRemoved > 0 || stats.LabelsRemoved > 0 {
			if err := s.save(); err != nil {
				return CleanupStats{}, err
			}
			s.logger.Info("unused metadata removed",
				zap.Int("categories", stats.CategoriesRemoved), zap.Int("labels", stats.LabelsRemoved))
		}
	}

	for _, c := range doc.Categories.Items {
		if c.UsageCount == 0 {
			stats.CategoriesUnused++
		}
	}
	for _, l := range doc.Labels.Items {
		if l.UsageCount == 0 {
			stats.LabelsUnused++
		}
	}
	return stats, nil
}

func findCategory(doc *document, name string) *Category {
	for _, c := range doc.Categories.Items {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func findLabel(doc *document, name string) *Label {
	for _, l := range doc.Labels.Items {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Category returns a copy of the category record with this id.
func (s *Store) Category(id string) (Category, bool) {
	c, ok := s.cached().Categories.Items[id]
	if !ok {
		return Category{}, false
	}
	return *c, true
}

// Label returns a copy of the label record with this id.
func (s *Store) Label(id string) (Label, bool) {
	l, ok := s.cached().Labels.Items[id]
	if !ok {
		return Label{}, false
	}
	return *l, true
}

// CategoryByName returns the category with exactly this name.
func (s *Store) CategoryByName(name string) (Category, bool) {
	if c := findCategory(s.cached(), name); c != nil {
		return *c, true
	}
	return Category{}, false
}

// LabelByName returns the label with exactly this name.
func (s *Store) LabelByName(name string) (Label, bool) {
	if l := findLabel(s.cached(), name); l != nil {
		return *l, true
	}
	return Label{}, false
}

// Categories returns every category ordered by sort_order, then name.
func (s *Store) Categories() []Category {
	doc := s.cached()
	out := make([]Category, 0, len(doc.Categories.Items))
	for _, c := range doc.Categories.Items {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Category) int {
		return cmp.Or(
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// Labels returns every label ordered by name.
func (s *Store) Labels() []Label {
	doc := s.cached()
	out := make([]Label, 0, len(doc.Labels.Items))
	for _, l := range doc.Labels.Items {
		out = append(out, *l)
	}
	slices.SortFunc(out, func(a, b Label) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// CategoryName resolves a category id, falling back to the placeholder name.
func (s *Store) CategoryName(id string) string {
	if c, ok := s.cached().Categories.Items[id]; ok {
		return c.Name
	}
	return UnknownCategoryName
}

// LabelNames resolves label ids in order, falling back to the placeholder name.
func (s *Store) LabelNames(ids []string) []string {
	doc := s.cached()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, ok := doc.Labels.Items[id]; ok {
			names = append(names, l.Name)
		} else {
			names = append(names, UnknownLabelName)
		}
	}
	return names
}
