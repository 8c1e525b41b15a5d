// Package session coordinates the snippet repository with selection and
// filter state for one user. A Session serializes every call so callers on
// several goroutines, such as MCP tool handlers, see single-writer semantics.
package session

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/filter"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/selection"
	"github.com/hpungsan/snip/internal/snippet"
)

// NoSelectionText is the preview shown when nothing is selected.
const NoSelectionText = "No Snippets Selected"

// PreviewSeparator joins selected prompt texts in a preview.
const PreviewSeparator = snippet.Delimiter + " "

// Row is a displayed snippet with its selection status.
type Row struct {
	snippet.View
	Selected bool `json:"selected"`
}

// Summary describes the session state.
type Summary struct {
	SelectedIDs []string        `json:"selected_ids"`
	Filtered    bool            `json:"filtered"`
	Filter      string          `json:"filter,omitempty"`
	Criteria    filter.Criteria `json:"criteria"`
	DeleteMode  bool            `json:"delete_mode"`
	Marked      []string        `json:"marked,omitempty"`
}

// Session is the single writer over a repository.
type Session struct {
	mu       sync.Mutex
	repo     *repo.Repository
	sel      *selection.State
	criteria filter.Criteria
	logger   *zap.Logger

	deleteMode bool
	marked     map[string]struct{}
}

// New returns a Session over r with nothing selected and no filter.
func New(r *repo.Repository, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		repo:     r,
		sel:      selection.New(),
		criteria: filter.Criteria{Mode: filter.ModeAND},
		logger:   logger,
		marked:   map[string]struct{}{},
	}
}

// Do runs fn with exclusive access to the repository, then reconciles
// selection and filter state with whatever fn changed.
func (s *Session) Do(fn func(r *repo.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fnErr := fn(s.repo)
	if _, err := s.refresh(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

// refresh reloads the collection, reconciles selections and recomputes the
// filtered view. Callers hold mu.
func (s *Session) refresh() ([]snippet.View, error) {
	views, err := s.repo.LoadForPresentation()
	if err != nil {
		return nil, err
	}
	if bumped := s.sel.Reconcile(views); len(bumped) > 0 {
		s.logger.Info("exclusive selections released after edit", zap.Strings("ids", bumped))
	}
	for id := range s.marked {
		if !containsID(views, id) {
			delete(s.marked, id)
		}
	}
	s.applyFilter(views)
	return views, nil
}

func (s *Session) applyFilter(views []snippet.View) {
	if s.criteria.IsEmpty() {
		s.sel.ClearSearchFilter()
		return
	}
	s.sel.SetSearchFilter(filter.Describe(s.criteria), filter.Match(views, s.criteria))
}

func (s *Session) guardDeleteMode() error {
	if s.deleteMode {
		return errors.NewConflict("delete mode is active; confirm or cancel it first")
	}
	return nil
}

func (s *Session) find(id string) (snippet.View, []snippet.View, error) {
	views, err := s.refresh()
	if err != nil {
		return snippet.View{}, nil, err
	}
	for _, v := range views {
		if v.ID == id {
			return v, views, nil
		}
	}
	return snippet.View{}, nil, errors.NewNotFound(id)
}

// Select selects id. An exclusive snippet is refused with CONFLICT while
// another snippet holds its category slot.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return err
	}
	v, _, err := s.find(id)
	if err != nil {
		return err
	}
	return s.selectView(v)
}

func (s *Session) selectView(v snippet.View) error {
	if !s.sel.CanSelect(v.ID, v.Category, v.Exclusive) {
		holder, _ := s.sel.Holder(v.Category)
		return errors.NewSelectionConflict(v.Category, holder)
	}
	s.sel.SetState(v.ID, selection.Selected, v.Category, v.Exclusive)
	s.logger.Debug("snippet selected", zap.String("id", v.ID))
	return nil
}

// Deselect unselects id.
func (s *Session) Deselect(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return err
	}
	v, _, err := s.find(id)
	if err != nil {
		return err
	}
	s.sel.SetState(v.ID, selection.Unselected, v.Category, v.Exclusive)
	return nil
}

// Toggle flips the selection of id and returns the new status.
func (s *Session) Toggle(id string) (selection.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return selection.Unselected, err
	}
	v, _, err := s.find(id)
	if err != nil {
		return selection.Unselected, err
	}
	if s.sel.IsSelected(id) {
		s.sel.SetState(v.ID, selection.Unselected, v.Category, v.Exclusive)
		return selection.Unselected, nil
	}
	if err := s.selectView(v); err != nil {
		return selection.Unselected, err
	}
	return selection.Selected, nil
}

// ClearSelections unselects everything.
func (s *Session) ClearSelections() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return err
	}
	s.sel.ClearAll()
	return nil
}

// Criteria returns the active filter criteria.
func (s *Session) Criteria() filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCriteria(s.criteria)
}

// SetCriteria replaces the whole filter. Category and label names are
// sanitized so they compare equal to stored names.
func (s *Session) SetCriteria(c filter.Criteria) error {
	mode, err := filter.ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	return s.updateFilter(func(cur *filter.Criteria) {
		*cur = filter.Criteria{
			Categories: sanitizeNames(c.Categories),
			Labels:     sanitizeNames(c.Labels),
			Mode:       mode,
			Query:      c.Query,
		}
	})
}

// SetQuery sets the free-text query.
func (s *Session) SetQuery(q string) error {
	return s.updateFilter(func(c *filter.Criteria) {
		c.Query = q
	})
}

// ToggleCategory adds or removes a category bubble.
func (s *Session) ToggleCategory(name string) error {
	return s.updateFilter(func(c *filter.Criteria) {
		c.Categories = toggle(c.Categories, snippet.Sanitize(name))
	})
}

// ToggleLabel adds or removes a label bubble.
func (s *Session) ToggleLabel(name string) error {
	return s.updateFilter(func(c *filter.Criteria) {
		c.Labels = toggle(c.Labels, snippet.Sanitize(name))
	})
}

// SetMode sets how bubbles combine.
func (s *Session) SetMode(mode filter.Mode) error {
	m, err := filter.ParseMode(string(mode))
	if err != nil {
		return err
	}
	return s.updateFilter(func(c *filter.Criteria) {
		c.Mode = m
	})
}

// ClearFilters drops the query and every bubble. Selections are kept.
func (s *Session) ClearFilters() error {
	return s.updateFilter(func(c *filter.Criteria) {
		*c = filter.Criteria{Mode: c.Mode}
	})
}

func (s *Session) updateFilter(fn func(c *filter.Criteria)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return err
	}
	fn(&s.criteria)
	_, err := s.refresh()
	return err
}

// View returns the displayed rows in collection order.
func (s *Session) View() ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views, err := s.refresh()
	if err != nil {
		return nil, err
	}
	visible := s.sel.Visible(views)
	rows := make([]Row, 0, len(visible))
	for _, v := range visible {
		rows = append(rows, Row{View: v, Selected: s.sel.IsSelected(v.ID)})
	}
	return rows, nil
}

// Selected returns the selected snippets in collection order, including
// ones hidden by the filter.
func (s *Session) Selected() ([]snippet.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected()
}

func (s *Session) selected() ([]snippet.View, error) {
	views, err := s.refresh()
	if err != nil {
		return nil, err
	}
	out := make([]snippet.View, 0)
	for _, v := range views {
		if s.sel.IsSelected(v.ID) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Preview joins the selected prompt texts with "; ". Blank prompts are
// skipped. With nothing to show it returns NoSelectionText.
func (s *Session) Preview() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected, err := s.selected()
	if err != nil {
		return "", err
	}
	return PreviewText(selected), nil
}

// PreviewText renders views the way Preview does.
func PreviewText(views []snippet.View) string {
	prompts := make([]string, 0, len(views))
	for _, v := range views {
		if p := strings.TrimSpace(v.PromptText); p != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return NoSelectionText
	}
	return strings.Join(prompts, PreviewSeparator)
}

// Summary returns the current selection and filter state.
func (s *Session) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.refresh(); err != nil {
		return Summary{}, err
	}
	return Summary{
		SelectedIDs: s.sel.SelectedIDs(),
		Filtered:    s.sel.IsFiltered(),
		Filter:      s.sel.Description(),
		Criteria:    cloneCriteria(s.criteria),
		DeleteMode:  s.deleteMode,
		Marked:      s.markedIDs(),
	}, nil
}

// Add creates a snippet.
func (s *Session) Add(in snippet.Input) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return "", err
	}
	id, err := s.repo.Add(in)
	if _, rerr := s.refresh(); rerr != nil && err == nil {
		return id, rerr
	}
	return id, err
}

// Update replaces a snippet. Selection is kept; if the edit makes two
// selected exclusive snippets share a category, the later one is unselected.
func (s *Session) Update(in snippet.Input) error {
	return s.UpdateKeeping(in, repo.Keep{})
}

// UpdateKeeping is Update with the bindings selected by keep carried over by id.
func (s *Session) UpdateKeeping(in snippet.Input, keep repo.Keep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return err
	}
	err := s.repo.UpdateKeeping(in, keep)
	if _, rerr := s.refresh(); rerr != nil && err == nil {
		return rerr
	}
	return err
}

// Delete removes snippets and forgets their selections.
func (s *Session) Delete(ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return 0, err
	}
	return s.delete(ids)
}

func (s *Session) delete(ids []string) (int, error) {
	n, err := s.repo.DeleteMany(ids)
	if err == nil {
		s.sel.ClearSelections(ids)
	}
	if _, rerr := s.refresh(); rerr != nil && err == nil {
		return n, rerr
	}
	return n, err
}

func containsID(views []snippet.View, id string) bool {
	for _, v := range views {
		if v.ID == id {
			return true
		}
	}
	return false
}

func toggle(items []string, name string) []string {
	if name == "" {
		return items
	}
	for i, it := range items {
		if it == name {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return append(items, name)
}

func sanitizeNames(names []string) []string {
	var out []string
	for _, n := range names {
		if s := snippet.Sanitize(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cloneCriteria(c filter.Criteria) filter.Criteria {
	out := c
	out.Categories = append([]string(nil), c.Categories...)
	out.Labels = append([]string(nil), c.Labels...)
	return out
}
