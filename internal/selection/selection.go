// Package selection tracks which snippets are selected, which exclusive
// snippet holds each category slot, and the active filtered view.
package selection

import (
	"slices"

	"github.com/hpungsan/snip/internal/snippet"
)

// Status is a snippet's selection status.
type Status int

const (
	Unselected Status = iota
	Selected
)

func (s Status) String() string {
	if s == Selected {
		return "selected"
	}
	return "unselected"
}

// State is the transient selection and filter state of a session.
//
// It keeps this relation on every mutating call: if a category slot is held
// by a snippet, that snippet is selected, belongs to the category and is
// exclusive (as last reported through SetState or Reconcile).
type State struct {
	states             map[string]Status
	selected           map[string]struct{}
	categorySelections map[string]string

	filtered    bool
	description string
	filteredIDs map[string]struct{}
}

// New returns an empty State.
func New() *State {
	return &State{
		states:             map[string]Status{},
		selected:           map[string]struct{}{},
		categorySelections: map[string]string{},
		filteredIDs:        map[string]struct{}{},
	}
}

// State returns the status of id. Unknown ids are unselected.
func (s *State) State(id string) Status {
	return s.states[id]
}

// IsSelected reports whether id is selected.
func (s *State) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in sorted order.
func (s *State) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Holder returns the snippet holding the exclusive slot of category.
func (s *State) Holder(category string) (string, bool) {
	id, ok := s.categorySelections[category]
	return id, ok
}

// SetState records a transition. Selecting an exclusive snippet claims its
// category slot, replacing any previous holder without complaint; callers
// check CanSelect first. Unselecting removes tracking and any claim.
func (s *State) SetState(id string, status Status, category string, exclusive bool) {
	if status != Selected {
		s.Forget(id)
		return
	}

	s.states[id] = Selected
	s.selected[id] = struct{}{}
	s.releaseClaims(id)
	if exclusive && category != "" {
		s.categorySelections[category] = id
	}
}

// Forget drops every trace of id.
func (s *State) Forget(id string) {
	delete(s.states, id)
	delete(s.selected, id)
	s.releaseClaims(id)
}

func (s *State) releaseClaims(id string) {
	for category, holder := range s.categorySelections {
		if holder == id {
			delete(s.categorySelections, category)
		}
	}
}

// CanSelect reports whether id may be selected: always for non-exclusive
// snippets, otherwise only if the category slot is free or held by id.
func (s *State) CanSelect(id, category string, exclusive bool) bool {
	if !exclusive {
		return true
	}
	holder, ok := s.categorySelections[category]
	return !ok || holder == id
}

// ClearAll unselects every snippet.
func (s *State) ClearAll() {
	clear(s.states)
	clear(s.selected)
	clear(s.categorySelections)
}

// ClearSelections forgets the given ids, for example after they were deleted.
func (s *State) ClearSelections(ids []string) {
	for _, id := range ids {
		s.Forget(id)
	}
}

// SetSearchFilter installs a filtered view. The view is active iff
// description is non-empty, even when ids is empty.
func (s *State) SetSearchFilter(description string, ids map[string]struct{}) {
	s.description = description
	s.filtered = description != ""
	s.filteredIDs = make(map[string]struct{}, len(ids))
	for id := range ids {
		s.filteredIDs[id] = struct{}{}
	}
}

// ClearSearchFilter removes the filtered view without touching selections.
func (s *State) ClearSearchFilter() {
	s.description = ""
	s.filtered = false
	s.filteredIDs = map[string]struct{}{}
}

// IsFiltered reports whether a filtered view is active.
func (s *State) IsFiltered() bool {
	return s.filtered
}

// Description returns the active filter description.
func (s *State) Description() string {
	return s.description
}

// InFilter reports whether id is part of the filtered view.
func (s *State) InFilter(id string) bool {
	_, ok := s.filteredIDs[id]
	return ok
}

// Visible returns the views currently displayed: the filtered subset when a
// filter is active, otherwise all of them. Order is preserved.
func (s *State) Visible(views []snippet.View) []snippet.View {
	if !s.filtered {
		return views
	}
	out := make([]snippet.View, 0, len(s.filteredIDs))
	for _, v := range views {
		if s.InFilter(v.ID) {
			out = append(out, v)
		}
	}
	return out
}

// Reconcile brings the state in line with the current collection. Ids no
// longer present are dropped and category slots are rebuilt from current
// categories and exclusive flags. When two selected exclusive snippets now
// share a category, the one earlier in views keeps the slot and the later
// one is unselected. It returns the ids unselected that way.
func (s *State) Reconcile(views []snippet.View) []string {
	present := make(map[string]struct{}, len(views))
	for _, v := range views {
		present[v.ID] = struct{}{}
	}
	for id := range s.states {
		if _, ok := present[id]; !ok {
			s.Forget(id)
		}
	}
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}
	for id := range s.filteredIDs {
		if _, ok := present[id]; !ok {
			delete(s.filteredIDs, id)
		}
	}

	clear(s.categorySelections)
	var bumped []string
	for _, v := range views {
		if !v.Exclusive || !s.IsSelected(v.ID) {
			continue
		}
		if _, taken := s.categorySelections[v.Category]; taken {
			delete(s.selected, v.ID)
			delete(s.states, v.ID)
			bumped = append(bumped, v.ID)
			continue
		}
		s.categorySelections[v.Category] = v.ID
	}
	return bumped
}
