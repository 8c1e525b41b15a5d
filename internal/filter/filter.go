// Package filter evaluates category and label bubble filters plus a free-text
// query against a snippet collection.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/snippet"
)

// Mode combines the category and label bubble filters.
type Mode string

const (
	// ModeAND requires the category to be active (if any are) and every
	// active label to be present (if any are).
	ModeAND Mode = "AND"

	// ModeOR requires the category or any label to be active.
	ModeOR Mode = "OR"
)

// ParseMode accepts "and"/"or" in any case. Empty means AND.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ModeAND):
		return ModeAND, nil
	case string(ModeOR):
		return ModeOR, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid filter mode %q: must be AND or OR", s))
	}
}

// Criteria is the active filter configuration.
type Criteria struct {
	Categories []string `json:"categories,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Mode       Mode     `json:"mode,omitempty"`
	Query      string   `json:"query,omitempty"`
}

// HasBubbles reports whether any category or label filter is active.
func (c Criteria) HasBubbles() bool {
	return len(c.Categories) > 0 || len(c.Labels) > 0
}

// IsEmpty reports whether c matches everything.
func (c Criteria) IsEmpty() bool {
	return !c.HasBubbles() && c.query() == ""
}

func (c Criteria) query() string {
	return strings.ToLower(strings.TrimSpace(c.Query))
}

func (c Criteria) mode() Mode {
	if c.Mode == ModeOR {
		return ModeOR
	}
	return ModeAND
}

// Match returns the ids of views matching c. Empty criteria match every view.
func Match(views []snippet.View, c Criteria) map[string]struct{} {
	m := newMatcher(c)
	ids := make(map[string]struct{}, len(views))
	for i := range views {
		if m.match(&views[i]) {
			ids[views[i].ID] = struct{}{}
		}
	}
	return ids
}

type matcher struct {
	categories map[string]struct{}
	labels     map[string]struct{}
	mode       Mode
	query      string
}

func newMatcher(c Criteria) *matcher {
	return &matcher{
		categories: toSet(c.Categories),
		labels:     toSet(c.Labels),
		mode:       c.mode(),
		query:      c.query(),
	}
}

// match intersects the text match with the bubble match regardless of mode.
func (m *matcher) match(v *snippet.View) bool {
	return m.matchBubbles(v) && m.matchText(v)
}

func (m *matcher) matchBubbles(v *snippet.View) bool {
	if len(m.categories) == 0 && len(m.labels) == 0 {
		return true
	}

	if m.mode == ModeOR {
		if _, ok := m.categories[v.Category]; ok {
			return true
		}
		for _, l := range v.Labels {
			if _, ok := m.labels[l]; ok {
				return true
			}
		}
		return false
	}

	if len(m.categories) > 0 {
		if _, ok := m.categories[v.Category]; !ok {
			return false
		}
	}
	if len(m.labels) > 0 {
		have := toSet(v.Labels)
		for l := range m.labels {
			if _, ok := have[l]; !ok {
				return false
			}
		}
	}
	return true
}

// matchText checks each field raw and with underscores read as spaces, so
// "my category" finds "my_category".
func (m *matcher) matchText(v *snippet.View) bool {
	if m.query == "" {
		return true
	}
	fields := make([]string, 0, 3+len(v.Labels))
	fields = append(fields, v.Name, v.Category, v.PromptText)
	fields = append(fields, v.Labels...)
	for _, f := range fields {
		f = strings.ToLower(f)
		if strings.Contains(f, m.query) || strings.Contains(strings.ReplaceAll(f, "_", " "), m.query) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// Describe renders the active filter for display, for example
// "Text: 'tone' + [AND] Categories: a, b AND Labels: c".
// Empty criteria describe as "".
func Describe(c Criteria) string {
	bubbles := describeBubbles(c)
	q := c.query()
	if q == "" {
		return bubbles
	}
	desc := fmt.Sprintf("Text: '%s'", q)
	if bubbles != "" {
		desc += " + " + bubbles
	}
	return desc
}

func describeBubbles(c Criteria) string {
	var parts []string
	if len(c.Categories) > 0 {
		parts = append(parts, "Categories: "+strings.Join(sortedUnique(c.Categories), ", "))
	}
	if len(c.Labels) > 0 {
		parts = append(parts, "Labels: "+strings.Join(sortedUnique(c.Labels), ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	mode := string(c.mode())
	return "[" + mode + "] " + strings.Join(parts, " "+mode+" ")
}

func sortedUnique(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}
