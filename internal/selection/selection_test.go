package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snip/internal/snippet"
)

// checkInvariant asserts every held slot belongs to a selected exclusive
// snippet of that category.
func checkInvariant(t *testing.T, s *State, views []snippet.View) {
	t.Helper()
	byID := make(map[string]snippet.View, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	for category, id := range s.categorySelections {
		assert.True(t, s.IsSelected(id), "holder %s of %s not selected", id, category)
		v, ok := byID[id]
		if !ok {
			continue
		}
		assert.Equal(t, category, v.Category, "holder %s category", id)
		assert.True(t, v.Exclusive, "holder %s not exclusive", id)
	}
}

func TestState_DefaultUnselected(t *testing.T) {
	s := New()
	assert.Equal(t, Unselected, s.State("unknown"))
	assert.Equal(t, "unselected", s.State("unknown").String())
	assert.Equal(t, "selected", Selected.String())
}

func TestExclusivity(t *testing.T) {
	s := New()

	require.True(t, s.CanSelect("A", "tone", true))
	s.SetState("A", Selected, "tone", true)

	assert.False(t, s.CanSelect("B", "tone", true))
	assert.True(t, s.CanSelect("A", "tone", true), "re-selecting the holder is allowed")
	assert.True(t, s.CanSelect("B", "tone", false), "non-exclusive is never blocked")
	assert.True(t, s.CanSelect("B", "role", true))

	holder, ok := s.Holder("tone")
	require.True(t, ok)
	assert.Equal(t, "A", holder)

	s.SetState("A", Unselected, "tone", true)
	assert.True(t, s.CanSelect("B", "tone", true))
	_, ok = s.Holder("tone")
	assert.False(t, ok)
}

func TestExclusivity_ReleasedOnDelete(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.ClearSelections([]string{"A"})

	assert.True(t, s.CanSelect("B", "tone", true))
	assert.Equal(t, Unselected, s.State("A"))
}

func TestSetState_OverwritesHolderSilently(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.SetState("B", Selected, "tone", true)

	holder, _ := s.Holder("tone")
	assert.Equal(t, "B", holder)
	assert.True(t, s.IsSelected("A"))
	checkInvariant(t, s, nil)
}

func TestSetState_ReselectMovesClaim(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.SetState("A", Selected, "role", true)

	_, ok := s.Holder("tone")
	assert.False(t, ok)
	holder, _ := s.Holder("role")
	assert.Equal(t, "A", holder)

	s.SetState("A", Selected, "role", false)
	_, ok = s.Holder("role")
	assert.False(t, ok)
}

func TestClearAll(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.SetState("B", Selected, "misc", false)

	s.ClearAll()
	assert.Empty(t, s.SelectedIDs())
	assert.Equal(t, Unselected, s.State("A"))
	assert.True(t, s.CanSelect("C", "tone", true))
}

func TestClearSelections_Scoped(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.SetState("B", Selected, "misc", false)

	s.ClearSelections([]string{"B", "ghost"})
	assert.Equal(t, []string{"A"}, s.SelectedIDs())
	holder, _ := s.Holder("tone")
	assert.Equal(t, "A", holder)
}

func TestSearchFilter(t *testing.T) {
	s := New()
	views := []snippet.View{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	s.SetState("1", Selected, "c", false)

	assert.False(t, s.IsFiltered())
	assert.Len(t, s.Visible(views), 3)

	s.SetSearchFilter("Text: 'x'", map[string]struct{}{"3": {}, "1": {}})
	assert.True(t, s.IsFiltered())
	assert.Equal(t, "Text: 'x'", s.Description())
	visible := s.Visible(views)
	require.Len(t, visible, 2)
	assert.Equal(t, "1", visible[0].ID)
	assert.Equal(t, "3", visible[1].ID)
	assert.True(t, s.InFilter("3"))
	assert.False(t, s.InFilter("2"))

	// A non-empty description with no matches is a valid empty view.
	s.SetSearchFilter("Text: 'zzz'", nil)
	assert.True(t, s.IsFiltered())
	assert.Empty(t, s.Visible(views))

	// An empty description is no filter at all.
	s.SetSearchFilter("", map[string]struct{}{"1": {}})
	assert.False(t, s.IsFiltered())
	assert.Len(t, s.Visible(views), 3)

	s.SetSearchFilter("x", map[string]struct{}{"1": {}})
	s.ClearSearchFilter()
	assert.False(t, s.IsFiltered())
	assert.Equal(t, "", s.Description())
	assert.True(t, s.IsSelected("1"), "filters never touch selections")
}

func TestReconcile_DropsMissing(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.SetState("B", Selected, "misc", false)
	s.SetSearchFilter("f", map[string]struct{}{"A": {}, "B": {}})

	views := []snippet.View{{ID: "B", Category: "misc"}}
	bumped := s.Reconcile(views)

	assert.Empty(t, bumped)
	assert.Equal(t, []string{"B"}, s.SelectedIDs())
	assert.True(t, s.CanSelect("X", "tone", true))
	assert.False(t, s.InFilter("A"))
	checkInvariant(t, s, views)
}

func TestReconcile_RederivesClaims(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)

	// A moved to another category and stopped being exclusive.
	views := []snippet.View{{ID: "A", Category: "role", Exclusive: false}}
	s.Reconcile(views)

	assert.True(t, s.IsSelected("A"))
	_, ok := s.Holder("tone")
	assert.False(t, ok)
	_, ok = s.Holder("role")
	assert.False(t, ok)

	// A became exclusive in role.
	views[0].Exclusive = true
	s.Reconcile(views)
	holder, ok := s.Holder("role")
	require.True(t, ok)
	assert.Equal(t, "A", holder)
	checkInvariant(t, s, views)
}

func TestReconcile_CollisionKeepsEarlier(t *testing.T) {
	s := New()
	s.SetState("A", Selected, "tone", true)
	s.SetState("B", Selected, "role", true)

	// B was edited into tone.
	views := []snippet.View{
		{ID: "A", Category: "tone", Exclusive: true},
		{ID: "B", Category: "tone", Exclusive: true},
	}
	bumped := s.Reconcile(views)

	assert.Equal(t, []string{"B"}, bumped)
	assert.True(t, s.IsSelected("A"))
	assert.False(t, s.IsSelected("B"))
	holder, _ := s.Holder("tone")
	assert.Equal(t, "A", holder)
	checkInvariant(t, s, views)
}
