package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snip/internal/metadata"
	"github.com/hpungsan/snip/internal/repo"
)

func TestCategoriesAndLabels(t *testing.T) {
	s := newTestSession(t)
	addFixture(t, s)

	cats, err := Categories(s)
	require.NoError(t, err)
	names := make([]string, 0, len(cats.Items))
	usage := map[string]int{}
	for _, c := range cats.Items {
		names = append(names, c.Name)
		usage[c.Name] = c.UsageCount
	}
	assert.ElementsMatch(t, []string{"tone", "reasoning", "output_format"}, names)
	assert.Equal(t, 2, usage["tone"])

	labels, err := Labels(s)
	require.NoError(t, err)
	labelUsage := map[string]int{}
	for _, l := range labels.Items {
		labelUsage[l.Name] = l.UsageCount
	}
	assert.Equal(t, 3, labelUsage["style"])
	assert.Equal(t, 1, labelUsage["logic"])
}

func TestCleanup(t *testing.T) {
	s := newTestSession(t)
	f := addFixture(t, s)

	_, err := Delete(s, DeleteInput{IDs: []string{f.cot}})
	require.NoError(t, err)

	report, err := Cleanup(s, CleanupInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.CategoriesUnused)
	assert.Equal(t, 1, report.LabelsUnused)
	assert.Zero(t, report.CategoriesRemoved)

	removed, err := Cleanup(s, CleanupInput{RemoveUnused: true})
	require.NoError(t, err)
	assert.Equal(t, 1, removed.CategoriesRemoved)
	assert.Equal(t, 1, removed.LabelsRemoved)

	cats, err := Categories(s)
	require.NoError(t, err)
	assert.Len(t, cats.Items, 2)
}

func TestRefresh_RecountsAfterExternalChange(t *testing.T) {
	s := newTestSession(t)
	addFixture(t, s)

	// Skew counts directly through the store.
	require.NoError(t, s.Do(func(r *repo.Repository) error {
		cat, ok := r.Metadata().CategoryByName("tone")
		require.True(t, ok)
		return r.Metadata().Increment(metadata.KindCategory, cat.ID)
	}))

	out, err := Refresh(s, RefreshInput{Reload: true})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Snippets)
	assert.Equal(t, 3, out.Categories)

	cats, err := Categories(s)
	require.NoError(t, err)
	for _, c := range cats.Items {
		if c.Name == "tone" {
			assert.Equal(t, 2, c.UsageCount)
		}
	}
}
