package ops

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snip/internal/errors"
)

func TestCompose_TextFromSelection(t *testing.T) {
	s := newTestSession(t)
	f := addFixture(t, s)

	require.NoError(t, s.Select(f.formal))
	require.NoError(t, s.Select(f.cot))

	out, err := Compose(s, ComposeInput{})
	require.NoError(t, err)

	if out.BundleText != "Use a formal register; Think carefully" {
		t.Errorf("BundleText = %q", out.BundleText)
	}
	if out.PartsCount != 2 {
		t.Errorf("PartsCount = %d, want 2", out.PartsCount)
	}
	if out.Format != FormatText {
		t.Errorf("Format = %q, want %q", out.Format, FormatText)
	}
	if out.BundleChars != len(out.BundleText) {
		t.Errorf("BundleChars = %d, want %d", out.BundleChars, len(out.BundleText))
	}
}

func TestCompose_EmptySelection(t *testing.T) {
	s := newTestSession(t)
	addFixture(t, s)

	_, err := Compose(s, ComposeInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("Compose() error = %v, want INVALID_REQUEST", err)
	}
}

func TestCompose_MarkdownExplicitIDs(t *testing.T) {
	s := newTestSession(t)
	f := addFixture(t, s)

	out, err := Compose(s, ComposeInput{IDs: []string{f.json, f.cot, f.json}, Format: "Markdown"})
	require.NoError(t, err)

	want := "## JSON\n\nRespond with valid JSON\n\n---\n\n## Step_by_step\n\nThink carefully"
	assert.Equal(t, want, out.BundleText)
	assert.Equal(t, 2, out.PartsCount, "duplicate ids are composed once")
	assert.Equal(t, []string{f.json, f.cot}, out.IDs)
}

func TestCompose_HTML(t *testing.T) {
	s := newTestSession(t)
	f := addFixture(t, s)

	out, err := Compose(s, ComposeInput{IDs: []string{f.formal}, Format: FormatHTML})
	require.NoError(t, err)

	if !strings.Contains(out.BundleText, "<h2>Formal</h2>") {
		t.Errorf("BundleText missing heading: %q", out.BundleText)
	}
	if !strings.Contains(out.BundleText, "<p>Use a formal register</p>") {
		t.Errorf("BundleText missing paragraph: %q", out.BundleText)
	}
}

func TestCompose_ExclusiveConflict(t *testing.T) {
	s := newTestSession(t)
	f := addFixture(t, s)

	_, err := Compose(s, ComposeInput{IDs: []string{f.formal, f.casual}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "tone", se.Details["category"])
	assert.Equal(t, f.formal, se.Details["selected_id"])
}

func TestCompose_Errors(t *testing.T) {
	s := newTestSession(t)
	f := addFixture(t, s)

	_, err := Compose(s, ComposeInput{IDs: []string{f.formal, "missing"}})
	assert.True(t, errors.Is(err, errors.ErrNotFound), "all-or-nothing on missing ids")

	_, err = Compose(s, ComposeInput{IDs: []string{f.formal}, Format: "pdf"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
