package ops

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/selection"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// Compose formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ComposeInput contains parameters for the Compose operation.
type ComposeInput struct {
	IDs    []string // optional; empty means the session's current selection
	Format string   // "text" (default), "markdown" or "html"
}

// ComposeOutput contains the result of the Compose operation.
type ComposeOutput struct {
	BundleText  string   `json:"bundle_text"`
	BundleChars int      `json:"bundle_chars"`
	PartsCount  int      `json:"parts_count"`
	Format      string   `json:"format"`
	IDs         []string `json:"ids"`
}

// Compose assembles snippets into one bundle. An explicit id list is checked
// against the exclusivity rule as if each id were selected in turn, so two
// exclusive snippets of one category cannot be composed together.
// All-or-nothing: fails if any snippet is missing.
func Compose(s *session.Session, input ComposeInput) (*ComposeOutput, error) {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatMarkdown && format != FormatHTML {
		return nil, errors.NewInvalidRequest("format must be one of: text, markdown, html")
	}

	var parts []snippet.View
	if len(input.IDs) == 0 {
		selected, err := s.Selected()
		if err != nil {
			return nil, err
		}
		parts = selected
	} else {
		var err error
		parts, err = resolveParts(s, input.IDs)
		if err != nil {
			return nil, err
		}
	}

	parts = nonBlank(parts)
	if len(parts) == 0 {
		return nil, errors.NewInvalidRequest("nothing to compose: no snippets selected")
	}

	var bundle string
	switch format {
	case FormatText:
		bundle = session.PreviewText(parts)
	case FormatMarkdown:
		bundle = assembleMarkdown(parts)
	case FormatHTML:
		var err error
		bundle, err = renderHTML(assembleMarkdown(parts))
		if err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.ID)
	}
	return &ComposeOutput{
		BundleText:  bundle,
		BundleChars: snippet.CountChars(bundle),
		PartsCount:  len(parts),
		Format:      format,
		IDs:         ids,
	}, nil
}

// resolveParts fetches ids in order and applies the exclusivity rule.
func resolveParts(s *session.Session, ids []string) ([]snippet.View, error) {
	parts := make([]snippet.View, 0, len(ids))
	err := s.Do(func(r *repo.Repository) error {
		state := selection.New()
		seen := make(map[string]bool, len(ids))
		for i, id := range ids {
			id = strings.TrimSpace(id)
			if seen[id] {
				continue
			}
			seen[id] = true

			v, err := r.GetView(id)
			if err != nil {
				return fmt.Errorf("ids[%d]: %w", i, err)
			}
			if !state.CanSelect(v.ID, v.Category, v.Exclusive) {
				holder, _ := state.Holder(v.Category)
				return fmt.Errorf("ids[%d]: %w", i, errors.NewSelectionConflict(v.Category, holder))
			}
			state.SetState(v.ID, selection.Selected, v.Category, v.Exclusive)
			parts = append(parts, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func nonBlank(views []snippet.View) []snippet.View {
	out := make([]snippet.View, 0, len(views))
	for _, v := range views {
		if strings.TrimSpace(v.PromptText) != "" {
			out = append(out, v)
		}
	}
	return out
}

// assembleMarkdown creates markdown format: ## name\n\ntext\n\n---\n\n...
func assembleMarkdown(parts []snippet.View) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString("## ")
		sb.WriteString(part.Name)
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(part.PromptText))
	}
	return sb.String()
}

// renderHTML converts markdown text to HTML using goldmark.
func renderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", errors.NewInternal(fmt.Errorf("render html: %w", err))
	}
	return buf.String(), nil
}
