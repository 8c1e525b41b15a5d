package snippet

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/snip/internal/errors"
)

// separatorRegex matches runs of whitespace and hyphens.
var separatorRegex = regexp.MustCompile(`[\s\-]+`)

// Sanitize normalizes a category or label name:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Replace each run of whitespace or hyphens with a single underscore
//
// Sanitize is idempotent.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return separatorRegex.ReplaceAllString(s, "_")
}

// SanitizeCategory sanitizes a category name. Commas are rejected because
// label lists are comma separated at every input surface.
func SanitizeCategory(s string) (string, error) {
	if strings.Contains(s, ",") {
		return "", errors.NewInvalidRequest("category must not contain commas")
	}
	name := Sanitize(s)
	if name == "" {
		return "", errors.NewMissingFields([]string{"category"})
	}
	return name, nil
}

// SanitizeLabels sanitizes label names, dropping blanks and collapsing
// duplicates while keeping first-seen order.
func SanitizeLabels(labels []string) ([]string, error) {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.Contains(l, ",") {
			return nil, errors.NewInvalidRequest("label must not contain commas: " + strings.TrimSpace(l))
		}
		name := Sanitize(l)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// SplitLabels splits a comma-separated label string, trimming each part and
// dropping empties.
func SplitLabels(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			labels = append(labels, t)
		}
	}
	return labels
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
