package snippet

// Snippet is the stored form of a snippet. Category and labels are referenced
// by metadata id; field order here is the key order written to snippets.json.
type Snippet struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CategoryID string   `json:"category_id"`
	PromptText string   `json:"prompt_text"`
	LabelIDs   []string `json:"label_ids"`
	Exclusive  bool     `json:"exclusive"`
}

// View is the presentation form of a snippet, with category and label ids
// resolved to names. It is never written back to disk.
type View struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Labels     []string `json:"labels"`
	PromptText string   `json:"prompt_text"`
	Exclusive  bool     `json:"exclusive"`
}

// Input carries the fields a caller supplies to create or replace a snippet.
// ID is ignored on create and required on update.
type Input struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name" validate:"required"`
	Category   string   `json:"category" validate:"required"`
	PromptText string   `json:"prompt_text" validate:"required,excludes=;"`
	Labels     []string `json:"labels"`
	Exclusive  bool     `json:"exclusive"`
}
