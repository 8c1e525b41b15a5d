package snippet

// Sample is the record shape of sample_snippets.json and of export files.
// It names fields differently from the live format: title is the snippet
// name and content is the prompt text.
type Sample struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Labels    []string `json:"labels"`
	Exclusive bool     `json:"exclusive"`
}

// Input converts a sample record into create input.
func (s Sample) Input() Input {
	return Input{
		Name:       s.Title,
		Category:   s.Category,
		PromptText: s.Content,
		Labels:     append([]string(nil), s.Labels...),
		Exclusive:  s.Exclusive,
	}
}

// SampleFromView converts a presentation record into the sample shape.
func SampleFromView(v View) Sample {
	labels := append([]string{}, v.Labels...)
	return Sample{
		Title:     v.Name,
		Content:   v.PromptText,
		Category:  v.Category,
		Labels:    labels,
		Exclusive: v.Exclusive,
	}
}
