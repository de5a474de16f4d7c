// internal/models/event.go
package models

// Event is a detected or manually created time window within a video,
// carrying one generated audio variation per prompt. Variations and Prompts
// are index-aligned parallel sequences: Prompts[i] produced Variations[i].
// ID is the stable identity used for selection and update targeting; Name
// is a display label only.
type Event struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Start      float64  `json:"start"`
	Duration   float64  `json:"duration"`
	Variations []string `json:"variations"`
	Prompts    []string `json:"prompts"`
}

// Clone returns a deep copy so callers cannot mutate model-owned slices.
func (e Event) Clone() Event {
	clone := e
	clone.Variations = append([]string(nil), e.Variations...)
	clone.Prompts = append([]string(nil), e.Prompts...)
	return clone
}

// VariationRef is one candidate generated audio artifact paired with the
// prompt that produced it.
type VariationRef struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// AssetRecord is a persisted event row in the asset store. Duration is not
// persisted; re-derived events fall back to a 1.0s default.
type AssetRecord struct {
	ID         string   `json:"id"`
	Project    string   `json:"project"`
	EventName  string   `json:"event_name"`
	Timestamp  float64  `json:"timestamp"`
	Variations []string `json:"variations"`
	Prompts    []string `json:"prompts"`
	CreatedAt  int64    `json:"created_at"`
}
