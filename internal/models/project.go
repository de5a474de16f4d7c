// internal/models/project.go
package models

// Project identifies the namespace used for storage keys and remote calls.
type Project struct {
	Name string `json:"name"`
}

// ProjectSummary is an aggregate row for the project list screen.
type ProjectSummary struct {
	Name       string `json:"name"`
	EventCount int    `json:"event_count"`
}

// VideoAsset is the uploaded video. RemoteURL is the public object-storage
// URL handed to the generation service. LocalPreviewURL is a transient
// handle to the in-browser preview; the session releases it exactly once.
type VideoAsset struct {
	RemoteURL       string `json:"remote_url"`
	LocalPreviewURL string `json:"local_preview_url,omitempty"`
}
