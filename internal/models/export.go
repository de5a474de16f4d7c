// internal/models/export.go
package models

// ExportResult is a downloadable artifact produced by an export encoder.
type ExportResult struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}
