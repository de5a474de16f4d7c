// internal/wwise/encoder.go
package wwise

import (
	"fmt"
	"strings"

	apperrors "github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/models"
)

// Encoder turns the server-provided Wwise import map into a downloadable
// artifact. The map text is opaque and owned by the remote service; the
// encoder is a stateless pass-through and must keep the content
// byte-identical.
type Encoder struct{}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode wraps mapText in a plain-text download named after the project.
// An empty map means there is nothing to export and fails with a
// validation error.
func (e *Encoder) Encode(mapText, fileNameHint string) (*models.ExportResult, error) {
	if mapText == "" {
		return nil, apperrors.NewValidationError("no import map to export", nil)
	}

	hint := strings.TrimSpace(fileNameHint)
	if hint == "" {
		hint = "project"
	}

	return &models.ExportResult{
		FileName:    fmt.Sprintf("%s_wwise_import.txt", hint),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(mapText),
	}, nil
}
