// internal/wwise/encoder_test.go
package wwise

import (
	"bytes"
	"testing"

	apperrors "github.com/mirelio/gameforge/internal/errors"
)

func TestEncodeRoundTrip(t *testing.T) {
	mapText := "Jump\ta.wav\nLand\tb.wav\n"

	result, err := NewEncoder().Encode(mapText, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if result.FileName != "demo_wwise_import.txt" {
		t.Errorf("unexpected file name %q", result.FileName)
	}
	if !bytes.Equal(result.Content, []byte(mapText)) {
		t.Errorf("content not byte-identical: %q", result.Content)
	}
}

func TestEncodeEmptyMap(t *testing.T) {
	_, err := NewEncoder().Encode("", "demo")
	if !apperrors.IsValidationError(err) {
		t.Errorf("expected validation error for empty map, got %v", err)
	}
}

func TestEncodeDefaultsFileNameHint(t *testing.T) {
	result, err := NewEncoder().Encode("x", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if result.FileName != "project_wwise_import.txt" {
		t.Errorf("unexpected file name %q", result.FileName)
	}
}
