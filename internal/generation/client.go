// internal/generation/client.go
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/models"
)

// Client talks to the remote video-analysis and audio-generation service.
// Requests are not cancellable once issued beyond the passed context; the
// session layer is responsible for discarding stale completions.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a generation-service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// ProcessResult is the outcome of a successful process call.
type ProcessResult struct {
	Events         []models.Event
	WwiseImportMap string
}

type processRequest struct {
	URL     string `json:"url"`
	Project string `json:"project"`
}

type processResponse struct {
	Status         string         `json:"status"`
	Data           []models.Event `json:"data"`
	WwiseImportMap string         `json:"wwise_import_map"`
}

// ProcessVideo submits the uploaded video for analysis and variation
// generation, returning the detected events and the Wwise import map when
// the service provides one.
func (c *Client) ProcessVideo(ctx context.Context, videoURL, project string) (*ProcessResult, error) {
	var resp processResponse
	if err := c.post(ctx, "/api/process", processRequest{URL: videoURL, Project: project}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, apperrors.NewRemoteServiceError(fmt.Sprintf("processing returned status %q", resp.Status), nil)
	}
	return &ProcessResult{Events: resp.Data, WwiseImportMap: resp.WwiseImportMap}, nil
}

// ManualEventRequest describes a user-defined event to create server-side.
type ManualEventRequest struct {
	Project    string  `json:"project"`
	VideoURL   string  `json:"video_url"`
	EventName  string  `json:"event_name"`
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	TextPrompt string  `json:"text_prompt"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// CreateManualEvent asks the service to generate audio for a manually
// defined time window. The caller re-reads persisted assets afterwards; the
// response itself carries no event data.
func (c *Client) CreateManualEvent(ctx context.Context, req ManualEventRequest) error {
	var resp statusResponse
	if err := c.post(ctx, "/api/create-manual-event", req, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return apperrors.NewRemoteServiceError(fmt.Sprintf("create-manual-event returned status %q", resp.Status), nil)
	}
	return nil
}

// RegenerateRequest targets a single variation slot with an updated prompt.
type RegenerateRequest struct {
	EventID        string  `json:"event_id"`
	VariationIndex int     `json:"variation_index"`
	VideoURL       string  `json:"video_url"`
	Start          float64 `json:"start"`
	Duration       float64 `json:"duration"`
	TextPrompt     string  `json:"text_prompt"`
}

type regenerateResponse struct {
	Status    string              `json:"status"`
	Variation models.VariationRef `json:"variation"`
}

// RegenerateVariation re-invokes generation for one variation slot and
// returns the replacement artifact.
func (c *Client) RegenerateVariation(ctx context.Context, req RegenerateRequest) (models.VariationRef, error) {
	var resp regenerateResponse
	if err := c.post(ctx, "/api/regenerate-variation", req, &resp); err != nil {
		return models.VariationRef{}, err
	}
	if resp.Status != "success" {
		return models.VariationRef{}, apperrors.NewRemoteServiceError(fmt.Sprintf("regenerate returned status %q", resp.Status), nil)
	}
	return resp.Variation, nil
}

// post sends a JSON request and decodes a JSON response. Non-2xx responses
// are converted to a remote-service error carrying the server-provided
// detail message when one is present, falling back to the raw body.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewRemoteServiceError("failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewRemoteServiceError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewRemoteServiceError("generation service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewRemoteServiceError(extractDetail(resp), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewRemoteServiceError("failed to decode response", err)
	}
	return nil
}

// extractDetail prefers the service's detail field over the raw body.
func extractDetail(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return fmt.Sprintf("generation service error (%d): %s", resp.StatusCode, bytes.TrimSpace(body))
}
