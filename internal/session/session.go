// internal/session/session.go
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/generation"
	"github.com/mirelio/gameforge/internal/logger"
	"github.com/mirelio/gameforge/internal/models"
	"github.com/mirelio/gameforge/internal/playback"
	"github.com/mirelio/gameforge/internal/progress"
	"github.com/mirelio/gameforge/internal/timeline"
	"github.com/mirelio/gameforge/internal/wwise"
)

// Duration applied when re-deriving events from the asset store, which has
// no duration column. Lossy on purpose: it mirrors the persisted schema.
const defaultRederivedDuration = 1.0

// Generator is the remote generation service consumed by the session.
type Generator interface {
	ProcessVideo(ctx context.Context, videoURL, project string) (*generation.ProcessResult, error)
	CreateManualEvent(ctx context.Context, req generation.ManualEventRequest) error
	RegenerateVariation(ctx context.Context, req generation.RegenerateRequest) (models.VariationRef, error)
}

// ObjectStore is the video bucket consumed by the session.
type ObjectStore interface {
	Upload(ctx context.Context, key string, content io.Reader, contentType string) error
	PublicURL(key string) string
}

// AssetStore is the persisted-asset read side consumed after manual event
// creation.
type AssetStore interface {
	ListByProject(ctx context.Context, project string) ([]models.AssetRecord, error)
}

type pairKey struct {
	eventID string
	index   int
}

// Session owns one user's editing state: the timeline model, the playback
// controller, the uploaded video, the last received Wwise import map, the
// prompt-edit slot and the set of in-flight regenerations. All remote
// failures leave the model unchanged; the caller may treat session errors
// as no-ops on the data.
type Session struct {
	mu sync.Mutex

	project models.Project
	video   models.VideoAsset
	wwise   string

	// epoch invalidates responses that complete after a reset. Network
	// requests are not cancellable once issued; stale completions are
	// detected here and discarded instead of merged.
	epoch uint64

	releasePreview func()

	editing  *pairKey
	inflight map[pairKey]bool

	model      *timeline.Model
	controller *playback.Controller
	encoder    *wwise.Encoder

	generator Generator
	objects   ObjectStore
	assets    AssetStore
	progress  *progress.Service
}

// New creates a session for the named project.
func New(projectName string, generator Generator, objects ObjectStore, assets AssetStore,
	video playback.VideoSurface, notify func(playback.Status), progressSvc *progress.Service) (*Session, error) {
	if projectName == "" {
		return nil, apperrors.NewValidationError("project name is required", nil)
	}

	return &Session{
		project:    models.Project{Name: projectName},
		inflight:   make(map[pairKey]bool),
		model:      timeline.NewModel(),
		controller: playback.NewController(video, notify),
		encoder:    wwise.NewEncoder(),
		generator:  generator,
		objects:    objects,
		assets:     assets,
		progress:   progressSvc,
	}, nil
}

// Project returns the session's project.
func (s *Session) Project() models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Video returns the current video asset.
func (s *Session) Video() models.VideoAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

// AttachPreview records the transient local preview handle, releasing any
// previous one. The release func runs exactly once, either here on
// replacement or on Reset.
func (s *Session) AttachPreview(localURL string, release func()) {
	s.mu.Lock()
	prev := s.releasePreview
	s.video.LocalPreviewURL = localURL
	s.releasePreview = release
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// UploadVideo stores the video in the object bucket under the key
// `${project}_${epochMillis}_${fileName}` and records the resulting public
// URL. A processing failure afterwards keeps this URL populated so the user
// can retry processing without re-uploading.
func (s *Session) UploadVideo(ctx context.Context, fileName string, content io.Reader, contentType string) (string, error) {
	if fileName == "" || content == nil {
		return "", apperrors.NewValidationError("please provide both project name and video", nil)
	}

	s.mu.Lock()
	project := s.project.Name
	s.mu.Unlock()

	tracker := s.tracker("upload:" + project)
	tracker.Update(10, "uploading video")

	key := fmt.Sprintf("%s_%d_%s", project, time.Now().UnixMilli(), fileName)
	if err := s.objects.Upload(ctx, key, content, contentType); err != nil {
		tracker.Fail(userMessage("upload failed", err))
		return "", err
	}

	url := s.objects.PublicURL(key)

	s.mu.Lock()
	s.video.RemoteURL = url
	s.mu.Unlock()

	tracker.Complete("video uploaded")
	return url, nil
}

// ProcessVideo submits the uploaded video for analysis, replaces the model
// with the detected events, retains the Wwise import map, and selects the
// first event. On failure the video URL stays populated and the model stays
// empty so processing can be retried without a new upload.
func (s *Session) ProcessVideo(ctx context.Context) ([]models.Event, error) {
	s.mu.Lock()
	videoURL := s.video.RemoteURL
	project := s.project.Name
	epoch := s.epoch
	s.mu.Unlock()

	if videoURL == "" {
		return nil, apperrors.NewValidationError("no uploaded video to process", nil)
	}

	tracker := s.tracker("process:" + project)
	tracker.Update(10, "analyzing video")

	result, err := s.generator.ProcessVideo(ctx, videoURL, project)
	if err != nil {
		logger.Get().Error("video processing failed", logger.Fields{"project": project, "error": err})
		tracker.Fail(userMessage("processing failed", err))
		return nil, err
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		tracker.Fail("session was reset during processing")
		return nil, apperrors.NewConflictError("session was reset during processing", nil)
	}

	if err := s.model.Load(result.Events); err != nil {
		s.mu.Unlock()
		tracker.Fail(userMessage("processing failed", err))
		return nil, err
	}
	s.wwise = result.WwiseImportMap
	s.editing = nil
	s.mu.Unlock()

	events := s.model.Events()
	if len(events) > 0 {
		s.model.Select(events[0].ID)
	}

	tracker.Complete(fmt.Sprintf("%d events detected", len(events)))
	logger.Get().Info("video processing complete", logger.Fields{"project": project, "events": len(events)})
	return events, nil
}

// Events returns the timeline events in display order.
func (s *Session) Events() []models.Event {
	return s.model.Events()
}

// SelectEvent selects an event by ID.
func (s *Session) SelectEvent(id string) (models.Event, error) {
	return s.model.Select(id)
}

// Selected returns the currently selected event.
func (s *Session) Selected() (models.Event, bool) {
	return s.model.GetSelected()
}

// BeginPromptEdit puts one (event, index) pair into prompt-edit mode,
// replacing any previous edit slot. Fails when the target does not exist.
func (s *Session) BeginPromptEdit(eventID string, index int) error {
	if err := s.checkPair(eventID, index); err != nil {
		return err
	}

	s.mu.Lock()
	s.editing = &pairKey{eventID: eventID, index: index}
	s.mu.Unlock()
	return nil
}

// CancelPromptEdit leaves prompt-edit mode.
func (s *Session) CancelPromptEdit() {
	s.mu.Lock()
	s.editing = nil
	s.mu.Unlock()
}

// Editing returns the pair currently in prompt-edit mode, if any.
func (s *Session) Editing() (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return "", 0, false
	}
	return s.editing.eventID, s.editing.index, true
}

// CreateManualEvent validates all fields before any network call, asks the
// generation service to create the event, then re-derives the authoritative
// event list from the asset store (ordered by timestamp ascending, duration
// defaulted to 1.0) and replaces the model with it.
func (s *Session) CreateManualEvent(ctx context.Context, name string, start, duration float64, prompt string) ([]models.Event, error) {
	s.mu.Lock()
	project := s.project.Name
	videoURL := s.video.RemoteURL
	epoch := s.epoch
	s.mu.Unlock()

	if name == "" || prompt == "" || videoURL == "" || project == "" {
		return nil, apperrors.NewValidationError("please fill all fields", nil)
	}
	if start < 0 {
		return nil, apperrors.NewValidationError("start must not be negative", nil)
	}
	if duration <= 0 {
		return nil, apperrors.NewValidationError("duration must be positive", nil)
	}

	err := s.generator.CreateManualEvent(ctx, generation.ManualEventRequest{
		Project:    project,
		VideoURL:   videoURL,
		EventName:  name,
		Start:      start,
		Duration:   duration,
		TextPrompt: prompt,
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to create event", apperrors.ErrorTypeRemoteService)
	}

	records, err := s.assets.ListByProject(ctx, project)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to create event", apperrors.ErrorTypeStorage)
	}

	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, models.Event{
			ID:         rec.ID,
			Name:       rec.EventName,
			Start:      rec.Timestamp,
			Duration:   defaultRederivedDuration,
			Variations: rec.Variations,
			Prompts:    rec.Prompts,
		})
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError("session was reset during event creation", nil)
	}
	if err := s.model.Load(events); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.editing = nil
	s.mu.Unlock()

	return s.model.Events(), nil
}

// RegenerateVariation re-invokes generation for one variation slot. At most
// one regeneration may be in flight per (event, index) pair; a duplicate is
// rejected client-side without a request being sent. Different indices of
// the same event may run concurrently. On success the model is updated and
// prompt-edit mode for that pair ends; on failure edit mode stays active
// and the previous variation and prompt are untouched.
func (s *Session) RegenerateVariation(ctx context.Context, eventID string, index int, newPrompt string) (models.VariationRef, error) {
	if newPrompt == "" {
		return models.VariationRef{}, apperrors.NewValidationError("prompt is required", nil)
	}

	event, err := s.eventForPair(eventID, index)
	if err != nil {
		return models.VariationRef{}, err
	}

	key := pairKey{eventID: eventID, index: index}

	s.mu.Lock()
	if s.inflight[key] {
		s.mu.Unlock()
		return models.VariationRef{}, apperrors.NewConflictError(
			fmt.Sprintf("variation %d of event %q is already regenerating", index, eventID), nil)
	}
	s.inflight[key] = true
	videoURL := s.video.RemoteURL
	epoch := s.epoch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()

	ref, err := s.generator.RegenerateVariation(ctx, generation.RegenerateRequest{
		EventID:        eventID,
		VariationIndex: index,
		VideoURL:       videoURL,
		Start:          event.Start,
		Duration:       event.Duration,
		TextPrompt:     newPrompt,
	})
	if err != nil {
		logger.Get().Error("variation regeneration failed",
			logger.Fields{"event": eventID, "index": index, "error": err})
		return models.VariationRef{}, apperrors.WrapError(err, "failed to regenerate", apperrors.ErrorTypeRemoteService)
	}

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return models.VariationRef{}, apperrors.NewConflictError("session was reset during regeneration", nil)
	}
	s.mu.Unlock()

	if err := s.model.UpdateVariation(eventID, index, ref); err != nil {
		return models.VariationRef{}, err
	}

	s.mu.Lock()
	if s.editing != nil && *s.editing == key {
		s.editing = nil
	}
	s.mu.Unlock()

	return ref, nil
}

// RegenerateAllVariations fans regeneration out over every variation slot
// of the event, reusing each slot's current prompt. Slots with a
// regeneration already in flight are skipped; the rest run concurrently
// since variations are independent artifacts.
func (s *Session) RegenerateAllVariations(ctx context.Context, eventID string) error {
	event, err := s.findEvent(eventID)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range event.Variations {
		index := i
		prompt := event.Prompts[i]
		g.Go(func() error {
			_, err := s.RegenerateVariation(ctx, eventID, index, prompt)
			if apperrors.IsConflictError(err) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// PlayVariation auditions a variation of the selected event: the video
// seeks to the event start, plays, and auto-pauses after the event
// duration.
func (s *Session) PlayVariation(index int) error {
	event, ok := s.model.GetSelected()
	if !ok {
		return apperrors.NewNotFoundError("no event selected", nil)
	}
	if index < 0 || index >= len(event.Variations) {
		return apperrors.NewOutOfRangeError(
			fmt.Sprintf("variation index %d out of range [0,%d)", index, len(event.Variations)), nil)
	}

	s.controller.OnVariationPlay(event)
	return nil
}

// PauseVariation stops the audition.
func (s *Session) PauseVariation() {
	s.controller.OnVariationPause()
}

// VariationEnded reports that the audio finished on its own.
func (s *Session) VariationEnded() {
	s.controller.OnVariationEnded()
}

// PlaybackStatus returns the playback controller's current state.
func (s *Session) PlaybackStatus() playback.Status {
	return s.controller.CurrentStatus()
}

// WwiseImportMap returns the raw import map last received from processing.
func (s *Session) WwiseImportMap() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wwise
}

// ExportWwise wraps the last received import map in a downloadable
// artifact named `${project}_wwise_import.txt`.
func (s *Session) ExportWwise() (*models.ExportResult, error) {
	s.mu.Lock()
	mapText := s.wwise
	project := s.project.Name
	s.mu.Unlock()

	return s.encoder.Encode(mapText, project)
}

// Reset tears the session state down: the pending playback timer is
// cancelled, the local preview handle is released exactly once, the model
// and import map are discarded, and in-flight network completions are
// invalidated so they cannot merge into the fresh state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	release := s.releasePreview
	s.releasePreview = nil
	s.video = models.VideoAsset{}
	s.wwise = ""
	s.editing = nil
	s.mu.Unlock()

	s.controller.Reset()
	s.model.Clear()

	if release != nil {
		release()
	}
}

func (s *Session) findEvent(eventID string) (models.Event, error) {
	for _, e := range s.model.Events() {
		if e.ID == eventID {
			return e, nil
		}
	}
	return models.Event{}, apperrors.NewNotFoundError(fmt.Sprintf("no event with id %q", eventID), nil)
}

func (s *Session) eventForPair(eventID string, index int) (models.Event, error) {
	event, err := s.findEvent(eventID)
	if err != nil {
		return models.Event{}, err
	}
	if index < 0 || index >= len(event.Variations) {
		return models.Event{}, apperrors.NewOutOfRangeError(
			fmt.Sprintf("variation index %d out of range [0,%d)", index, len(event.Variations)), nil)
	}
	return event, nil
}

func (s *Session) checkPair(eventID string, index int) error {
	_, err := s.eventForPair(eventID, index)
	return err
}

// tracker returns a progress tracker, tolerating a session wired without a
// progress service (tests).
func (s *Session) tracker(taskID string) *progress.Tracker {
	if s.progress == nil {
		return progress.NewService().CreateTracker(taskID)
	}
	return s.progress.CreateTracker(taskID)
}

// userMessage builds the single human-readable message surfaced to the
// user, preferring the server-provided detail carried inside err.
func userMessage(prefix string, err error) string {
	return fmt.Sprintf("%s: %v", prefix, err)
}
