// internal/api/handlers.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	apperrors "github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/models"
	"github.com/mirelio/gameforge/internal/playback"
	"github.com/mirelio/gameforge/internal/progress"
	"github.com/mirelio/gameforge/internal/session"
)

// AssetStore is the persisted-asset surface the API consumes: the session's
// read side plus the project-list aggregate.
type AssetStore interface {
	session.AssetStore
	ListProjects(ctx context.Context) ([]models.ProjectSummary, error)
}

// Handler exposes the editing session over HTTP. The engine is a
// single-session, single-user controller: one session is active at a time
// and creating a new one tears the previous one down.
type Handler struct {
	mu      sync.Mutex
	current *session.Session

	generator session.Generator
	objects   session.ObjectStore
	assets    AssetStore
	progress  *progress.Service
	hub       *StatusHub
	resp      *ResponseHelper
}

// NewHandler creates the API handler.
func NewHandler(generator session.Generator, objects session.ObjectStore, assets AssetStore,
	progressSvc *progress.Service, hub *StatusHub) *Handler {
	return &Handler{
		generator: generator,
		objects:   objects,
		assets:    assets,
		progress:  progressSvc,
		hub:       hub,
		resp:      NewResponseHelper(),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	h.resp.Success(c, gin.H{"status": "ok"})
}

// ListProjects returns per-project summaries from the asset store.
func (h *Handler) ListProjects(c *gin.Context) {
	summaries, err := h.assets.ListProjects(c.Request.Context())
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Success(c, summaries)
}

type createSessionRequest struct {
	Name string `json:"name"`
}

// CreateSession starts a fresh session for a project, resetting any
// previous one first.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "invalid request body")
		return
	}

	sess, err := session.New(req.Name, h.generator, h.objects, h.assets,
		newRemoteSurface(h.hub), h.broadcastPlayback, h.progress)
	if err != nil {
		h.resp.Error(c, err)
		return
	}

	h.mu.Lock()
	prev := h.current
	h.current = sess
	h.mu.Unlock()

	if prev != nil {
		prev.Reset()
	}

	h.resp.Created(c, sess.Project())
}

// ResetSession discards the current session state.
func (h *Handler) ResetSession(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}
	sess.Reset()
	h.resp.Success(c, nil, "session reset")
}

// UploadVideo stores the multipart video file and returns its public URL.
func (h *Handler) UploadVideo(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		h.resp.BadRequest(c, "video file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.resp.Error(c, apperrors.NewStorageError("failed to read uploaded file", err))
		return
	}
	defer file.Close()

	url, err := sess.UploadVideo(c.Request.Context(), fileHeader.Filename, file,
		fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.resp.Error(c, err)
		return
	}

	h.resp.Success(c, gin.H{"video_url": url})
}

// ProcessVideo submits the uploaded video for analysis, piping progress
// updates to the status socket while the call runs.
func (h *Handler) ProcessVideo(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	taskID := "process:" + sess.Project().Name
	tracker := h.progress.CreateTracker(taskID)
	updates := tracker.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range updates {
			h.hub.Broadcast("progress", update)
			if update.Status != progress.StatusRunning {
				return
			}
		}
	}()

	events, err := sess.ProcessVideo(c.Request.Context())

	tracker.Unsubscribe(updates)
	close(updates)
	<-done
	h.progress.RemoveTracker(taskID)

	if err != nil {
		h.resp.Error(c, err)
		return
	}

	h.resp.Success(c, gin.H{
		"events":           events,
		"wwise_import_map": sess.WwiseImportMap() != "",
	})
}

// ListEvents returns the timeline and the current selection.
func (h *Handler) ListEvents(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	payload := gin.H{"events": sess.Events()}
	if selected, ok := sess.Selected(); ok {
		payload["selected_id"] = selected.ID
	}
	h.resp.Success(c, payload)
}

// SelectEvent selects an event by ID.
func (h *Handler) SelectEvent(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	event, err := sess.SelectEvent(c.Param("id"))
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Success(c, event)
}

type manualEventRequest struct {
	Name     string  `json:"name"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Prompt   string  `json:"prompt"`
}

// CreateManualEvent creates a user-defined event and returns the re-derived
// timeline.
func (h *Handler) CreateManualEvent(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	var req manualEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "invalid request body")
		return
	}

	events, err := sess.CreateManualEvent(c.Request.Context(), req.Name, req.Start, req.Duration, req.Prompt)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Created(c, gin.H{"events": events})
}

// BeginEdit puts a variation slot into prompt-edit mode.
func (h *Handler) BeginEdit(c *gin.Context) {
	sess, index, ok := h.sessionAndIndex(c)
	if !ok {
		return
	}

	if err := sess.BeginPromptEdit(c.Param("id"), index); err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Success(c, nil)
}

// CancelEdit leaves prompt-edit mode.
func (h *Handler) CancelEdit(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}
	sess.CancelPromptEdit()
	h.resp.Success(c, nil)
}

type regenerateRequest struct {
	Prompt string `json:"prompt"`
}

// RegenerateVariation regenerates one variation slot with a new prompt.
func (h *Handler) RegenerateVariation(c *gin.Context) {
	sess, index, ok := h.sessionAndIndex(c)
	if !ok {
		return
	}

	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "invalid request body")
		return
	}

	ref, err := sess.RegenerateVariation(c.Request.Context(), c.Param("id"), index, req.Prompt)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Success(c, ref)
}

// RegenerateAll fans regeneration out over every slot of an event.
func (h *Handler) RegenerateAll(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	if err := sess.RegenerateAllVariations(c.Request.Context(), c.Param("id")); err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Success(c, gin.H{"events": sess.Events()})
}

type playRequest struct {
	Index int `json:"index"`
}

// PlaybackPlay starts an audition of the selected event.
func (h *Handler) PlaybackPlay(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "invalid request body")
		return
	}

	if err := sess.PlayVariation(req.Index); err != nil {
		h.resp.Error(c, err)
		return
	}
	h.resp.Success(c, sess.PlaybackStatus())
}

// PlaybackPause stops the audition.
func (h *Handler) PlaybackPause(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}
	sess.PauseVariation()
	h.resp.Success(c, sess.PlaybackStatus())
}

// PlaybackEnded reports that the audio finished on its own.
func (h *Handler) PlaybackEnded(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}
	sess.VariationEnded()
	h.resp.Success(c, sess.PlaybackStatus())
}

// ExportWwise serves the import map as a plain-text download.
func (h *Handler) ExportWwise(c *gin.Context) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return
	}

	result, err := sess.ExportWwise()
	if err != nil {
		h.resp.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) session() (*session.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.current != nil
}

func (h *Handler) sessionAndIndex(c *gin.Context) (*session.Session, int, bool) {
	sess, ok := h.session()
	if !ok {
		h.noSession(c)
		return nil, 0, false
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.resp.BadRequest(c, "variation index must be an integer")
		return nil, 0, false
	}
	return sess, index, true
}

func (h *Handler) noSession(c *gin.Context) {
	c.JSON(http.StatusNotFound, &APIResponse{
		Success: false,
		Message: "no active session",
		Code:    ErrorNoActiveSession,
	})
}

func (h *Handler) broadcastPlayback(status playback.Status) {
	h.hub.Broadcast("playback", status)
}
