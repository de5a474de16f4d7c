// internal/playback/controller.go
package playback

import (
	"sync"
	"time"

	"github.com/mirelio/gameforge/internal/models"
)

// VideoSurface is the video element the controller drives. Implementations
// are provided by the frontend bridge; the controller only issues commands.
type VideoSurface interface {
	Seek(seconds float64)
	Play()
	Pause()
}

// State of the controller. Armed means a stop timer is pending.
type State string

const (
	StateIdle  State = "idle"
	StateArmed State = "armed"
)

// Status is a snapshot of the controller, pushed to status subscribers on
// every transition.
type Status struct {
	State    State   `json:"state"`
	EventID  string  `json:"event_id,omitempty"`
	Start    float64 `json:"start,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Controller keeps a video surface's play position consistent with the
// audio variation being auditioned. It owns at most one pending stop timer;
// every path that arms a new timer cancels the previous one first, and
// every path out of Armed (pause, ended, a new play, reset) cancels it.
type Controller struct {
	mu    sync.Mutex
	video VideoSurface

	timer      *time.Timer
	generation uint64
	state      State
	armedID    string
	armedStart float64
	armedDur   float64

	notify func(Status)
}

// NewController creates an idle controller for the given video surface.
// notify may be nil.
func NewController(video VideoSurface, notify func(Status)) *Controller {
	return &Controller{
		video:  video,
		state:  StateIdle,
		notify: notify,
	}
}

// OnVariationPlay starts an audition of the given event: any pending stop
// timer is cancelled, the video seeks to the event start and plays, and a
// new stop timer is armed for the event duration. Starting a new audition
// always supersedes a previous one rather than stacking.
func (c *Controller) OnVariationPlay(event models.Event) {
	c.mu.Lock()

	c.cancelTimerLocked()
	c.generation++
	gen := c.generation

	c.video.Seek(event.Start)
	c.video.Play()

	c.timer = time.AfterFunc(secondsToDuration(event.Duration), func() {
		c.onTimerFired(gen)
	})
	c.state = StateArmed
	c.armedID = event.ID
	c.armedStart = event.Start
	c.armedDur = event.Duration

	status := c.statusLocked()
	c.mu.Unlock()

	c.emit(status)
}

// OnVariationPause cancels any pending stop timer and pauses the video.
// Calling it with no timer pending is a no-op on the timer and still pauses
// the video, so repeated calls are idempotent.
func (c *Controller) OnVariationPause() {
	c.stopAudition()
}

// OnVariationEnded behaves identically to OnVariationPause: the audition is
// over, so the video stops and the timer is cancelled.
func (c *Controller) OnVariationEnded() {
	c.stopAudition()
}

// Reset cancels any pending timer and returns to Idle without touching the
// video surface, which is being torn down along with the session.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelTimerLocked()
	c.toIdleLocked()
	status := c.statusLocked()
	c.mu.Unlock()

	c.emit(status)
}

// CurrentStatus returns a snapshot of the controller state.
func (c *Controller) CurrentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) stopAudition() {
	c.mu.Lock()
	c.cancelTimerLocked()
	c.video.Pause()
	c.toIdleLocked()
	status := c.statusLocked()
	c.mu.Unlock()

	c.emit(status)
}

// onTimerFired pauses the video when the armed duration elapses. A fire
// that raced with a supersession or cancellation is detected by the
// generation check and discarded.
func (c *Controller) onTimerFired(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.video.Pause()
	c.toIdleLocked()
	status := c.statusLocked()
	c.mu.Unlock()

	c.emit(status)
}

func (c *Controller) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// Invalidate any fire already in flight.
	c.generation++
}

func (c *Controller) toIdleLocked() {
	c.state = StateIdle
	c.armedID = ""
	c.armedStart = 0
	c.armedDur = 0
}

func (c *Controller) statusLocked() Status {
	return Status{
		State:    c.state,
		EventID:  c.armedID,
		Start:    c.armedStart,
		Duration: c.armedDur,
	}
}

func (c *Controller) emit(status Status) {
	if c.notify != nil {
		c.notify(status)
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
