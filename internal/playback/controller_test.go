// internal/playback/controller_test.go
package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/mirelio/gameforge/internal/models"
)

// fakeSurface records the commands issued to it.
type fakeSurface struct {
	mu    sync.Mutex
	calls []string
	seeks []float64
}

func (f *fakeSurface) Seek(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "seek")
	f.seeks = append(f.seeks, seconds)
}

func (f *fakeSurface) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "play")
}

func (f *fakeSurface) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "pause")
}

func (f *fakeSurface) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSurface) lastSeek() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seeks) == 0 {
		return 0, false
	}
	return f.seeks[len(f.seeks)-1], true
}

func (f *fakeSurface) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPlaySeeksAndAutoPauses(t *testing.T) {
	surface := &fakeSurface{}
	c := NewController(surface, nil)

	event := models.Event{ID: "e1", Name: "Jump", Start: 1.0, Duration: 0.05,
		Variations: []string{"a.wav"}, Prompts: []string{"jump sfx"}}
	c.OnVariationPlay(event)

	if seek, ok := surface.lastSeek(); !ok || seek != 1.0 {
		t.Errorf("expected seek to 1.0, got %v (ok=%v)", seek, ok)
	}
	if got := c.CurrentStatus(); got.State != StateArmed || got.EventID != "e1" {
		t.Errorf("expected armed on e1, got %+v", got)
	}

	waitFor(t, time.Second, func() bool { return surface.count("pause") == 1 })
	if got := c.CurrentStatus(); got.State != StateIdle {
		t.Errorf("expected idle after auto-pause, got %+v", got)
	}
}

func TestPauseIsIdempotent(t *testing.T) {
	surface := &fakeSurface{}
	c := NewController(surface, nil)

	c.OnVariationPlay(models.Event{ID: "e1", Start: 0, Duration: 10})
	c.OnVariationPause()
	c.OnVariationPause()

	if got := c.CurrentStatus(); got.State != StateIdle {
		t.Errorf("expected idle, got %+v", got)
	}

	// The cancelled 10s timer must never fire a late pause; both pauses came
	// from the explicit calls.
	if n := surface.count("pause"); n != 2 {
		t.Errorf("expected 2 pause calls, got %d", n)
	}
}

func TestNewPlaySupersedesPendingTimer(t *testing.T) {
	surface := &fakeSurface{}
	c := NewController(surface, nil)

	a := models.Event{ID: "a", Start: 1.0, Duration: 10}
	b := models.Event{ID: "b", Start: 7.5, Duration: 0.05}

	c.OnVariationPlay(a)
	c.OnVariationPlay(b)

	if seek, _ := surface.lastSeek(); seek != 7.5 {
		t.Errorf("video must reflect b's start, got seek %v", seek)
	}
	if got := c.CurrentStatus(); got.EventID != "b" {
		t.Errorf("expected armed on b, got %+v", got)
	}

	// Auto-pause comes from b's short timer, not a's 10s one.
	waitFor(t, time.Second, func() bool { return surface.count("pause") == 1 })
	if got := c.CurrentStatus(); got.State != StateIdle {
		t.Errorf("expected idle, got %+v", got)
	}

	// No second pause from a's superseded timer.
	time.Sleep(100 * time.Millisecond)
	if n := surface.count("pause"); n != 1 {
		t.Errorf("superseded timer fired: %d pauses", n)
	}
}

func TestEndedCancelsTimer(t *testing.T) {
	surface := &fakeSurface{}
	c := NewController(surface, nil)

	c.OnVariationPlay(models.Event{ID: "e1", Start: 0, Duration: 0.05})
	c.OnVariationEnded()

	if got := c.CurrentStatus(); got.State != StateIdle {
		t.Errorf("expected idle, got %+v", got)
	}

	time.Sleep(100 * time.Millisecond)
	if n := surface.count("pause"); n != 1 {
		t.Errorf("cancelled timer fired: %d pauses", n)
	}
}

func TestResetCancelsWithoutPausing(t *testing.T) {
	surface := &fakeSurface{}
	c := NewController(surface, nil)

	c.OnVariationPlay(models.Event{ID: "e1", Start: 0, Duration: 0.05})
	c.Reset()

	if got := c.CurrentStatus(); got.State != StateIdle {
		t.Errorf("expected idle after reset, got %+v", got)
	}

	time.Sleep(100 * time.Millisecond)
	if n := surface.count("pause"); n != 0 {
		t.Errorf("reset must not touch the surface, got %d pauses", n)
	}
}

func TestNotifyReceivesTransitions(t *testing.T) {
	surface := &fakeSurface{}

	var mu sync.Mutex
	var states []State
	c := NewController(surface, func(s Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	c.OnVariationPlay(models.Event{ID: "e1", Start: 0, Duration: 10})
	c.OnVariationPause()

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateArmed || states[1] != StateIdle {
		t.Errorf("expected [armed idle], got %v", states)
	}
}
