// internal/progress/progress.go
package progress

import (
	"sync"
	"time"
)

// Task status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Update is one progress notification.
type Update struct {
	TaskID   string `json:"task_id"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// Tracker tracks one long-running task (upload, processing) and fans
// updates out to subscribers.
type Tracker struct {
	taskID     string
	progress   int
	message    string
	status     string
	startTime  time.Time
	updateTime time.Time

	subscribers map[chan Update]bool
	mu          sync.Mutex
}

// Service manages all trackers.
type Service struct {
	trackers map[string]*Tracker
	mu       sync.RWMutex
}

// NewService creates an empty progress service.
func NewService() *Service {
	return &Service{
		trackers: make(map[string]*Tracker),
	}
}

// CreateTracker creates a tracker for taskID, returning the existing one if
// the task is already tracked.
func (s *Service) CreateTracker(taskID string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	tracker := &Tracker{
		taskID:      taskID,
		message:     "starting",
		status:      StatusRunning,
		startTime:   time.Now(),
		updateTime:  time.Now(),
		subscribers: make(map[chan Update]bool),
	}
	s.trackers[taskID] = tracker
	return tracker
}

// GetTracker returns the tracker for taskID.
func (s *Service) GetTracker(taskID string) (*Tracker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// RemoveTracker drops a tracker once its task is finished.
func (s *Service) RemoveTracker(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trackers, taskID)
}

// Update advances the task progress. Progress never moves backwards.
func (t *Tracker) Update(progress int, message string) {
	t.mu.Lock()
	if progress > t.progress {
		t.progress = progress
	}
	if message != "" {
		t.message = message
	}
	t.updateTime = time.Now()
	update := t.snapshotLocked()
	t.mu.Unlock()

	t.publish(update)
}

// Complete marks the task finished.
func (t *Tracker) Complete(message string) {
	t.finish(StatusCompleted, 100, message)
}

// Fail marks the task failed with the user-visible message.
func (t *Tracker) Fail(message string) {
	t.finish(StatusFailed, t.progress, message)
}

func (t *Tracker) finish(status string, progress int, message string) {
	t.mu.Lock()
	t.status = status
	if progress > t.progress {
		t.progress = progress
	}
	if message != "" {
		t.message = message
	}
	t.updateTime = time.Now()
	update := t.snapshotLocked()
	t.mu.Unlock()

	t.publish(update)
}

// Subscribe registers a channel that receives every subsequent update. The
// channel is buffered; a slow subscriber misses updates rather than
// blocking the task.
func (t *Tracker) Subscribe() chan Update {
	ch := make(chan Update, 16)

	t.mu.Lock()
	t.subscribers[ch] = true
	ch <- t.snapshotLocked()
	t.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel.
func (t *Tracker) Unsubscribe(ch chan Update) {
	t.mu.Lock()
	delete(t.subscribers, ch)
	t.mu.Unlock()
}

// Snapshot returns the current state of the task.
func (t *Tracker) Snapshot() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Update {
	return Update{
		TaskID:   t.taskID,
		Progress: t.progress,
		Message:  t.message,
		Status:   t.status,
	}
}

func (t *Tracker) publish(update Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
			// Subscriber is not keeping up; drop this update for it.
		}
	}
}
