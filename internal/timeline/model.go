// internal/timeline/model.go
package timeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/models"
)

// Model is the single source of truth for events and the current selection.
// Events are kept in arrival order; the model never re-sorts by start time,
// so out-of-order timelines are valid input.
//
// All reads return copies. The internal slices are mutated only through the
// operations below.
type Model struct {
	mu         sync.RWMutex
	events     []models.Event
	selectedID string
}

// NewModel creates an empty timeline model.
func NewModel() *Model {
	return &Model{}
}

// Load replaces the entire collection and clears the selection. Events that
// arrive without an ID are assigned one here so selection and updates can
// key by stable identity rather than display name. Fails with a validation
// error when any event's variations and prompts are not index-aligned.
func (m *Model) Load(events []models.Event) error {
	for _, e := range events {
		if len(e.Variations) != len(e.Prompts) {
			return errors.NewValidationError(
				fmt.Sprintf("event %q has %d variations but %d prompts", e.Name, len(e.Variations), len(e.Prompts)), nil)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		m.events = append(m.events, e.Clone())
	}
	m.selectedID = ""
	return nil
}

// Select sets the current selection and returns the event. Selection keys
// exclusively by ID; duplicate display names cannot select the wrong event.
func (m *Model) Select(id string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.ID == id {
			m.selectedID = id
			return e.Clone(), nil
		}
	}
	return models.Event{}, errors.NewNotFoundError(fmt.Sprintf("no event with id %q", id), nil)
}

// GetSelected returns the currently selected event, re-read from the live
// collection so an update to the selected event is visible immediately.
func (m *Model) GetSelected() (models.Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.selectedID == "" {
		return models.Event{}, false
	}
	for _, e := range m.events {
		if e.ID == m.selectedID {
			return e.Clone(), true
		}
	}
	return models.Event{}, false
}

// AddEvent appends an event without re-sorting by start time. An event
// without an ID is assigned one; the stored event is returned.
func (m *Model) AddEvent(event models.Event) (models.Event, error) {
	if len(event.Variations) != len(event.Prompts) {
		return models.Event{}, errors.NewValidationError(
			fmt.Sprintf("event %q has %d variations but %d prompts", event.Name, len(event.Variations), len(event.Prompts)), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	m.events = append(m.events, event.Clone())
	return event, nil
}

// UpdateVariation replaces the URL and prompt at index atomically; an
// observer never sees a half-updated pair. All other entries and events are
// untouched. Because GetSelected re-reads the live collection, an update to
// the selected event is reflected synchronously.
func (m *Model) UpdateVariation(eventID string, index int, variation models.VariationRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.events {
		if m.events[i].ID != eventID {
			continue
		}
		if index < 0 || index >= len(m.events[i].Variations) {
			return errors.NewOutOfRangeError(
				fmt.Sprintf("variation index %d out of range [0,%d)", index, len(m.events[i].Variations)), nil)
		}
		m.events[i].Variations[index] = variation.URL
		m.events[i].Prompts[index] = variation.Prompt
		return nil
	}
	return errors.NewNotFoundError(fmt.Sprintf("no event with id %q", eventID), nil)
}

// Events returns a copy of the event collection in arrival order.
func (m *Model) Events() []models.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Clone())
	}
	return out
}

// Len returns the number of events.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Clear discards all events and the selection.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = nil
	m.selectedID = ""
}
