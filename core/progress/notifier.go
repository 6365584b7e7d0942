package progress

import (
	"sync"
	"time"

	"github.com/padhq/launchpad/core/project"
)

type EventKind string

const (
	// EventFieldConfirmed fires when a field's status transitions to confirmed.
	EventFieldConfirmed EventKind = "field_confirmed"
	// EventSectionSaved fires after a form section is persisted.
	EventSectionSaved EventKind = "section_saved"
	// EventManualRefresh fires on a user-initiated recalculation.
	EventManualRefresh EventKind = "manual_refresh"
)

// Event signals that a project's progress may be stale and must be
// recomputed before the next display.
type Event struct {
	ProjectID string            `json:"project_id"`
	Kind      EventKind         `json:"kind"`
	Section   project.Section   `json:"section,omitempty"`
	Field     project.FieldName `json:"field,omitempty"`
	At        time.Time         `json:"at"` // UTC
}

// subscriber channels are buffered; a subscriber that falls this far behind
// starts dropping events and must rely on its poll fallback.
const subscriberBuffer = 16

// Broker is an in-process pub/sub hub keyed by project id. Write paths
// publish invalidation events through it (it implements
// project.ChangeListener); progress consumers subscribe per project.
// Publishing never blocks.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan Event
	nextID int
}

var _ project.ChangeListener = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers for a project's invalidation events. The returned
// cancel func must be called when the consuming view goes away, so no event
// is delivered after disposal.
func (b *Broker) Subscribe(projectID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, subscriberBuffer)

	if b.subs[projectID] == nil {
		b.subs[projectID] = make(map[int]chan Event)
	}
	b.subs[projectID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subs[projectID]; ok {
			if ch, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.subs, projectID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the project. Slow
// subscribers with a full buffer miss the event.
func (b *Broker) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[evt.ProjectID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// project.ChangeListener implementation

func (b *Broker) SectionSaved(projectID string, section project.Section) {
	b.Publish(Event{ProjectID: projectID, Kind: EventSectionSaved, Section: section})
}

func (b *Broker) FieldConfirmed(projectID string, section project.Section, field project.FieldName) {
	b.Publish(Event{ProjectID: projectID, Kind: EventFieldConfirmed, Section: section, Field: field})
}

func (b *Broker) ManualRefresh(projectID string) {
	b.Publish(Event{ProjectID: projectID, Kind: EventManualRefresh})
}
