// Package board holds the session's display model: the generate control,
// the status line, the progress indicator and the rendered cards. Observers
// subscribe to a stream of changes.
package board

import (
	"sync"
	"time"

	"github.com/ChaseRain/storycards/internal/service/generation"
	"github.com/ChaseRain/storycards/internal/service/render"
)

type EventKind string

const (
	EventState    EventKind = "state"
	EventStatus   EventKind = "status"
	EventProgress EventKind = "progress"
	EventControl  EventKind = "control"
	EventClear    EventKind = "clear"
	EventCard     EventKind = "card"
)

// Event is one display change. Data holds the new value: the state or
// status string, the progress float64, the control bool, or a render.Card.
type Event struct {
	Kind EventKind `json:"kind"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

type Snapshot struct {
	State          generation.State `json:"state" yaml:"state"`
	Status         string           `json:"status" yaml:"status"`
	Logs           []string         `json:"logs,omitempty" yaml:"logs,omitempty"`
	Progress       float64          `json:"progress" yaml:"progress"`
	ControlEnabled bool             `json:"control_enabled" yaml:"control_enabled"`
	Cards          []render.Card    `json:"cards" yaml:"cards"`
}

var (
	_ generation.Display = (*Board)(nil)
	_ render.Container   = (*Board)(nil)
)

type Board struct {
	mu          sync.RWMutex
	snap        Snapshot
	subscribers map[int]chan Event
	nextID      int
}

func New() *Board {
	return &Board{
		snap: Snapshot{
			State:          generation.StateIdle,
			ControlEnabled: true,
			Cards:          []render.Card{},
		},
		subscribers: make(map[int]chan Event),
	}
}

func (b *Board) SetControlEnabled(enabled bool) {
	b.update(EventControl, enabled, func(s *Snapshot) { s.ControlEnabled = enabled })
}

func (b *Board) ClearStory() {
	b.update(EventClear, nil, func(s *Snapshot) { s.Cards = []render.Card{} })
}

func (b *Board) ShowState(state generation.State) {
	b.update(EventState, string(state), func(s *Snapshot) { s.State = state })
}

func (b *Board) ShowStatus(status string, logs []string) {
	b.update(EventStatus, status, func(s *Snapshot) {
		s.Status = status
		if logs != nil {
			s.Logs = append([]string(nil), logs...)
		}
	})
}

func (b *Board) ShowProgress(percent float64) {
	b.update(EventProgress, percent, func(s *Snapshot) { s.Progress = percent })
}

// Append adds a card after the existing ones.
func (b *Board) Append(card render.Card) {
	b.update(EventCard, card, func(s *Snapshot) { s.Cards = append(s.Cards, card) })
}

// Snapshot returns a copy of the current display.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := b.snap
	snap.Cards = append([]render.Card{}, b.snap.Cards...)
	snap.Logs = append([]string(nil), b.snap.Logs...)
	return snap
}

// Cards returns a copy of the rendered cards.
func (b *Board) Cards() []render.Card {
	return b.Snapshot().Cards
}

// Subscribe returns a channel of future events and a function that ends
// the subscription. Events are dropped for a subscriber whose buffer is full.
func (b *Board) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Board) update(kind EventKind, data any, apply func(*Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	apply(&b.snap)

	ev := Event{Kind: kind, Data: data, At: time.Now()}
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
