package workbook

import (
	"sync"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
)

// EventType names a bus message.
type EventType string

const (
	// DataChanged is published after a committed grid mutation.
	DataChanged EventType = "data-changed"
	// RulesChanged is published after a rule set mutation.
	RulesChanged EventType = "rule-changed"
	// SheetSwitched is published after the active sheet changes.
	SheetSwitched EventType = "sheet-switched"
)

// Event is a bus message.
type Event struct {
	Type EventType `json:"type"`
	// SheetID identifies the sheet the event is about. For SheetSwitched it
	// is the newly active sheet.
	SheetID string `json:"sheetId"`
	// Change is set for DataChanged.
	Change grid.Change `json:"change"`
	// From and To are the previous and new active indexes for SheetSwitched.
	From int `json:"from"`
	To   int `json:"to"`
}

// Bus delivers events to subscribers synchronously, in subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber with e.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}
