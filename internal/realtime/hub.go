// Package realtime fans table-change notifications out to subscribers.
// Notifications only say that a row changed; subscribers refetch what they
// display.
package realtime

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"marketplace-service/prometheus"

	"github.com/google/uuid"
)

// Table names carried by change notifications
const (
	TableProfiles   = "profiles"
	TableSuppliers  = "suppliers"
	TableProducts   = "products"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TableFavorites  = "favorites"
	TableMessages   = "messages"
)

// Event is a bit set of change kinds
type Event uint8

const (
	EventInsert Event = 1 << iota
	EventUpdate
	EventDelete

	EventAll = EventInsert | EventUpdate | EventDelete
)

var eventNames = []struct {
	event Event
	name  string
}{
	{EventInsert, "INSERT"},
	{EventUpdate, "UPDATE"},
	{EventDelete, "DELETE"},
}

func (e Event) String() string {
	if e == EventAll {
		return "*"
	}
	var names []string
	for _, en := range eventNames {
		if e&en.event != 0 {
			names = append(names, en.name)
		}
	}
	return strings.Join(names, ",")
}

func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ParseEvents parses a comma separated event list. "*" and the empty string
// select every event.
func ParseEvents(s string) (Event, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return EventAll, nil
	}
	var mask Event
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "*" {
			return EventAll, nil
		}
		found := false
		for _, en := range eventNames {
			if en.name == part {
				mask |= en.event
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown event %q", part)
		}
	}
	return mask, nil
}

// Change announces that one row of a table was written. A change with an
// Audience is only for those profiles.
type Change struct {
	Table    string      `json:"table"`
	Event    Event       `json:"event"`
	RecordID uuid.UUID   `json:"record_id"`
	At       time.Time   `json:"at"`
	Audience []uuid.UUID `json:"-"`
}

// VisibleTo reports whether the profile may receive the change
func (c Change) VisibleTo(profileID uuid.UUID) bool {
	if len(c.Audience) == 0 {
		return true
	}
	for _, id := range c.Audience {
		if id == profileID {
			return true
		}
	}
	return false
}

// Handle identifies a subscription
type Handle uint64

type subscription struct {
	table    string
	mask     Event
	callback func(Change)
}

// Hub is an in-process publish/subscribe point for table changes
type Hub struct {
	mu   sync.Mutex
	next Handle
	subs map[Handle]subscription
}

// NewHub creates a hub with no subscribers
func NewHub() *Hub {
	return &Hub{subs: make(map[Handle]subscription)}
}

// Subscribe registers cb for changes of table whose event is in mask
func (h *Hub) Subscribe(table string, mask Event, cb func(Change)) Handle {
	h.mu.Lock()
	h.next++
	handle := h.next
	h.subs[handle] = subscription{table: table, mask: mask, callback: cb}
	count := len(h.subs)
	h.mu.Unlock()

	prometheus.UpdateRealtimeSubscribers(count)
	return handle
}

// Unsubscribe removes a subscription. It reports whether the handle was known.
func (h *Hub) Unsubscribe(handle Handle) bool {
	h.mu.Lock()
	_, ok := h.subs[handle]
	delete(h.subs, handle)
	count := len(h.subs)
	h.mu.Unlock()

	prometheus.UpdateRealtimeSubscribers(count)
	return ok
}

// Publish delivers c to every matching subscriber. Callbacks run on the
// caller's goroutine after the hub lock is released.
func (h *Hub) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}

	h.mu.Lock()
	var targets []func(Change)
	for _, sub := range h.subs {
		if sub.table == c.Table && sub.mask&c.Event != 0 {
			targets = append(targets, sub.callback)
		}
	}
	h.mu.Unlock()

	for _, cb := range targets {
		cb(c)
	}
}

// Len reports the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
