package kds

import (
	"sync"
	"time"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// Event types
const (
	EventOrderCreated  = "order_created"
	EventOrderModified = "order_modified"
	EventOrderStatus   = "order_status"
	EventTableStatus   = "table_status"
	EventOrderServed   = "order_served"
)

// Event describes one committed change to an order. Order carries the state
// after the change when the publisher has it at hand.
type Event struct {
	Type        string        `json:"event"`
	OrderID     uint          `json:"order_id"`
	TableNumber int           `json:"table_number"`
	Order       *models.Order `json:"order,omitempty"`
	At          time.Time     `json:"at"`
}

// Hub is the single change stream for orders. Kitchen, waiter and admin
// screens, the in-memory feed and websocket clients all subscribe here.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

type subscriber struct {
	events chan Event
	// dropped holds at most one pending signal that events were lost.
	dropped chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers a listener. The returned teardown removes it and closes
// the channel; calling it again is a no-op.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	events, _, teardown := h.SubscribeWithDrops(buffer)
	return events, teardown
}

// SubscribeWithDrops is Subscribe plus a channel that is signalled whenever
// Publish had to drop an event for this subscriber. Listeners keeping state
// derived from the stream use it to resynchronize.
func (h *Hub) SubscribeWithDrops(buffer int) (<-chan Event, <-chan struct{}, func()) {
	sub := &subscriber{
		events:  make(chan Event, buffer),
		dropped: make(chan struct{}, 1),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.events)
		return sub.events, sub.dropped, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.events)
			}
		})
	}
	return sub.events, sub.dropped, teardown
}

// Publish fans ev out without blocking. A subscriber whose buffer is full
// misses the event and gets a drop signal instead.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			utils.ErrorLogger.Printf("kds: subscriber %d is full, dropped %s for order %d", id, ev.Type, ev.OrderID)
			select {
			case sub.dropped <- struct{}{}:
			default:
			}
		}
	}
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.events)
	}
	h.closed = true
}
