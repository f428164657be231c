// Package notify delivers freshly stored notifications to live websocket
// subscribers and to linked Telegram chats.
package notify

import (
	"sync"

	"github.com/elmasnur/nurcombinator/internal/models"
)

// subscriberBuffer is how many undelivered notifications a subscriber may
// have before new ones are dropped for it.
const subscriberBuffer = 16

type subscriber struct {
	ch chan models.Notification
}

// Hub fans notifications out to the open streams of their recipient.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a stream for userID. The returned cancel function
// unregisters it and closes the channel; it may be called more than once.
func (h *Hub) Subscribe(userID string) (<-chan models.Notification, func()) {
	s := &subscriber{ch: make(chan models.Notification, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], s)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// Publish hands n to every stream of its recipient without blocking. It
// returns how many streams accepted it.
func (h *Hub) Publish(n models.Notification) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.subs[n.UserID] {
		select {
		case s.ch <- n:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of open streams of userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
