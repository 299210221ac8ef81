package services

import (
	"sync"

	"soukBack/internal/models"
)

const subscriberBuffer = 16

// Notifier fans auth events out to per-user subscribers. Slow subscribers
// miss events instead of blocking publishers.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan models.AuthEvent]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan models.AuthEvent]struct{})}
}

// Subscribe returns a channel of events for userID and a func that removes the
// subscription and closes the channel. The func is safe to call more than once.
func (n *Notifier) Subscribe(userID string) (<-chan models.AuthEvent, func()) {
	ch := make(chan models.AuthEvent, subscriberBuffer)

	n.mu.Lock()
	set, ok := n.subs[userID]
	if !ok {
		set = make(map[chan models.AuthEvent]struct{})
		n.subs[userID] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[userID], ch)
			if len(n.subs[userID]) == 0 {
				delete(n.subs, userID)
			}
			close(ch)
		})
	}
}

func (n *Notifier) Publish(ev models.AuthEvent) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions for userID.
func (n *Notifier) Subscribers(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[userID])
}
