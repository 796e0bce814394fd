// Package notify holds the short-lived status message shown after a sync.
package notify

import (
	"sync"
	"time"
)

// Message is the visible notification. An empty Text means nothing is shown.
type Message struct {
	Text  string    `json:"text"`
	Token uint64    `json:"token"`
	At    time.Time `json:"at"`
}

// Board implements ports.Notifier. Each Notify replaces the visible text
// and issues a new token; a clear timer only blanks the board if its token
// is still current, so a late timer never hides a newer message.
type Board struct {
	mu          sync.Mutex
	current     Message
	ttl         time.Duration
	subscribers map[chan Message]struct{}

	now        func() time.Time
	afterFunc  func(d time.Duration, f func()) *time.Timer
	pendingTmr *time.Timer
}

// NewBoard creates a board whose messages clear after ttl.
func NewBoard(ttl time.Duration) *Board {
	return &Board{
		ttl:         ttl,
		subscribers: make(map[chan Message]struct{}),
		now:         time.Now,
		afterFunc:   time.AfterFunc,
	}
}

// Notify shows message and schedules it to clear after the TTL.
func (b *Board) Notify(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	token := b.current.Token + 1
	b.publish(Message{Text: message, Token: token, At: b.now()})

	if b.pendingTmr != nil {
		b.pendingTmr.Stop()
	}

	b.pendingTmr = b.afterFunc(b.ttl, func() { b.clear(token) })
}

// clear blanks the board if token is still the current one.
func (b *Board) clear(token uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current.Token != token || b.current.Text == "" {
		return
	}

	b.publish(Message{Token: token, At: b.now()})
}

// Current returns the visible message.
func (b *Board) Current() Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current
}

// Subscribe returns a channel receiving every change, starting with the
// current message, and a cancel func that must be called to release it.
// A subscriber that falls behind misses intermediate messages.
func (b *Board) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, 1)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	ch <- b.current
	b.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// publish must be called with mu held.
func (b *Board) publish(m Message) {
	b.current = m

	for ch := range b.subscribers {
		// Drop the stale pending value so the newest message always fits.
		select {
		case <-ch:
		default:
		}

		ch <- m
	}
}
