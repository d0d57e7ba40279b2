package events

import (
	"context"
	"sync"
)

const (
	TypeToken  = "token"
	TypeStatus = "status"
	TypeError  = "error"
	TypeDone   = "done"
)

// ChatEvent is one outbound streaming event for a turn: a content fragment,
// a capability status notice, or a terminal marker.
type ChatEvent struct {
	ThreadID string `json:"-"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan ChatEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: map[string]map[chan ChatEvent]struct{}{},
	}
}

func (b *Broker) Subscribe(ctx context.Context, threadID string) <-chan ChatEvent {
	ch := make(chan ChatEvent, 16)

	b.mu.Lock()
	if b.subscribers[threadID] == nil {
		b.subscribers[threadID] = map[chan ChatEvent]struct{}{}
	}
	b.subscribers[threadID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if b.subscribers[threadID] != nil {
			delete(b.subscribers[threadID], ch)
			if len(b.subscribers[threadID]) == 0 {
				delete(b.subscribers, threadID)
			}
		}
		// close under the lock: Publish sends while holding the read lock,
		// so it can never hit an already-closed channel
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish forwards the event to every subscriber of its thread. Slow
// subscribers drop events rather than block the turn. Sends stay under the
// read lock so a racing unsubscribe cannot close a channel mid-send.
func (b *Broker) Publish(event ChatEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.ThreadID] {
		select {
		case ch <- event:
		default:
		}
	}
}
