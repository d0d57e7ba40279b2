package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/scholarline/scholarline/engine/internal/llm"
)

// ErrThreadBusy is returned when a turn is already in flight for the thread.
// Contention policy is reject, not queue; callers retry.
var ErrThreadBusy = errors.New("thread busy")

type Options struct {
	MaxThreads  int
	TTL         time.Duration
	MaxMessages int
}

// Log holds one ordered message sequence per thread identifier. Threads are
// created implicitly on first acquire and evicted by LRU count and idle TTL.
type Log struct {
	mu          sync.Mutex
	maxThreads  int
	ttl         time.Duration
	maxMessages int
	threads     map[string]*thread
	now         func() time.Time
}

type thread struct {
	messages []llm.Message
	busy     bool
	lastUsed time.Time
}

func NewLog(opts Options) *Log {
	if opts.MaxThreads <= 0 {
		opts.MaxThreads = 1024
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 80
	}
	return &Log{
		maxThreads:  opts.MaxThreads,
		ttl:         opts.TTL,
		maxMessages: opts.MaxMessages,
		threads:     map[string]*thread{},
		now:         time.Now,
	}
}

// Acquire takes the per-thread turn lock. Exactly one turn runs per thread at
// a time; a second caller gets ErrThreadBusy. Release through the handle.
func (l *Log) Acquire(threadID string) (*Thread, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.threads[threadID]
	if !ok {
		l.evictForCapacityLocked()
		t = &thread{lastUsed: l.now()}
		l.threads[threadID] = t
	}
	if t.busy {
		return nil, ErrThreadBusy
	}
	t.busy = true
	t.lastUsed = l.now()
	t.dropUnansweredCallsLocked()
	return &Thread{log: l, id: threadID, state: t}, nil
}

// Snapshot returns a copy of the thread's messages without taking the turn
// lock. Missing threads yield an empty history.
func (l *Log) Snapshot(threadID string) []llm.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.threads[threadID]
	if !ok {
		return []llm.Message{}
	}
	return append([]llm.Message{}, t.messages...)
}

// EvictExpired removes threads idle for longer than the TTL. Threads with a
// turn in flight are skipped. Returns the number of evicted threads.
func (l *Log) EvictExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.ttl)
	evicted := 0
	for id, t := range l.threads {
		if t.busy || t.lastUsed.After(cutoff) {
			continue
		}
		delete(l.threads, id)
		evicted++
	}
	return evicted
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.threads)
}

func (l *Log) evictForCapacityLocked() {
	for len(l.threads) >= l.maxThreads {
		oldestID := ""
		var oldest time.Time
		for id, t := range l.threads {
			if t.busy {
				continue
			}
			if oldestID == "" || t.lastUsed.Before(oldest) {
				oldestID = id
				oldest = t.lastUsed
			}
		}
		if oldestID == "" {
			return
		}
		delete(l.threads, oldestID)
	}
}

// dropUnansweredCallsLocked removes a trailing capability batch whose calls
// never all received results. A turn cancelled mid-batch leaves the history
// ending in an assistant message with dangling tool calls, which chat
// backends reject; truncating before that message keeps the history valid
// for the next turn.
func (t *thread) dropUnansweredCallsLocked() {
	messages := t.messages
	batch := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleAssistant && len(messages[i].ToolCalls) > 0 {
			batch = i
			break
		}
		if messages[i].Role != llm.RoleCapabilityResult {
			// the batch, if any, concluded before this message
			return
		}
	}
	if batch == -1 {
		return
	}
	results := len(messages) - batch - 1
	if results < len(messages[batch].ToolCalls) {
		t.messages = messages[:batch]
	}
}

// Thread is an acquired per-turn handle. All appends during a turn go through
// it; Release returns the thread to the pool.
type Thread struct {
	log   *Log
	id    string
	state *thread
}

func (t *Thread) ID() string {
	return t.id
}

func (t *Thread) Append(msg llm.Message) {
	t.log.mu.Lock()
	defer t.log.mu.Unlock()
	t.state.messages = append(t.state.messages, msg)
	t.trimLocked()
}

func (t *Thread) Snapshot() []llm.Message {
	t.log.mu.Lock()
	defer t.log.mu.Unlock()
	return append([]llm.Message{}, t.state.messages...)
}

func (t *Thread) Release() {
	t.log.mu.Lock()
	defer t.log.mu.Unlock()
	t.state.busy = false
	t.state.lastUsed = t.log.now()
}

// trimLocked bounds history so oracle input stays bounded. Oldest messages go
// first; leading capability results are dropped too so the history never
// opens with an orphaned tool answer.
func (t *Thread) trimLocked() {
	messages := t.state.messages
	if len(messages) > t.log.maxMessages {
		messages = messages[len(messages)-t.log.maxMessages:]
	}
	for len(messages) > 0 && messages[0].Role == llm.RoleCapabilityResult {
		messages = messages[1:]
	}
	t.state.messages = messages
}
