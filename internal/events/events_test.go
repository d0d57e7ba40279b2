package events

import (
	"context"
	"testing"
	"time"
)

func receiveEvent(t *testing.T, ch <-chan ChatEvent) ChatEvent {
	t.Helper()

	timer := time.NewTimer(500 * time.Millisecond)
	defer timer.Stop()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before receive")
		}
		return ev
	case <-timer.C:
		t.Fatal("timed out waiting for event")
	}

	return ChatEvent{}
}

func waitForClosed(t *testing.T, ch <-chan ChatEvent) {
	t.Helper()

	timer := time.NewTimer(500 * time.Millisecond)
	defer timer.Stop()

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timer.C:
			t.Fatal("timed out waiting for channel close")
		}
	}
}

func TestSubscribePublish(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx, "thread-1")
	b.Publish(ChatEvent{ThreadID: "thread-1", Type: TypeToken, Content: "hel"})
	b.Publish(ChatEvent{ThreadID: "thread-1", Type: TypeToken, Content: "lo"})

	if ev := receiveEvent(t, ch); ev.Type != TypeToken || ev.Content != "hel" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev := receiveEvent(t, ch); ev.Content != "lo" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestPublish_ThreadIsolation(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	one := b.Subscribe(ctx, "thread-1")
	two := b.Subscribe(ctx, "thread-2")

	b.Publish(ChatEvent{ThreadID: "thread-2", Type: TypeStatus, Content: "searching"})

	if ev := receiveEvent(t, two); ev.Content != "searching" {
		t.Fatalf("unexpected event %+v", ev)
	}
	select {
	case ev := <-one:
		t.Fatalf("thread-1 received foreign event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_CancelUnsubscribes(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx, "thread-1")
	cancel()
	waitForClosed(t, ch)

	b.mu.RLock()
	_, exists := b.subscribers["thread-1"]
	b.mu.RUnlock()
	if exists {
		t.Fatal("subscriber map not cleaned up after cancel")
	}

	// publishing to a thread with no subscribers must not panic or block
	b.Publish(ChatEvent{ThreadID: "thread-1", Type: TypeDone})
}

func TestPublish_RacingUnsubscribe(t *testing.T) {
	b := NewBroker()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			b.Publish(ChatEvent{ThreadID: "thread-1", Type: TypeToken, Content: "x"})
		}
	}()

	// churn subscribers while the publisher runs; a send racing a close
	// would panic the publisher goroutine and fail the test
	for i := 0; i < 500; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		ch := b.Subscribe(ctx, "thread-1")
		cancel()
		waitForClosed(t, ch)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not finish")
	}
}

func TestPublish_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = b.Subscribe(ctx, "thread-1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(ChatEvent{ThreadID: "thread-1", Type: TypeToken, Content: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
