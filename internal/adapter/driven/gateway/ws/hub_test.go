package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

type fakeClient struct {
	id      string
	events  chan domain.CallEvent
	sendErr error

	mu     sync.Mutex
	closed bool
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, events: make(chan domain.CallEvent, 8)}
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) SendEvent(event domain.CallEvent) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.events <- event
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func receive(t *testing.T, c *fakeClient) domain.CallEvent {
	t.Helper()
	select {
	case ev := <-c.events:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.id)
		return domain.CallEvent{}
	}
}

func TestHubRoutesEventsByCall(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	callA, callB := domain.NewCallID(), domain.NewCallID()
	a := newFakeClient("a")
	b := newFakeClient("b")
	h.Register(callA, a)
	h.Register(callB, b)

	_ = h.Publish(context.Background(), domain.NewStatusEvent(callA, domain.StatusDialing, time.Now()))
	_ = h.Publish(context.Background(), domain.NewStatusEvent(callB, domain.StatusInCall, time.Now()))

	if ev := receive(t, a); ev.CallID != callA || ev.Status != domain.StatusDialing {
		t.Fatalf("client a got %+v", ev)
	}
	if ev := receive(t, b); ev.CallID != callB || ev.Status != domain.StatusInCall {
		t.Fatalf("client b got %+v", ev)
	}
	select {
	case ev := <-a.events:
		t.Fatalf("client a received another call's event: %+v", ev)
	default:
	}
}

func TestHubDropsFailingClient(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	call := domain.NewCallID()
	bad := newFakeClient("bad")
	bad.sendErr = errors.New("broken pipe")
	good := newFakeClient("good")
	h.Register(call, bad)
	h.Register(call, good)

	_ = h.Publish(context.Background(), domain.NewStatusEvent(call, domain.StatusEnded, time.Now()))
	receive(t, good)

	// Unregister is handled after the broadcast, so the drop has happened.
	h.Unregister(call, good)
	if !bad.isClosed() {
		t.Fatalf("failing client should have been closed")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	c := newFakeClient("c")
	h.Register(domain.NewCallID(), c)
	h.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after Stop")
	}
	if !c.isClosed() {
		t.Fatalf("Stop should close subscribed clients")
	}
	// Must not block once the hub is stopped.
	h.Register(domain.NewCallID(), newFakeClient("late"))
}
