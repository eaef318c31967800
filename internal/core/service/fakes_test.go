package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	// leaky keeps stopped timers firing, like a timer whose callback was
	// already running when Stop was called.
	leaky bool
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	if !t.c.leaky {
		t.stopped = true
	}
	return true
}

// Advance moves the clock forward, running due callbacks in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := make([]*fakeTimer, 0, len(c.timers))
		for _, t := range c.timers {
			if !t.fired && !t.stopped && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		next := due[0]
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

type recordingGateway struct {
	mu     sync.Mutex
	events []domain.CallEvent
}

func (g *recordingGateway) Publish(_ context.Context, ev domain.CallEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
	return nil
}

func (g *recordingGateway) statuses() []domain.CallStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.CallStatus
	for _, ev := range g.events {
		if ev.Type == domain.EventStatus {
			out = append(out, ev.Status)
		}
	}
	return out
}

// waitStatuses waits until at least n status events were delivered.
func (g *recordingGateway) waitStatuses(t *testing.T, n int) []domain.CallStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := g.statuses()
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d status events %v, want %d", len(got), got, n)
		}
		time.Sleep(time.Millisecond)
	}
}

// stallingGateway blocks delivery of the first status event equal to stallOn
// until release is closed.
type stallingGateway struct {
	recordingGateway
	stallOn domain.CallStatus
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStallingGateway(on domain.CallStatus) *stallingGateway {
	return &stallingGateway{
		stallOn: on,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *stallingGateway) Publish(ctx context.Context, ev domain.CallEvent) error {
	if ev.Type == domain.EventStatus && ev.Status == g.stallOn {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.recordingGateway.Publish(ctx, ev)
}

type memoryRecords struct {
	mu      sync.Mutex
	records []domain.CallRecord
}

func (r *memoryRecords) Save(_ context.Context, rec domain.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRecords) List(context.Context) ([]domain.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CallRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, text string) (string, error) {
	if out, ok := m[text]; ok {
		return out, nil
	}
	return "", domain.ErrNoTranslation
}

type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, string) (string, error) {
	return "", context.DeadlineExceeded
}
