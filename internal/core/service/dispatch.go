package service

import (
	"context"
	"sync"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/Wyydra/voicetext/internal/core/port"
	"github.com/rs/zerolog/log"
)

const dispatchBuffer = 1024

// eventDispatcher delivers call events to the gateway on a single goroutine,
// in the order they were queued. Events are queued while the session lock is
// held, so each call's events leave in the order its state changed.
type eventDispatcher struct {
	gateway port.RealTimeGateway
	queue   chan domain.CallEvent
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newEventDispatcher(gateway port.RealTimeGateway) *eventDispatcher {
	d := &eventDispatcher{
		gateway: gateway,
		queue:   make(chan domain.CallEvent, dispatchBuffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// enqueue never blocks. Events are dropped when the queue is full.
func (d *eventDispatcher) enqueue(events ...domain.CallEvent) {
	for _, ev := range events {
		select {
		case d.queue <- ev:
		default:
			log.Warn().
				Str("call_id", ev.CallID.String()).
				Str("event", string(ev.Type)).
				Msg("Event queue full, dropping event")
		}
	}
}

func (d *eventDispatcher) run() {
	defer close(d.done)
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.quit:
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *eventDispatcher) deliver(ev domain.CallEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := d.gateway.Publish(ctx, ev); err != nil {
		log.Error().Err(err).
			Str("call_id", ev.CallID.String()).
			Str("event", string(ev.Type)).
			Msg("failed to publish call event")
	}
}

// stop delivers what is already queued, then returns. It gives up when ctx
// is done.
func (d *eventDispatcher) stop(ctx context.Context) error {
	d.once.Do(func() { close(d.quit) })
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
