package gateway

import (
	"context"
	"errors"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/Wyydra/voicetext/internal/core/port"
)

// Fanout publishes every event to all of its gateways.
type Fanout []port.RealTimeGateway

func NewFanout(gateways ...port.RealTimeGateway) Fanout {
	out := make(Fanout, 0, len(gateways))
	for _, g := range gateways {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

func (f Fanout) Publish(ctx context.Context, event domain.CallEvent) error {
	var errs []error
	for _, g := range f {
		if err := g.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
