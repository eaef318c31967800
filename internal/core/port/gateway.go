package port

import (
	"context"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

type RealTimeGateway interface {
	Publish(ctx context.Context, event domain.CallEvent) error
}
