package port

import (
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

type Metrics interface {
	CallStarted()
	CallEnded(duration time.Duration)
	MessageAppended(speaker domain.Speaker)
	TimersCancelled(n int)
}
