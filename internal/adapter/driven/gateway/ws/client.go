package ws

import "github.com/Wyydra/voicetext/internal/core/domain"

type Client interface {
	ID() string
	SendEvent(event domain.CallEvent) error
	Close() error
}
