package domain

import (
	"fmt"
	"strings"
	"time"
)

type Speaker string

const (
	SpeakerLocal  Speaker = "local"
	SpeakerRemote Speaker = "remote"
)

type Message struct {
	ID          MessageID
	Seq         uint64
	Speaker     Speaker
	Text        string
	Translation string // empty when no translation was attached
	Timestamp   time.Time
}

func NewMessage(speaker Speaker, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text cannot be empty", ErrInvalidInput)
	}
	return &Message{
		ID:      NewMessageID(),
		Speaker: speaker,
		Text:    text,
	}, nil
}

func (m Message) HasTranslation() bool {
	return m.Translation != ""
}

// Before orders messages by timestamp, then sequence.
func (m Message) Before(other Message) bool {
	if !m.Timestamp.Equal(other.Timestamp) {
		return m.Timestamp.Before(other.Timestamp)
	}
	return m.Seq < other.Seq
}
