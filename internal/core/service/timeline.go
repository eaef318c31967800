package service

import (
	"fmt"
	"slices"
	"sort"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

// MessageTimeline is the ordered message log of one call. It is not safe for
// concurrent use; the owning CallSession serializes access.
type MessageTimeline struct {
	messages []domain.Message
}

func newMessageTimeline() *MessageTimeline {
	return &MessageTimeline{
		messages: make([]domain.Message, 0, 16),
	}
}

func (t *MessageTimeline) Append(status domain.CallStatus, msg domain.Message) error {
	if !status.Active() {
		return fmt.Errorf("%w: cannot append to a call that is %s", domain.ErrInvalidState, status)
	}
	i := sort.Search(len(t.messages), func(i int) bool {
		return msg.Before(t.messages[i])
	})
	t.messages = slices.Insert(t.messages, i, msg)
	return nil
}

func (t *MessageTimeline) Snapshot() []domain.Message {
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *MessageTimeline) Len() int {
	return len(t.messages)
}

func (t *MessageTimeline) Clear() {
	t.messages = t.messages[:0]
}
