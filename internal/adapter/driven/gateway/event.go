package gateway

import (
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

type MessageDTO struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	Speaker     string    `json:"speaker"`
	Text        string    `json:"text"`
	Translation string    `json:"translation,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type EventDTO struct {
	Type    string      `json:"type"`
	CallID  string      `json:"call_id"`
	Status  string      `json:"status"`
	Message *MessageDTO `json:"message,omitempty"`
	At      time.Time   `json:"at"`
}

func NewMessageDTO(m domain.Message) MessageDTO {
	return MessageDTO{
		ID:          m.ID.String(),
		Seq:         m.Seq,
		Speaker:     string(m.Speaker),
		Text:        m.Text,
		Translation: m.Translation,
		Timestamp:   m.Timestamp,
	}
}

func NewEventDTO(ev domain.CallEvent) EventDTO {
	dto := EventDTO{
		Type:   string(ev.Type),
		CallID: ev.CallID.String(),
		Status: ev.Status.String(),
		At:     ev.At,
	}
	if ev.Message != nil {
		m := NewMessageDTO(*ev.Message)
		dto.Message = &m
	}
	return dto
}
