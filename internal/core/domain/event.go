package domain

import "time"

type EventType string

const (
	EventStatus  EventType = "status"
	EventMessage EventType = "message"
	EventCleared EventType = "cleared"
)

// CallEvent is published after a call session changes.
type CallEvent struct {
	Type    EventType
	CallID  CallID
	Status  CallStatus
	Message *Message
	At      time.Time
}

func NewStatusEvent(id CallID, status CallStatus, at time.Time) CallEvent {
	return CallEvent{Type: EventStatus, CallID: id, Status: status, At: at}
}

func NewMessageEvent(id CallID, status CallStatus, msg Message) CallEvent {
	return CallEvent{Type: EventMessage, CallID: id, Status: status, Message: &msg, At: msg.Timestamp}
}
