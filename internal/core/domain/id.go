package domain

import (
	"github.com/google/uuid"
)

type CallID uuid.UUID
type MessageID uuid.UUID

func NewCallID() CallID {
	return CallID(uuid.New())
}

func ParseCallID(s string) (CallID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CallID{}, err
	}
	return CallID(id), nil
}

func (id CallID) String() string {
	return uuid.UUID(id).String()
}

func (id CallID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func NewMessageID() MessageID {
	return MessageID(uuid.New())
}

func (id MessageID) String() string {
	return uuid.UUID(id).String()
}
