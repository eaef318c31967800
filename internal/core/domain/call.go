package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type CallStatus string

const (
	StatusIdle       CallStatus = "idle"
	StatusDialing    CallStatus = "dialing"
	StatusConnecting CallStatus = "connecting"
	StatusInCall     CallStatus = "in-call"
	StatusEnded      CallStatus = "ended"
)

// Active reports whether messages may be appended in this status.
func (s CallStatus) Active() bool {
	switch s {
	case StatusDialing, StatusConnecting, StatusInCall:
		return true
	}
	return false
}

func (s CallStatus) String() string {
	return string(s)
}

// CallInfo is a read-only view of a call session.
type CallInfo struct {
	ID          CallID
	PhoneNumber string
	Status      CallStatus
	StartedAt   time.Time // zero until the call is dialed
}

// CallRecord is kept once a call ends.
type CallRecord struct {
	ID          CallID
	PhoneNumber string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
	Messages    int
	LastStatus  CallStatus // status the call was in when it was hung up
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]+$`)

// NormalizePhoneNumber trims surrounding whitespace and checks that the
// number is made of digits and common separators.
func NormalizePhoneNumber(raw string) (string, error) {
	number := strings.TrimSpace(raw)
	if number == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	if !phonePattern.MatchString(number) || !strings.ContainsAny(number, "0123456789") {
		return "", fmt.Errorf("%w: malformed phone number %q", ErrInvalidInput, number)
	}
	return number, nil
}
