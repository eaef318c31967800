package service

import (
	"sync"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

// CallSession holds the state of one call. Every field is guarded by mu;
// methods with the Locked suffix expect the caller to hold it.
type CallSession struct {
	mu sync.Mutex

	id          domain.CallID
	phoneNumber string
	status      domain.CallStatus
	startedAt   time.Time
	duration    time.Duration // set when the call was last hung up

	timeline  *MessageTimeline
	nextSeq   uint64
	lastStamp time.Time

	timers    map[uint64]Timer
	nextTimer uint64

	// evicted is set once the session left the registry; commands holding a
	// stale pointer treat it as not found.
	evicted bool
}

func newCallSession(id domain.CallID) *CallSession {
	return &CallSession{
		id:       id,
		status:   domain.StatusIdle,
		timeline: newMessageTimeline(),
		timers:   make(map[uint64]Timer),
	}
}

// pending counts the armed timers.
func (s *CallSession) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *CallSession) infoLocked() domain.CallInfo {
	return domain.CallInfo{
		ID:          s.id,
		PhoneNumber: s.phoneNumber,
		Status:      s.status,
		StartedAt:   s.startedAt,
	}
}

// appendLocked stamps msg and adds it to the timeline. Stamps never go
// backwards within a session, so timeline order matches mutation order.
func (s *CallSession) appendLocked(msg domain.Message, now time.Time) (domain.Message, error) {
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	msg.Timestamp = now
	msg.Seq = s.nextSeq + 1

	if err := s.timeline.Append(s.status, msg); err != nil {
		return domain.Message{}, err
	}
	s.nextSeq = msg.Seq
	s.lastStamp = now
	return msg, nil
}

// armLocked starts a timer owned by the session. fire runs without the lock
// and must call claimTimerLocked before it applies any effect.
func (s *CallSession) armLocked(clock Clock, d time.Duration, fire func(timerID uint64)) {
	s.nextTimer++
	id := s.nextTimer
	s.timers[id] = clock.AfterFunc(d, func() { fire(id) })
}

// claimTimerLocked reports whether the timer is still armed and consumes it.
func (s *CallSession) claimTimerLocked(id uint64) bool {
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return true
}

func (s *CallSession) cancelTimersLocked() int {
	n := len(s.timers)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	return n
}
