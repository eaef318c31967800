package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const translateTimeout = 2 * time.Second

// RemoteTurnScheduler produces the simulated remote party's replies.
type RemoteTurnScheduler struct {
	clock    Clock
	resolver *TranslationResolver
	// notify runs with the session lock held and must not block.
	notify   func(events ...domain.CallEvent)

	minDelay      time.Duration
	maxDelay      time.Duration
	greetingDelay time.Duration
	responses     []string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRemoteTurnScheduler(clock Clock, resolver *TranslationResolver, settings Settings, rnd *rand.Rand) *RemoteTurnScheduler {
	responses := make([]string, len(settings.Responses))
	copy(responses, settings.Responses)

	return &RemoteTurnScheduler{
		clock:         clock,
		resolver:      resolver,
		notify:        func(...domain.CallEvent) {},
		minDelay:      settings.ReplyMinDelay,
		maxDelay:      settings.ReplyMaxDelay,
		greetingDelay: settings.GreetingReplyDelay,
		responses:     responses,
		rnd:           rnd,
	}
}

// Schedule arms one reply timer for the session. The caller holds s.mu.
// translate is captured now, not when the reply fires.
func (r *RemoteTurnScheduler) Schedule(s *CallSession, afterGreeting, translate bool) {
	s.armLocked(r.clock, r.delay(afterGreeting), func(timerID uint64) {
		r.fire(s, timerID, translate)
	})
}

// CancelAll stops every timer of the session, auto-transitions included.
// The caller holds s.mu.
func (r *RemoteTurnScheduler) CancelAll(s *CallSession) int {
	return s.cancelTimersLocked()
}

func (r *RemoteTurnScheduler) fire(s *CallSession, timerID uint64, translate bool) {
	text := r.pick()

	var translation string
	if translate {
		ctx, cancel := context.WithTimeout(context.Background(), translateTimeout)
		var err error
		translation, err = r.resolver.Resolve(ctx, text)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("call_id", s.id.String()).Msg("Reply sent without translation")
		}
	}

	s.mu.Lock()
	if !s.claimTimerLocked(timerID) {
		s.mu.Unlock()
		return
	}
	if s.status != domain.StatusInCall {
		status := s.status
		s.mu.Unlock()
		log.Debug().Str("call_id", s.id.String()).Str("status", status.String()).Msg("Dropping reply for inactive call")
		return
	}

	stored, err := s.appendLocked(domain.Message{
		ID:          domain.NewMessageID(),
		Speaker:     domain.SpeakerRemote,
		Text:        text,
		Translation: translation,
	}, r.clock.Now())
	if err == nil {
		r.notify(domain.NewMessageEvent(s.id, s.status, stored))
	}
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("call_id", s.id.String()).Msg("Failed to append reply")
	}
}

func (r *RemoteTurnScheduler) delay(afterGreeting bool) time.Duration {
	if afterGreeting && r.greetingDelay > 0 {
		return r.greetingDelay
	}
	spread := r.maxDelay - r.minDelay
	if spread <= 0 {
		return r.minDelay
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minDelay + time.Duration(r.rnd.Int64N(int64(spread)+1))
}

func (r *RemoteTurnScheduler) pick() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responses[r.rnd.IntN(len(r.responses))]
}
