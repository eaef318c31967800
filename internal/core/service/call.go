package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/Wyydra/voicetext/internal/core/port"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 2 * time.Second

type StartCallRequest struct {
	CallID      domain.CallID // zero value allocates a new call
	PhoneNumber string
}

type SendMessageResult struct {
	Message domain.Message
	Status  domain.CallStatus
	// TranslationUnavailable is set when a translation was requested but the
	// translator failed; the message was still sent.
	TranslationUnavailable bool
}

type EndCallResult struct {
	CallID   domain.CallID
	Duration time.Duration
}

type CallService struct {
	registry  *SessionRegistry
	scheduler *RemoteTurnScheduler
	resolver  *TranslationResolver
	events    *eventDispatcher
	records   port.CallRecordRepository
	metrics   port.Metrics
	clock     Clock
	settings  Settings
}

type Option func(*serviceOptions)

type serviceOptions struct {
	clock Clock
	rnd   *rand.Rand
}

func WithClock(c Clock) Option {
	return func(o *serviceOptions) { o.clock = c }
}

func WithSeed(seed uint64) Option {
	return func(o *serviceOptions) { o.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func NewCallService(
	settings Settings,
	resolver *TranslationResolver,
	gateway port.RealTimeGateway,
	records port.CallRecordRepository,
	metrics port.Metrics,
	opts ...Option,
) (*CallService, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid call settings: %w", err)
	}

	o := serviceOptions{clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		seed := uint64(time.Now().UnixNano())
		o.rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if gateway == nil {
		gateway = nopGateway{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	s := &CallService{
		registry: NewSessionRegistry(),
		resolver: resolver,
		events:   newEventDispatcher(gateway),
		records:  records,
		metrics:  metrics,
		clock:    o.clock,
		settings: settings,
	}
	s.scheduler = NewRemoteTurnScheduler(o.clock, resolver, settings, o.rnd)
	s.scheduler.notify = s.emitLocked
	return s, nil
}

func (s *CallService) StartCall(ctx context.Context, req StartCallRequest) (domain.CallInfo, error) {
	number, err := domain.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return domain.CallInfo{}, err
	}

	id := req.CallID
	if id.IsZero() {
		id = domain.NewCallID()
	}

	for {
		sess, err := s.getOrCreate(id)
		if err != nil {
			return domain.CallInfo{}, err
		}

		sess.mu.Lock()
		if sess.evicted {
			// reset removed it between lookup and lock; look again
			sess.mu.Unlock()
			continue
		}
		if sess.status != domain.StatusIdle {
			status := sess.status
			sess.mu.Unlock()
			return domain.CallInfo{}, fmt.Errorf("%w: call %s is %s", domain.ErrInvalidState, id, status)
		}

		now := s.clock.Now()
		sess.phoneNumber = number
		sess.status = domain.StatusDialing
		sess.startedAt = now
		sess.duration = 0
		sess.armLocked(s.clock, s.settings.DialDelay, func(timerID uint64) {
			s.autoTransition(sess, timerID, domain.StatusDialing, domain.StatusConnecting)
		})
		info := sess.infoLocked()
		s.emitLocked(domain.NewStatusEvent(id, info.Status, now))
		sess.mu.Unlock()

		log.Info().Str("call_id", id.String()).Str("phone_number", number).Msg("Call started")
		s.metrics.CallStarted()
		return info, nil
	}
}

func (s *CallService) getOrCreate(id domain.CallID) (*CallSession, error) {
	sess, err := s.registry.Get(id)
	if err == nil {
		return sess, nil
	}
	sess, err = s.registry.Create(id)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.registry.Get(id)
	}
	return sess, err
}

// autoTransition moves the call along Dialing -> Connecting -> InCall.
func (s *CallService) autoTransition(sess *CallSession, timerID uint64, from, to domain.CallStatus) {
	var greeting domain.Message
	withGreeting := to == domain.StatusInCall && s.settings.GreetingText != ""
	if withGreeting {
		greeting = domain.Message{
			ID:      domain.NewMessageID(),
			Speaker: domain.SpeakerLocal,
			Text:    s.settings.GreetingText,
		}
		if s.settings.TranslateGreeting {
			greeting.Translation = s.translate(sess.id, greeting.Text)
		}
	}

	sess.mu.Lock()
	if !sess.claimTimerLocked(timerID) || sess.status != from {
		sess.mu.Unlock()
		return
	}

	now := s.clock.Now()
	sess.status = to
	events := []domain.CallEvent{domain.NewStatusEvent(sess.id, to, now)}

	switch to {
	case domain.StatusConnecting:
		sess.armLocked(s.clock, s.settings.ConnectDelay, func(timerID uint64) {
			s.autoTransition(sess, timerID, domain.StatusConnecting, domain.StatusInCall)
		})
	case domain.StatusInCall:
		if withGreeting {
			stored, err := sess.appendLocked(greeting, now)
			if err != nil {
				log.Error().Err(err).Str("call_id", sess.id.String()).Msg("Failed to append greeting")
			} else {
				events = append(events, domain.NewMessageEvent(sess.id, to, stored))
				s.scheduler.Schedule(sess, true, s.settings.TranslateGreeting)
			}
		}
	}
	s.emitLocked(events...)
	sess.mu.Unlock()

	log.Debug().Str("call_id", sess.id.String()).Str("status", to.String()).Msg("Call status changed")
}

func (s *CallService) SendMessage(ctx context.Context, callID domain.CallID, text string, translate bool) (SendMessageResult, error) {
	sess, err := s.registry.Get(callID)
	if err != nil {
		return SendMessageResult{}, err
	}
	msg, err := domain.NewMessage(domain.SpeakerLocal, text)
	if err != nil {
		return SendMessageResult{}, err
	}

	var unavailable bool
	if translate {
		translation, err := s.resolver.Resolve(ctx, text)
		if err != nil {
			unavailable = true
			log.Warn().Err(err).Str("call_id", callID.String()).Msg("Message sent without translation")
		}
		msg.Translation = translation
	}

	sess.mu.Lock()
	if sess.evicted {
		sess.mu.Unlock()
		return SendMessageResult{}, fmt.Errorf("%w: %s", domain.ErrNotFound, callID)
	}
	if sess.status != domain.StatusInCall {
		status := sess.status
		sess.mu.Unlock()
		return SendMessageResult{}, fmt.Errorf("%w: call %s is %s, not %s", domain.ErrInvalidState, callID, status, domain.StatusInCall)
	}
	stored, err := sess.appendLocked(*msg, s.clock.Now())
	if err != nil {
		sess.mu.Unlock()
		return SendMessageResult{}, err
	}
	s.scheduler.Schedule(sess, false, translate)
	status := sess.status
	s.emitLocked(domain.NewMessageEvent(callID, status, stored))
	sess.mu.Unlock()

	return SendMessageResult{
		Message:                stored,
		Status:                 status,
		TranslationUnavailable: unavailable,
	}, nil
}

func (s *CallService) EndCall(ctx context.Context, callID domain.CallID) (EndCallResult, error) {
	sess, err := s.registry.Get(callID)
	if err != nil {
		return EndCallResult{}, err
	}

	sess.mu.Lock()
	if sess.evicted {
		sess.mu.Unlock()
		return EndCallResult{}, fmt.Errorf("%w: %s", domain.ErrNotFound, callID)
	}
	switch sess.status {
	case domain.StatusIdle:
		sess.mu.Unlock()
		return EndCallResult{CallID: callID}, nil
	case domain.StatusEnded:
		d := sess.duration
		sess.mu.Unlock()
		return EndCallResult{CallID: callID, Duration: d}, nil
	}

	now := s.clock.Now()
	previous := sess.status
	cancelled := s.scheduler.CancelAll(sess)
	sess.status = domain.StatusEnded

	var d time.Duration
	if !sess.startedAt.IsZero() {
		d = max(now.Sub(sess.startedAt), 0)
	}
	sess.duration = d

	record := domain.CallRecord{
		ID:          callID,
		PhoneNumber: sess.phoneNumber,
		StartedAt:   sess.startedAt,
		EndedAt:     now,
		Duration:    d,
		Messages:    sess.timeline.Len(),
		LastStatus:  previous,
	}
	sess.armLocked(s.clock, s.settings.ResetDelay, func(timerID uint64) {
		s.reset(sess, timerID)
	})
	s.emitLocked(domain.NewStatusEvent(callID, domain.StatusEnded, now))
	sess.mu.Unlock()

	log.Info().
		Str("call_id", callID.String()).
		Str("from_status", previous.String()).
		Dur("duration", d).
		Int("cancelled_timers", cancelled).
		Msg("Call ended")

	if s.records != nil {
		if err := s.records.Save(ctx, record); err != nil {
			log.Error().Err(err).Str("call_id", callID.String()).Msg("Failed to save call record")
		}
	}
	s.metrics.CallEnded(d)
	s.metrics.TimersCancelled(cancelled)

	return EndCallResult{CallID: callID, Duration: d}, nil
}

// reset returns an ended call to Idle, or evicts it when configured to.
func (s *CallService) reset(sess *CallSession, timerID uint64) {
	sess.mu.Lock()
	if !sess.claimTimerLocked(timerID) || sess.status != domain.StatusEnded {
		sess.mu.Unlock()
		return
	}
	sess.status = domain.StatusIdle
	sess.phoneNumber = ""
	sess.startedAt = time.Time{}
	sess.timeline.Clear()
	if s.settings.EvictOnReset {
		sess.evicted = true
		s.registry.Remove(sess.id)
	}
	s.emitLocked(domain.NewStatusEvent(sess.id, domain.StatusIdle, s.clock.Now()))
	sess.mu.Unlock()

	log.Debug().Str("call_id", sess.id.String()).Bool("evicted", s.settings.EvictOnReset).Msg("Call reset")
}

func (s *CallService) GetStatus(ctx context.Context, callID domain.CallID) (domain.CallInfo, error) {
	sess, err := s.lockLive(callID)
	if err != nil {
		return domain.CallInfo{}, err
	}
	defer sess.mu.Unlock()
	return sess.infoLocked(), nil
}

func (s *CallService) GetTimeline(ctx context.Context, callID domain.CallID) ([]domain.Message, error) {
	sess, err := s.lockLive(callID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return sess.timeline.Snapshot(), nil
}

// ClearTimeline empties the timeline whatever the call status is.
func (s *CallService) ClearTimeline(ctx context.Context, callID domain.CallID) error {
	sess, err := s.lockLive(callID)
	if err != nil {
		return err
	}
	sess.timeline.Clear()
	s.emitLocked(domain.CallEvent{Type: domain.EventCleared, CallID: callID, Status: sess.status, At: s.clock.Now()})
	sess.mu.Unlock()

	log.Info().Str("call_id", callID.String()).Msg("Timeline cleared")
	return nil
}

// ListCalls returns every registered call, most recently started first.
func (s *CallService) ListCalls(ctx context.Context) []domain.CallInfo {
	calls := make([]domain.CallInfo, 0, s.registry.Len())
	s.registry.Range(func(sess *CallSession) bool {
		sess.mu.Lock()
		if !sess.evicted {
			calls = append(calls, sess.infoLocked())
		}
		sess.mu.Unlock()
		return true
	})
	slices.SortFunc(calls, func(a, b domain.CallInfo) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return calls
}

// ActiveCalls counts calls between Dialing and InCall.
func (s *CallService) ActiveCalls() int {
	n := 0
	s.registry.Range(func(sess *CallSession) bool {
		sess.mu.Lock()
		if sess.status.Active() {
			n++
		}
		sess.mu.Unlock()
		return true
	})
	return n
}

func (s *CallService) History(ctx context.Context) ([]domain.CallRecord, error) {
	if s.records == nil {
		return nil, nil
	}
	return s.records.List(ctx)
}

// Shutdown cancels every pending timer of every call, then delivers the
// events still queued for the gateway.
func (s *CallService) Shutdown(ctx context.Context) error {
	total := 0
	s.registry.Range(func(sess *CallSession) bool {
		sess.mu.Lock()
		total += s.scheduler.CancelAll(sess)
		sess.mu.Unlock()
		return ctx.Err() == nil
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	s.metrics.TimersCancelled(total)
	log.Info().Int("cancelled_timers", total).Msg("Call service stopped")
	return s.events.stop(ctx)
}

func (s *CallService) lockLive(callID domain.CallID) (*CallSession, error) {
	sess, err := s.registry.Get(callID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.evicted {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, callID)
	}
	return sess, nil
}

func (s *CallService) translate(callID domain.CallID, text string) string {
	ctx, cancel := context.WithTimeout(context.Background(), translateTimeout)
	defer cancel()

	out, err := s.resolver.Resolve(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("call_id", callID.String()).Msg("Greeting sent without translation")
	}
	return out
}

// emitLocked queues events for the gateway. The caller holds the lock of the
// session the events belong to; queueing never blocks.
func (s *CallService) emitLocked(events ...domain.CallEvent) {
	for _, ev := range events {
		if ev.Type == domain.EventMessage && ev.Message != nil {
			s.metrics.MessageAppended(ev.Message.Speaker)
		}
	}
	s.events.enqueue(events...)
}

type nopGateway struct{}

func (nopGateway) Publish(context.Context, domain.CallEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) CallStarted()                   {}
func (nopMetrics) CallEnded(time.Duration)        {}
func (nopMetrics) MessageAppended(domain.Speaker) {}
func (nopMetrics) TimersCancelled(int)            {}
