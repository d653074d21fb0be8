package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// Locker defines what the timer service needs from the game store: expiry
// callbacks re-enter the session exactly like an inbound message would.
type Locker interface {
	WithSession(gameID string, fn func(sess *models.GameSession) error) error
}

// Broadcaster defines what the timer service needs from the hub.
type Broadcaster interface {
	Broadcast(gameID string, event gateway.GameEvent)
}

// Expiry describes a fired timer to its onExpire callback. The session is
// already locked when the callback runs.
type Expiry struct {
	GameID       string
	Session      *models.GameSession
	TimerVersion int64
	TimerKind    models.TimerKind
}

// ExpireFunc handles a timer that fired while still current.
type ExpireFunc func(exp Expiry)

// Service manages the single active timer of each session. Versioning is the
// sole defense against stale expiries: a callback captured at version v is a
// no-op unless the session's live version still equals v when it fires, so
// rapid successive starts can never let an old expiry act after a newer
// timer has begun.
type Service struct {
	store Locker
	hub   Broadcaster
	clock clockwork.Clock
}

// NewService creates a timer service.
func NewService(store Locker, hub Broadcaster, clock clockwork.Clock) *Service {
	return &Service{store: store, hub: hub, clock: clock}
}

// Clear cancels any pending timer and broadcasts timer-end. Safe to call
// when no timer is active: the broadcast still fires so clients can
// idempotently clear their timer UI.
func (s *Service) Clear(gameID string, sess *models.GameSession) {
	if sess.TimerTimeout != nil {
		sess.TimerTimeout.Stop()
		sess.TimerTimeout = nil
	}

	s.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventTimerEnd, gateway.TimerEndPayload{
		TimerVersion: sess.TimerVersion,
		TimerKind:    sess.TimerKind,
	}))

	sess.TimerEndTime = time.Time{}
	sess.TimerDuration = 0
	sess.TimerKind = models.TimerNone
}

// Start replaces any active timer with a new one of the given duration and
// kind, broadcasting timer-start. onExpire runs under the session lock if
// the timer is still current when it fires.
func (s *Service) Start(gameID string, sess *models.GameSession, duration time.Duration, kind models.TimerKind, onExpire ExpireFunc) {
	s.Clear(gameID, sess)

	sess.TimerVersion++
	version := sess.TimerVersion
	endTime := s.clock.Now().Add(duration)

	sess.TimerEndTime = endTime
	sess.TimerDuration = duration
	sess.TimerKind = kind

	s.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventTimerStart, gateway.TimerStartPayload{
		EndTime:      endTime,
		Duration:     int(duration / time.Second),
		TimerVersion: version,
		TimerKind:    kind,
	}))

	sess.TimerTimeout = s.clock.AfterFunc(duration, func() {
		s.fire(gameID, version, onExpire)
	})

	log.Debug().
		Str("game_id", gameID).
		Str("timer_kind", string(kind)).
		Int64("timer_version", version).
		Dur("duration", duration).
		Msg("timer started")
}

// fire runs when a scheduled timer elapses. It re-acquires the session and
// re-validates the captured version before acting.
func (s *Service) fire(gameID string, version int64, onExpire ExpireFunc) {
	err := s.store.WithSession(gameID, func(sess *models.GameSession) error {
		if sess.TimerVersion != version {
			log.Debug().
				Str("game_id", gameID).
				Int64("fired_version", version).
				Int64("live_version", sess.TimerVersion).
				Msg("stale timer expiry ignored")
			return nil
		}

		kind := sess.TimerKind
		sess.TimerTimeout = nil
		sess.TimerEndTime = time.Time{}
		sess.TimerDuration = 0
		sess.TimerKind = models.TimerNone

		if onExpire != nil {
			onExpire(Expiry{
				GameID:       gameID,
				Session:      sess,
				TimerVersion: version,
				TimerKind:    kind,
			})
		}

		s.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventTimerEnd, gateway.TimerEndPayload{
			TimerVersion: version,
			TimerKind:    kind,
		}))
		return nil
	})
	if err != nil {
		// Session torn down before the timer fired; nothing to do.
		log.Debug().Err(err).Str("game_id", gameID).Msg("timer fired for missing session")
	}
}
