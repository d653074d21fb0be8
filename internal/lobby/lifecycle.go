package lobby

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// Store defines what the lifecycle manager needs from the game store.
type Store interface {
	WithSession(gameID string, fn func(sess *models.GameSession) error) error
	Delete(gameID string)
}

// Broadcaster defines what the lifecycle manager needs from the hub.
type Broadcaster interface {
	Broadcast(gameID string, event gateway.GameEvent)
}

// DefaultGracePeriod is how long an abandoned lobby lingers before deletion.
const DefaultGracePeriod = 2 * time.Minute

// Manager soft-deletes abandoned lobbies: when every known player of an
// in-lobby session is offline, the session is deleted after a grace window
// unless someone reconnects first.
type Manager struct {
	store Store
	hub   Broadcaster
	clock clockwork.Clock
	grace time.Duration
}

// NewManager creates a lifecycle manager with the given grace window.
func NewManager(store Store, hub Broadcaster, clock clockwork.Clock, grace time.Duration) *Manager {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Manager{store: store, hub: hub, clock: clock, grace: grace}
}

// ScheduleIfEmpty checks the session's occupancy and schedules or cancels
// cleanup accordingly. Must run under the session lock.
func (m *Manager) ScheduleIfEmpty(gameID string, sess *models.GameSession) {
	if !sess.IsEmpty() {
		m.Cancel(sess)
		return
	}

	if sess.CleanupTimer != nil {
		// Already scheduled.
		return
	}

	sess.EmptySince = m.clock.Now()
	sess.CleanupTimer = m.clock.AfterFunc(m.grace, func() {
		m.expire(gameID)
	})

	log.Info().
		Str("game_id", gameID).
		Dur("grace", m.grace).
		Msg("empty lobby, cleanup scheduled")
}

// Cancel stops any pending cleanup. Must run under the session lock.
func (m *Manager) Cancel(sess *models.GameSession) {
	if sess.CleanupTimer != nil {
		sess.CleanupTimer.Stop()
		sess.CleanupTimer = nil
		log.Debug().Str("game_id", sess.GameID).Msg("lobby cleanup cancelled")
	}
	sess.EmptySince = time.Time{}
}

// expire runs when the grace window elapses. The session is re-fetched and
// re-checked under its lock: a player reconnecting at the expiry instant
// must win the race and keep the lobby alive.
func (m *Manager) expire(gameID string) {
	err := m.store.WithSession(gameID, func(sess *models.GameSession) error {
		sess.CleanupTimer = nil

		if !sess.IsEmpty() || !sess.InLobby {
			log.Debug().Str("game_id", gameID).Msg("lobby repopulated or in game, cleanup aborted")
			sess.EmptySince = time.Time{}
			return nil
		}

		m.store.Delete(gameID)
		m.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventError, gateway.ErrorPayload{
			Message: "Lobby closed due to inactivity.",
		}))
		log.Info().Str("game_id", gameID).Msg("abandoned lobby deleted")
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("game_id", gameID).Msg("cleanup fired for missing session")
	}
}
