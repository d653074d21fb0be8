package game

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

var (
	// ErrSessionNotFound is returned when no session exists for a game ID.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionExists is returned when creating a session whose ID is taken.
	ErrSessionExists = errors.New("game session already exists")
)

// GameStore is the process-wide registry of live game sessions. Each session
// carries its own mutex: WithSession serializes every unit of work (inbound
// message or timer expiry) touching one game, while different games progress
// in parallel.
type GameStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu   sync.Mutex
	sess *models.GameSession
}

// NewGameStore creates an empty store.
func NewGameStore() *GameStore {
	return &GameStore{
		sessions: make(map[string]*sessionEntry),
	}
}

// Create registers a new session under its game ID.
func (gs *GameStore) Create(sess *models.GameSession) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if _, ok := gs.sessions[sess.GameID]; ok {
		return ErrSessionExists
	}
	gs.sessions[sess.GameID] = &sessionEntry{sess: sess}

	log.Info().Str("game_id", sess.GameID).Str("host", sess.Host).Msg("game session created")
	return nil
}

// WithSession runs fn under the session's lock. Returns ErrSessionNotFound
// if the session does not exist, or no longer exists by the time the lock is
// acquired (it may have been deleted while fn was queued behind another
// unit of work).
func (gs *GameStore) WithSession(gameID string, fn func(sess *models.GameSession) error) error {
	gs.mu.RLock()
	entry, ok := gs.sessions[gameID]
	gs.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Re-check registration after acquiring the lock.
	gs.mu.RLock()
	current, ok := gs.sessions[gameID]
	gs.mu.RUnlock()
	if !ok || current != entry {
		return ErrSessionNotFound
	}

	return fn(entry.sess)
}

// Exists reports whether a session is registered for the game ID.
func (gs *GameStore) Exists(gameID string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.sessions[gameID]
	return ok
}

// Delete removes a session from the registry. Safe to call for unknown IDs.
func (gs *GameStore) Delete(gameID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if _, ok := gs.sessions[gameID]; ok {
		delete(gs.sessions, gameID)
		log.Info().Str("game_id", gameID).Msg("game session deleted")
	}
}

// Count returns the number of live sessions.
func (gs *GameStore) Count() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.sessions)
}
