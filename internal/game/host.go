package game

import (
	"errors"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

var (
	// ErrNotHost is returned when a socket other than the host's attempts a
	// host-only action.
	ErrNotHost = errors.New("only the host can do that")
	// ErrNoSession is returned when a host check runs against a nil session.
	ErrNoSession = errors.New("no session")
)

// IsHostSocket reports whether the given socket belongs to the player whose
// username is the session's current host. A host who is offline (empty
// socket ID) matches nothing.
func IsHostSocket(sess *models.GameSession, socketID string) bool {
	if sess == nil || socketID == "" {
		return false
	}
	for _, p := range sess.Players {
		if p.Username == sess.Host {
			return p.SocketID == socketID
		}
	}
	return false
}

// RequireHost composes a nil-session check with the host-socket check.
// Callers must answer a denial with an explicit error event plus a fresh
// snapshot, never a silent drop.
func RequireHost(sess *models.GameSession, socketID string) error {
	if sess == nil {
		return ErrNoSession
	}
	if !IsHostSocket(sess, socketID) {
		return ErrNotHost
	}
	return nil
}
