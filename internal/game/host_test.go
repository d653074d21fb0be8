package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

func hostTestSession() *models.GameSession {
	sess := models.NewGameSession("GAME1", "alice")
	sess.Players = []*models.Player{
		{SocketID: "s-alice", Username: "alice", Online: true},
		{SocketID: "s-bob", Username: "bob", Online: true},
	}
	return sess
}

func TestIsHostSocket(t *testing.T) {
	sess := hostTestSession()

	assert.True(t, IsHostSocket(sess, "s-alice"))
	assert.False(t, IsHostSocket(sess, "s-bob"))
	assert.False(t, IsHostSocket(sess, "s-stale"))
	assert.False(t, IsHostSocket(sess, ""))
	assert.False(t, IsHostSocket(nil, "s-alice"))
}

func TestOfflineHostMatchesNothing(t *testing.T) {
	sess := hostTestSession()
	sess.Players[0].SocketID = ""
	sess.Players[0].Online = false

	assert.False(t, IsHostSocket(sess, "s-alice"))
	assert.False(t, IsHostSocket(sess, ""))
}

func TestHostGuardFollowsPromotion(t *testing.T) {
	sess := hostTestSession()

	sess.Host = "bob"
	assert.False(t, IsHostSocket(sess, "s-alice"))
	assert.True(t, IsHostSocket(sess, "s-bob"))
}

func TestRequireHost(t *testing.T) {
	sess := hostTestSession()

	assert.NoError(t, RequireHost(sess, "s-alice"))
	assert.ErrorIs(t, RequireHost(sess, "s-bob"), ErrNotHost)
	assert.ErrorIs(t, RequireHost(nil, "s-alice"), ErrNoSession)
}
