package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

func snapshotSession() *models.GameSession {
	sess := models.NewGameSession("GAME1", "bob")
	sess.Players = []*models.Player{
		{SocketID: "s-alice", Username: "alice", DisplayName: "Alice", Online: true},
		{SocketID: "s-bob", Username: "bob", DisplayName: "Bob", Color: "#222", Online: true},
		{Username: "carol", DisplayName: "Carol", Online: false},
	}
	return sess
}

func TestBuildStateOrdersHostFirst(t *testing.T) {
	state := BuildState(snapshotSession(), "")

	require.Len(t, state.Players, 3)
	assert.Equal(t, "bob", state.Players[0].Username)
	assert.Equal(t, "alice", state.Players[1].Username)
	assert.Equal(t, "carol", state.Players[2].Username)
	assert.False(t, state.Players[2].Online)
	assert.Equal(t, "bob", state.Host)
}

func TestBuildStateNormalizesCategorySlots(t *testing.T) {
	sess := snapshotSession()
	sess.Categories = []string{"History", "Science"}
	sess.LockedCategories = map[int]bool{1: true, 7: true}

	state := BuildState(sess, "")

	require.Len(t, state.Categories, models.CategorySlots)
	require.Len(t, state.LockedCategories, models.CategorySlots)
	assert.Equal(t, "History", state.Categories[0])
	assert.Equal(t, "Science", state.Categories[1])
	assert.Empty(t, state.Categories[2])
	assert.True(t, state.LockedCategories[1])
	assert.True(t, state.LockedCategories[7])
	assert.False(t, state.LockedCategories[0])
}

func TestBuildStateYouBlock(t *testing.T) {
	sess := snapshotSession()

	state := BuildState(sess, "s-bob")
	require.NotNil(t, state.You)
	assert.Equal(t, "bob", state.You.Username)
	assert.Equal(t, "bob", state.You.ReconnectKey)
	assert.True(t, state.You.IsHost)

	state = BuildState(sess, "s-alice")
	require.NotNil(t, state.You)
	assert.False(t, state.You.IsHost)

	// Unknown or empty sockets get no personal block.
	assert.Nil(t, BuildState(sess, "s-ghost").You)
	assert.Nil(t, BuildState(sess, "").You)
}

func TestBuildStateHasNoSideEffects(t *testing.T) {
	sess := snapshotSession()
	sess.Categories = []string{"History"}

	BuildState(sess, "s-bob")
	BuildState(sess, "s-bob")

	assert.Len(t, sess.Categories, 1)
	assert.Empty(t, sess.LockedCategories)
}
