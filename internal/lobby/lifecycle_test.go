package lobby

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	sess    *models.GameSession
	deleted []string
}

func (f *fakeStore) WithSession(gameID string, fn func(sess *models.GameSession) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sess == nil {
		return assert.AnError
	}
	return fn(f.sess)
}

func (f *fakeStore) Delete(gameID string) {
	f.deleted = append(f.deleted, gameID)
}

func (f *fakeStore) inspect(fn func(sess *models.GameSession)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.sess)
}

func (f *fakeStore) deletedGames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeHub struct {
	mu     sync.Mutex
	events []gateway.GameEvent
}

func (f *fakeHub) Broadcast(gameID string, event gateway.GameEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeHub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newLifecycleFixture(grace time.Duration) (*Manager, *fakeStore, *fakeHub, *clockwork.FakeClock) {
	sess := models.NewGameSession("GAME1", "alice")
	sess.Players = []*models.Player{{Username: "alice", Online: false}}
	store := &fakeStore{sess: sess}
	hub := &fakeHub{}
	clock := clockwork.NewFakeClock()
	return NewManager(store, hub, clock, grace), store, hub, clock
}

func TestAbandonedLobbyDeletedAfterGrace(t *testing.T) {
	m, store, hub, clock := newLifecycleFixture(2 * time.Minute)

	store.inspect(func(sess *models.GameSession) {
		m.ScheduleIfEmpty("GAME1", sess)
		require.NotNil(t, sess.CleanupTimer)
	})

	clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		return len(store.deletedGames()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"GAME1"}, store.deletedGames())
	assert.Equal(t, 1, hub.count())
}

func TestReconnectBeforeDeadlineCancelsCleanup(t *testing.T) {
	m, store, _, clock := newLifecycleFixture(2 * time.Minute)

	store.inspect(func(sess *models.GameSession) {
		m.ScheduleIfEmpty("GAME1", sess)
		require.NotNil(t, sess.CleanupTimer)

		// Player comes back; the occupancy re-check cancels the pending timer.
		sess.Players[0].Online = true
		m.ScheduleIfEmpty("GAME1", sess)
		assert.Nil(t, sess.CleanupTimer)
		assert.True(t, sess.EmptySince.IsZero())
	})

	clock.Advance(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.deletedGames())
}

func TestRepopulatedAtExpiryInstantSurvives(t *testing.T) {
	m, store, _, clock := newLifecycleFixture(2 * time.Minute)

	store.inspect(func(sess *models.GameSession) {
		m.ScheduleIfEmpty("GAME1", sess)
		// Reconnect lands without anyone cancelling the timer; the expiry
		// itself must notice and back off.
		sess.Players[0].Online = true
	})

	clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		var cleared bool
		store.inspect(func(sess *models.GameSession) { cleared = sess.CleanupTimer == nil })
		return cleared
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, store.deletedGames())
}

func TestInProgressGameNeverExpires(t *testing.T) {
	m, store, _, clock := newLifecycleFixture(2 * time.Minute)

	store.inspect(func(sess *models.GameSession) {
		sess.InLobby = false
		m.ScheduleIfEmpty("GAME1", sess)
	})

	clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		var cleared bool
		store.inspect(func(sess *models.GameSession) { cleared = sess.CleanupTimer == nil })
		return cleared
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, store.deletedGames())
}

func TestScheduleIsIdempotentWhileArmed(t *testing.T) {
	m, store, _, clock := newLifecycleFixture(2 * time.Minute)

	store.inspect(func(sess *models.GameSession) {
		m.ScheduleIfEmpty("GAME1", sess)
		first := sess.EmptySince

		clock.Advance(time.Minute)
		m.ScheduleIfEmpty("GAME1", sess)
		// Re-scheduling must not push the deadline out.
		assert.Equal(t, first, sess.EmptySince)
	})
}

func TestZeroGraceFallsBackToDefault(t *testing.T) {
	m, _, _, _ := newLifecycleFixture(0)
	assert.Equal(t, DefaultGracePeriod, m.grace)
}
