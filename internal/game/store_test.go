package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

func TestStoreCreateAndLookup(t *testing.T) {
	store := NewGameStore()
	sess := models.NewGameSession("GAME1", "alice")

	require.NoError(t, store.Create(sess))
	assert.True(t, store.Exists("GAME1"))
	assert.Equal(t, 1, store.Count())

	assert.ErrorIs(t, store.Create(models.NewGameSession("GAME1", "bob")), ErrSessionExists)
}

func TestWithSessionUnknownGame(t *testing.T) {
	store := NewGameStore()
	err := store.WithSession("NOPE", func(sess *models.GameSession) error {
		t.Fatal("fn must not run for an unknown game")
		return nil
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWithSessionMutationsStick(t *testing.T) {
	store := NewGameStore()
	require.NoError(t, store.Create(models.NewGameSession("GAME1", "alice")))

	require.NoError(t, store.WithSession("GAME1", func(sess *models.GameSession) error {
		sess.Scores["alice"] = 400
		return nil
	}))
	require.NoError(t, store.WithSession("GAME1", func(sess *models.GameSession) error {
		assert.Equal(t, 400, sess.Scores["alice"])
		return nil
	}))
}

func TestDeleteInsideWithSession(t *testing.T) {
	store := NewGameStore()
	require.NoError(t, store.Create(models.NewGameSession("GAME1", "alice")))

	require.NoError(t, store.WithSession("GAME1", func(sess *models.GameSession) error {
		store.Delete(sess.GameID)
		return nil
	}))

	assert.False(t, store.Exists("GAME1"))
	assert.ErrorIs(t, store.WithSession("GAME1", func(*models.GameSession) error { return nil }), ErrSessionNotFound)
}

func TestDeleteUnknownGameIsSafe(t *testing.T) {
	store := NewGameStore()
	store.Delete("NOPE")
	assert.Equal(t, 0, store.Count())
}

func TestSessionsSerializePerGame(t *testing.T) {
	store := NewGameStore()
	require.NoError(t, store.Create(models.NewGameSession("GAME1", "alice")))
	require.NoError(t, store.Create(models.NewGameSession("GAME2", "bob")))

	const workers = 8
	const increments = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		gameID := "GAME1"
		if i%2 == 1 {
			gameID = "GAME2"
		}
		wg.Add(1)
		go func(gameID string) {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				_ = store.WithSession(gameID, func(sess *models.GameSession) error {
					sess.Scores["p"]++
					return nil
				})
			}
		}(gameID)
	}
	wg.Wait()

	for _, gameID := range []string{"GAME1", "GAME2"} {
		require.NoError(t, store.WithSession(gameID, func(sess *models.GameSession) error {
			assert.Equal(t, workers/2*increments, sess.Scores["p"])
			return nil
		}))
	}
}
