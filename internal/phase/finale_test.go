package phase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// enterFinale drives a session through wagers and drawings so finishGame has
// real inputs to work with.
func enterFinale(f *fixture, wagers map[string]int, verdicts map[string]models.Verdict) {
	f.store.inspect(func(sess *models.GameSession) {
		f.ctrl.StartFinalJeopardy(context.Background(), "GAME1", sess)
		sess.FinalStage = models.StageDrawing
		cat, clue, _ := sess.BoardData.FinalClue()
		sess.SelectedClue = &models.SelectedClue{
			Category: cat.Name,
			Question: clue.Question,
			Answer:   clue.Answer,
		}
		for player, wager := range wagers {
			sess.Wagers[player] = wager
		}
		for player, verdict := range verdicts {
			sess.Drawings[player] = "data:image/png;base64,xyz"
			sess.FinalVerdicts[player] = verdict
		}
		f.ctrl.finishGame(context.Background(), "GAME1", sess)
	})
}

func TestFinaleAppliesWagersAndStandardizesPayout(t *testing.T) {
	f := newFixture(t)

	// alice 1000 + 500 correct = 1500, bob 800 - 800 incorrect = 0. The
	// winner's payout floors at the winner prize, so both walk with 3000.
	enterFinale(f,
		map[string]int{"alice": 500, "bob": 800},
		map[string]models.Verdict{"alice": models.VerdictCorrect, "bob": models.VerdictIncorrect},
	)

	f.store.inspect(func(sess *models.GameSession) {
		assert.Equal(t, models.StageFinale, sess.FinalStage)
		assert.Equal(t, 3000, sess.Scores["alice"])
		assert.Equal(t, 3000, sess.Scores["bob"])
	})

	assert.Len(t, f.hub.byType(gateway.EventAllDrawings), 1)
	assert.Len(t, f.hub.byType(gateway.EventFinalScoreScreen), 1)

	scores := f.hub.byType(gateway.EventUpdateScores)
	require.Len(t, scores, 1)
	assert.Equal(t, 3000, scores[0].Data.(gateway.UpdateScoresPayload).Scores["alice"])
}

func TestFinaleWinnerKeepsScoreAboveFloor(t *testing.T) {
	f := newFixture(t)
	f.store.inspect(func(sess *models.GameSession) {
		sess.Players = append(sess.Players,
			&models.Player{Username: "carol", DisplayName: "Carol", Online: true},
			&models.Player{Username: "dave", DisplayName: "Dave", Online: true},
		)
		sess.Scores = map[string]int{"alice": 8000, "bob": 4000, "carol": 2000, "dave": 1000}
	})

	enterFinale(f,
		map[string]int{"alice": 2000, "bob": 0, "carol": 0, "dave": 0},
		map[string]models.Verdict{
			"alice": models.VerdictCorrect,
			"bob":   models.VerdictIncorrect,
			"carol": models.VerdictIncorrect,
			"dave":  models.VerdictIncorrect,
		},
	)

	f.store.inspect(func(sess *models.GameSession) {
		assert.Equal(t, 10000, sess.Scores["alice"])
		assert.Equal(t, 3000, sess.Scores["bob"])
		assert.Equal(t, 2000, sess.Scores["carol"])
		// Fourth place walks with nothing.
		assert.Equal(t, 0, sess.Scores["dave"])
	})
}

func TestFinaleAnnouncesInReverseRankOrder(t *testing.T) {
	f := newFixture(t)
	enterFinale(f,
		map[string]int{"alice": 0, "bob": 0},
		map[string]models.Verdict{"alice": models.VerdictCorrect, "bob": models.VerdictIncorrect},
	)

	displayed := f.hub.byType(gateway.EventDisplayFinalist)
	require.Len(t, displayed, 2)
	// bob (second place) first, alice (winner) last.
	assert.Equal(t, "bob", displayed[0].Data.(gateway.DisplayFinalistPayload).Finalist)
	assert.Equal(t, "alice", displayed[1].Data.(gateway.DisplayFinalistPayload).Finalist)
}

func TestFinaleRevealsAnswerExactlyOnce(t *testing.T) {
	f := newFixture(t)
	enterFinale(f,
		map[string]int{"alice": 100, "bob": 100},
		map[string]models.Verdict{"alice": models.VerdictCorrect, "bob": models.VerdictCorrect},
	)

	assert.Len(t, f.hub.byType(gateway.EventAnswerRevealed), 1)
	assert.Len(t, f.hub.byType(gateway.EventRevealWager), 2)
}

func TestFinaleHaltsWhenNarrationDies(t *testing.T) {
	f := newFixture(t)
	f.narr.alive = false

	enterFinale(f,
		map[string]int{"alice": 500, "bob": 800},
		map[string]models.Verdict{"alice": models.VerdictCorrect, "bob": models.VerdictIncorrect},
	)

	assert.Empty(t, f.hub.byType(gateway.EventFinalScoreScreen))
	f.store.inspect(func(sess *models.GameSession) {
		// Wagers applied but payout never standardized.
		assert.Equal(t, 1500, sess.Scores["alice"])
		assert.Equal(t, 0, sess.Scores["bob"])
	})
}
