package phase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// Prize money for the standardized final payout. Placement overrides the
// running score: the winner keeps their score floored at the winner prize,
// second and third get fixed amounts, everyone else gets nothing.
const (
	winnerPrizeFloor = 3000
	secondPrize      = 3000
	thirdPrize       = 2000
	bigWagerLine     = 5000
)

// finishGame runs the finale: applies wagers to scores, narrates the top
// three in reverse rank order, standardizes the payout and broadcasts the
// final score screen. An aborted narration sequence stops the remainder of
// the finale from running.
func (c *Controller) finishGame(ctx context.Context, gameID string, sess *models.GameSession) {
	sess.FinalStage = models.StageFinale

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventAllDrawings, gateway.AllDrawingsPayload{
		Drawings: sess.Drawings,
	}))

	for _, key := range c.finalists(sess) {
		p := sess.FindPlayer(key)
		if p == nil {
			continue
		}
		wager := sess.Wagers[key]
		if sess.FinalVerdicts[key] == models.VerdictCorrect {
			sess.Scores[p.Username] += wager
			c.fireAndForget(gameID, "increment final jeopardy corrects", func(ctx context.Context, profileID string) error {
				return c.profiles.IncrementFinalCorrects(ctx, profileID)
			}, key)
		} else {
			sess.Scores[p.Username] -= wager
		}
	}

	ranked := make([]*models.Player, len(sess.Players))
	copy(ranked, sess.Players)
	sort.SliceStable(ranked, func(i, j int) bool {
		return sess.Scores[ranked[i].Username] > sess.Scores[ranked[j].Username]
	})
	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}

	// Third place is announced first, the winner last.
	for rank := len(top) - 1; rank >= 0; rank-- {
		if !c.narrateFinalist(ctx, gameID, sess, top[rank], rank+1) {
			log.Warn().Str("game_id", gameID).Msg("finale narration aborted, finale halted")
			return
		}
	}

	c.standardizePayout(sess, top)

	for _, p := range sess.Players {
		c.fireAndForget(gameID, "increment games finished", func(ctx context.Context, profileID string) error {
			return c.profiles.IncrementGamesFinished(ctx, profileID)
		}, models.NormalizeName(p.Username))
	}
	if len(top) > 0 {
		c.fireAndForget(gameID, "increment games won", func(ctx context.Context, profileID string) error {
			return c.profiles.IncrementGamesWon(ctx, profileID)
		}, models.NormalizeName(top[0].Username))
	}
	for _, p := range top {
		amount := sess.Scores[p.Username]
		c.fireAndForget(gameID, "add money won", func(ctx context.Context, profileID string) error {
			return c.profiles.AddMoneyWon(ctx, profileID, amount)
		}, models.NormalizeName(p.Username))
	}

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventUpdateScores, gateway.UpdateScoresPayload{
		Scores: sess.Scores,
	}))
	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventFinalScoreScreen, nil))

	log.Info().Str("game_id", gameID).Msg("game finished")
}

// narrateFinalist plays one finalist's reveal sequence. Returns the
// narrator's liveness flag; false means stop the finale.
func (c *Controller) narrateFinalist(ctx context.Context, gameID string, sess *models.GameSession, p *models.Player, rank int) bool {
	key := models.NormalizeName(p.Username)
	wager := sess.Wagers[key]
	verdict := sess.FinalVerdicts[key]

	steps := []VoiceStep{
		{Slot: "finale_display_finalist", Pad: 800 * time.Millisecond, After: func() {
			c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventDisplayFinalist, gateway.DisplayFinalistPayload{
				Finalist: key,
			}))
		}},
	}

	// The clue answer is revealed once overall, triggered by the first
	// correct finalist in announcement order.
	if verdict == models.VerdictCorrect && sess.SelectedClue != nil && !sess.SelectedClue.IsAnswerRevealed {
		steps = append(steps, VoiceStep{Slot: "finale_reveal_answer", Pad: time.Second, After: func() {
			sess.SelectedClue.IsAnswerRevealed = true
			c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventAnswerRevealed, gateway.AnswerRevealedPayload{
				Clue: sess.SelectedClue,
			}))
		}})
	}

	verdictSlot := "finale_verdict_incorrect"
	if verdict == models.VerdictCorrect {
		verdictSlot = "finale_verdict_correct"
	}
	followupAsset := "followup_sm"
	if wager > bigWagerLine {
		followupAsset = "followup_lg"
	}

	steps = append(steps,
		VoiceStep{Slot: verdictSlot, Pad: 500 * time.Millisecond},
		VoiceStep{Slot: "finale_reveal_wager", Pad: 500 * time.Millisecond, After: func() {
			c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventRevealWager, gateway.RevealWagerPayload{
				Finalist: key,
				Wager:    wager,
			}))
		}},
		VoiceStep{Slot: "finale_update_score", Pad: 500 * time.Millisecond, After: func() {
			c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventUpdateScore, gateway.UpdateScorePayload{
				Username: p.Username,
				Score:    sess.Scores[p.Username],
			}))
		}},
		VoiceStep{AssetID: followupAsset, Pad: time.Second},
	)

	log.Debug().
		Str("game_id", gameID).
		Str("player", key).
		Int("rank", rank).
		Msg("narrating finalist")

	return c.narrator.VoiceSequence(ctx, gameID, sess, steps)
}

// standardizePayout overrides the running scores with placement-based prize
// money.
func (c *Controller) standardizePayout(sess *models.GameSession, top []*models.Player) {
	final := make(map[string]int, len(sess.Players))
	for _, p := range sess.Players {
		final[p.Username] = 0
	}
	if len(top) > 0 {
		score := sess.Scores[top[0].Username]
		if score < winnerPrizeFloor {
			score = winnerPrizeFloor
		}
		final[top[0].Username] = score
	}
	if len(top) > 1 {
		final[top[1].Username] = secondPrize
	}
	if len(top) > 2 {
		final[top[2].Username] = thirdPrize
	}
	sess.Scores = final
}
