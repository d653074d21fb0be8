package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/timer"
)

// Controller drives a session through its phases: first board, second
// board, Final Jeopardy, game over. Every method must run under the
// session's lock; timer expiries re-enter through the timer service, which
// re-acquires it.
type Controller struct {
	timers   *timer.Service
	hub      Broadcaster
	narrator Narrator
	judge    Judge
	profiles ProfileStats
}

// NewController creates a phase controller.
func NewController(timers *timer.Service, hub Broadcaster, narrator Narrator, judge Judge, profiles ProfileStats) *Controller {
	return &Controller{
		timers:   timers,
		hub:      hub,
		narrator: narrator,
		judge:    judge,
		profiles: profiles,
	}
}

// IsBoardFullyCleared reports whether every clue of every category on the
// board has its identifier in the cleared set.
func IsBoardFullyCleared(board *models.Board, cleared map[string]bool) bool {
	if board == nil {
		return false
	}
	for _, cat := range board.Categories {
		for _, clue := range cat.Clues {
			if !cleared[clue.ID()] {
				return false
			}
		}
	}
	return true
}

// CheckBoardTransition advances the session when its active board is fully
// cleared. Only ever invoked from the clue-clearing handler; broadcasting a
// phase twice is harmless, but callers must serialize per session because
// the active board mutates before narration completes.
func (c *Controller) CheckBoardTransition(ctx context.Context, gameID string, sess *models.GameSession) {
	switch sess.ActiveBoard {
	case models.BoardFirst:
		if IsBoardFullyCleared(sess.BoardData.Board(models.BoardFirst), sess.ClearedClues) {
			c.startDoubleJeopardy(ctx, gameID, sess)
		}
	case models.BoardSecond:
		if IsBoardFullyCleared(sess.BoardData.Board(models.BoardSecond), sess.ClearedClues) {
			c.StartFinalJeopardy(ctx, gameID, sess)
		}
	}
}

// startDoubleJeopardy moves the session onto the second board. The next
// selector is the player with the lowest current score; ties go to the
// first one encountered in join order.
func (c *Controller) startDoubleJeopardy(ctx context.Context, gameID string, sess *models.GameSession) {
	log.Info().Str("game_id", gameID).Msg("first board cleared, starting double jeopardy")

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventPhaseChanged, gateway.PhaseChangedPayload{
		Phase: "transition",
	}))

	sess.ActiveBoard = models.BoardSecond
	sess.ClearedClues = make(map[string]bool)
	sess.SelectedClue = nil
	sess.Buzzed = ""
	sess.BuzzerLocked = false
	sess.BuzzLockouts = make(map[string]bool)

	if selector := lowestScorer(sess); selector != nil {
		sess.SelectorKey = models.NormalizeName(selector.Username)
		sess.SelectorName = selector.DisplayName
	}

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventSecondBoard, nil))

	alive := c.narrator.VoiceSequence(ctx, gameID, sess, []VoiceStep{
		{Slot: "double_jeopardy_intro", Pad: 500 * time.Millisecond},
	})
	if !alive {
		return
	}

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventPhaseChanged, gateway.PhaseChangedPayload{
		Phase:        "board",
		SelectorKey:  sess.SelectorKey,
		SelectorName: sess.SelectorName,
	}))
}

// lowestScorer returns the player with the lowest current score, first
// encountered in join order on ties. Nil only when the session has no
// players.
func lowestScorer(sess *models.GameSession) *models.Player {
	var lowest *models.Player
	for _, p := range sess.Players {
		if lowest == nil || sess.Scores[p.Username] < sess.Scores[lowest.Username] {
			lowest = p
		}
	}
	return lowest
}

// StartFinalJeopardy enters the wager stage. If the board data lacks a
// usable Final Jeopardy clue the transition is surfaced to clients and the
// session state is left untouched.
func (c *Controller) StartFinalJeopardy(ctx context.Context, gameID string, sess *models.GameSession) {
	cat, _, ok := sess.BoardData.FinalClue()
	if !ok {
		log.Error().Str("game_id", gameID).Msg("no usable final jeopardy clue in board data")
		c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventCreateBoardFailed, gateway.ErrorPayload{
			Message: "Final Jeopardy data is missing.",
		}))
		c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventError, gateway.ErrorPayload{
			Message: "Final Jeopardy could not start.",
		}))
		return
	}

	log.Info().Str("game_id", gameID).Msg("second board cleared, starting final jeopardy")

	sess.ActiveBoard = models.BoardFinal
	sess.IsFinalJeopardy = true
	sess.FinalStage = models.StageWager
	sess.Wagers = make(map[string]int)
	sess.Drawings = make(map[string]string)
	sess.FinalVerdicts = make(map[string]models.Verdict)
	sess.FinalTranscripts = make(map[string]string)

	finalists := c.finalists(sess)

	alive := c.narrator.VoiceSequence(ctx, gameID, sess, []VoiceStep{
		{Slot: "final_jeopardy_intro", Pad: 500 * time.Millisecond},
		{Slot: "final_category:" + cat.Name, Pad: time.Second},
	})
	if !alive {
		return
	}

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventFinalJeopardy, gateway.FinalJeopardyPayload{
		Finalists: finalists,
	}))

	duration := time.Duration(sess.LobbySettings.FinalWagerSeconds) * time.Second
	c.timers.Start(gameID, sess, duration, models.TimerFinalWager, c.onWagerTimeout)
}

// finalists returns the frozen finalist list, computing it on first access:
// players with a positive score who are online at that moment. Once frozen
// it never changes for the remainder of this Final Jeopardy run, so later
// score or connectivity changes cannot drift the roster mid-phase.
func (c *Controller) finalists(sess *models.GameSession) []string {
	if sess.Finalists == nil {
		finalists := []string{}
		for _, p := range sess.Players {
			if sess.Scores[p.Username] > 0 && p.Online {
				finalists = append(finalists, models.NormalizeName(p.Username))
			}
		}
		sess.Finalists = finalists
	}
	return sess.Finalists
}

func (c *Controller) isFinalist(sess *models.GameSession, username string) bool {
	key := models.NormalizeName(username)
	for _, f := range c.finalists(sess) {
		if f == key {
			return true
		}
	}
	return false
}

// SubmitWager records a finalist's wager. Non-finalists are rejected
// silently. Must run under the session lock.
func (c *Controller) SubmitWager(ctx context.Context, gameID string, sess *models.GameSession, username string, wager int) {
	if sess.FinalStage != models.StageWager || !c.isFinalist(sess, username) {
		return
	}

	key := models.NormalizeName(username)
	c.fireAndForget(gameID, "increment participated", func(ctx context.Context, profileID string) error {
		return c.profiles.IncrementParticipated(ctx, profileID)
	}, key)

	sess.Wagers[key] = wager
	log.Debug().Str("game_id", gameID).Str("player", key).Int("wager", wager).Msg("wager submitted")

	c.checkAllWagersSubmitted(ctx, gameID, sess)
}

func (c *Controller) checkAllWagersSubmitted(ctx context.Context, gameID string, sess *models.GameSession) {
	for _, f := range c.finalists(sess) {
		if _, ok := sess.Wagers[f]; !ok {
			return
		}
	}
	c.timers.Clear(gameID, sess)
	c.startDrawingStage(ctx, gameID, sess)
}

// onWagerTimeout fills the missing wagers with 0 and moves on. The stage
// guard matters: the session may have advanced while this expiry was queued.
func (c *Controller) onWagerTimeout(exp timer.Expiry) {
	sess := exp.Session
	if sess.FinalStage != models.StageWager {
		return
	}
	for _, f := range c.finalists(sess) {
		if _, ok := sess.Wagers[f]; !ok {
			sess.Wagers[f] = 0
		}
	}
	c.startDrawingStage(context.Background(), exp.GameID, sess)
}

// startDrawingStage reveals the Final Jeopardy clue, locks the buzzer and
// starts the drawing timer.
func (c *Controller) startDrawingStage(ctx context.Context, gameID string, sess *models.GameSession) {
	cat, clue, ok := sess.BoardData.FinalClue()
	if !ok {
		return
	}

	sess.FinalStage = models.StageDrawing
	sess.SelectedClue = &models.SelectedClue{
		Category:         cat.Name,
		Value:            clue.Value,
		Question:         clue.Question,
		Answer:           clue.Answer,
		Media:            clue.Media,
		IsAnswerRevealed: false,
	}
	sess.BuzzerLocked = true

	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventAllWagers, gateway.AllWagersPayload{
		Wagers:    sess.Wagers,
		Finalists: c.finalists(sess),
	}))
	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventClueSelected, gateway.ClueSelectedPayload{
		Clue:         sess.SelectedClue,
		ClearedClues: clearedList(sess),
		Finalists:    c.finalists(sess),
	}))
	c.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventBuzzerLocked, nil))

	alive := c.narrator.VoiceSequence(ctx, gameID, sess, []VoiceStep{
		{Slot: "final_clue_read", Pad: time.Second},
	})
	if !alive {
		return
	}

	duration := time.Duration(sess.LobbySettings.FinalDrawSeconds) * time.Second
	c.timers.Start(gameID, sess, duration, models.TimerFinalDraw, c.onDrawingTimeout)
}

// SubmitDrawing records a finalist's drawing and its judgment. Judge errors
// are not swallowed here: they propagate to the handler boundary.
func (c *Controller) SubmitDrawing(ctx context.Context, gameID string, sess *models.GameSession, username, drawing string) error {
	if sess.FinalStage != models.StageDrawing || !c.isFinalist(sess, username) {
		return nil
	}
	if sess.SelectedClue == nil {
		return nil
	}

	judgment, err := c.judge.JudgeImage(ctx, sess.SelectedClue.Answer, drawing)
	if err != nil {
		return fmt.Errorf("failed to judge drawing: %w", err)
	}

	key := models.NormalizeName(username)
	sess.Drawings[key] = drawing
	sess.FinalVerdicts[key] = judgment.Verdict
	sess.FinalTranscripts[key] = judgment.Transcript

	log.Debug().
		Str("game_id", gameID).
		Str("player", key).
		Str("verdict", string(judgment.Verdict)).
		Msg("drawing judged")

	c.checkAllDrawingsSubmitted(ctx, gameID, sess)
	return nil
}

func (c *Controller) checkAllDrawingsSubmitted(ctx context.Context, gameID string, sess *models.GameSession) {
	for _, f := range c.finalists(sess) {
		if _, ok := sess.Drawings[f]; !ok {
			return
		}
	}
	c.timers.Clear(gameID, sess)
	c.finishGame(ctx, gameID, sess)
}

// onDrawingTimeout fills the missing drawings with an incorrect blank and
// moves on. Existing entries are never overwritten.
func (c *Controller) onDrawingTimeout(exp timer.Expiry) {
	sess := exp.Session
	if sess.FinalStage != models.StageDrawing {
		return
	}
	for _, f := range c.finalists(sess) {
		if _, ok := sess.Drawings[f]; !ok {
			sess.Drawings[f] = ""
			sess.FinalVerdicts[f] = models.VerdictIncorrect
			sess.FinalTranscripts[f] = ""
		}
	}
	c.finishGame(context.Background(), exp.GameID, sess)
}

func clearedList(sess *models.GameSession) []string {
	cleared := make([]string, 0, len(sess.ClearedClues))
	for id := range sess.ClearedClues {
		cleared = append(cleared, id)
	}
	return cleared
}

// fireAndForget resolves a profile ID for the player and runs the stat call
// in the background. Failures are logged, never awaited and never surfaced
// into game state.
func (c *Controller) fireAndForget(gameID, what string, call func(ctx context.Context, profileID string) error, username string) {
	if c.profiles == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		profileID, err := c.profiles.GetIDByUsername(ctx, username)
		if err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Str("player", username).Msgf("failed to resolve profile for %s", what)
			return
		}
		if profileID == "" {
			return
		}
		if err := call(ctx, profileID); err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Str("player", username).Msgf("failed to %s", what)
		}
	}()
}
