package gateway

import (
	"time"

	"github.com/google/uuid"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// GameEvent is the envelope for every outbound message.
type GameEvent struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id,omitempty"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// EventType identifies an outbound game event.
type EventType string

const (
	EventLobbyState        EventType = "lobby-state"
	EventPlayerListUpdate  EventType = "player-list-update"
	EventPhaseChanged      EventType = "phase-changed"
	EventFinalJeopardy     EventType = "final-jeopardy"
	EventAllWagers         EventType = "all-wagers-submitted"
	EventClueSelected      EventType = "clue-selected"
	EventClueCleared       EventType = "clue-cleared"
	EventBuzzerLocked      EventType = "buzzer-locked"
	EventBuzzerUnlocked    EventType = "buzzer-unlocked"
	EventBuzzed            EventType = "buzzed"
	EventBuzzerUIReset     EventType = "buzzer-ui-reset"
	EventTimerStart        EventType = "timer-start"
	EventTimerEnd          EventType = "timer-end"
	EventAllDrawings       EventType = "all-drawings-submitted"
	EventDisplayFinalist   EventType = "display-finalist"
	EventAnswerRevealed    EventType = "answer-revealed"
	EventRevealWager       EventType = "reveal-finalist-wager"
	EventUpdateScore       EventType = "update-score"
	EventUpdateScores      EventType = "update-scores"
	EventFinalScoreScreen  EventType = "final-score-screen"
	EventSecondBoard       EventType = "transition-to-second-board"
	EventCreateBoardFailed EventType = "create-board-failed"
	EventHostNarration     EventType = "host-narration"
	EventError             EventType = "error"
)

// NewEvent builds an event envelope for broadcast.
func NewEvent(gameID string, eventType EventType, data any) GameEvent {
	return GameEvent{
		ID:        uuid.New().String(),
		GameID:    gameID,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// PhaseChangedPayload announces a board phase transition.
type PhaseChangedPayload struct {
	Phase        string `json:"phase"` // "transition" or "board"
	SelectorKey  string `json:"selectorKey,omitempty"`
	SelectorName string `json:"selectorName,omitempty"`
}

// TimerStartPayload announces a running timer.
type TimerStartPayload struct {
	EndTime      time.Time        `json:"endTime"`
	Duration     int              `json:"duration"` // seconds
	TimerVersion int64            `json:"timerVersion"`
	TimerKind    models.TimerKind `json:"timerKind"`
}

// TimerEndPayload announces the end of a timer (idempotent on the client).
type TimerEndPayload struct {
	TimerVersion int64            `json:"timerVersion"`
	TimerKind    models.TimerKind `json:"timerKind"`
}

// FinalJeopardyPayload announces entry into Final Jeopardy.
type FinalJeopardyPayload struct {
	Finalists []string `json:"finalists"`
}

// AllWagersPayload announces that every wager is in.
type AllWagersPayload struct {
	Wagers    map[string]int `json:"wagers"`
	Finalists []string       `json:"finalists"`
}

// ClueSelectedPayload carries the live clue to the room.
type ClueSelectedPayload struct {
	Clue         *models.SelectedClue `json:"clue"`
	ClearedClues []string             `json:"clearedClues"`
	Finalists    []string             `json:"finalists,omitempty"`
}

// AllDrawingsPayload announces that every drawing is in.
type AllDrawingsPayload struct {
	Drawings map[string]string `json:"drawings"`
}

// DisplayFinalistPayload names the finalist the finale sequence is showing.
type DisplayFinalistPayload struct {
	Finalist string `json:"finalist"`
}

// AnswerRevealedPayload carries the clue with its answer flagged revealed.
type AnswerRevealedPayload struct {
	Clue *models.SelectedClue `json:"clue"`
}

// RevealWagerPayload reveals one finalist's wager during the finale.
type RevealWagerPayload struct {
	Finalist string `json:"finalist"`
	Wager    int    `json:"wager"`
}

// UpdateScorePayload updates a single player's displayed score.
type UpdateScorePayload struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// UpdateScoresPayload replaces the full score table.
type UpdateScoresPayload struct {
	Scores map[string]int `json:"scores"`
}

// HostNarrationPayload cues clients to play one host narration line: either
// a synthesized slot or a pre-rendered asset.
type HostNarrationPayload struct {
	Slot    string `json:"slot,omitempty"`
	AssetID string `json:"assetId,omitempty"`
}

// BuzzedPayload names the player who won the buzzer race.
type BuzzedPayload struct {
	Username string `json:"username"`
}

// ClueClearedPayload announces a clue leaving the board.
type ClueClearedPayload struct {
	ClueID       string   `json:"clueId"`
	ClearedClues []string `json:"clearedClues"`
}

// ErrorPayload carries a user-visible error message.
type ErrorPayload struct {
	Message string `json:"message"`
}
