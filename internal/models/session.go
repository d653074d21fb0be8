package models

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// FinalStage is the sub-phase within Final Jeopardy.
type FinalStage string

const (
	StageNone    FinalStage = ""
	StageWager   FinalStage = "wager"
	StageDrawing FinalStage = "drawing"
	StageFinale  FinalStage = "finale"
)

// TimerKind labels the purpose of the session's active timer.
type TimerKind string

const (
	TimerNone       TimerKind = ""
	TimerBuzzer     TimerKind = "buzzer"
	TimerClue       TimerKind = "clue"
	TimerFinalWager TimerKind = "final-wager"
	TimerFinalDraw  TimerKind = "final-draw"
)

// Verdict is the judge's ruling on a submitted drawing.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// SelectedClue is the clue currently displayed to the room.
type SelectedClue struct {
	Category         string `json:"category"`
	Value            int    `json:"value"`
	Question         string `json:"question"`
	Answer           string `json:"answer"`
	Media            string `json:"media,omitempty"`
	IsAnswerRevealed bool   `json:"isAnswerRevealed"`
}

// LobbySettings holds host-tunable options for a session.
type LobbySettings struct {
	BuzzerSeconds     int `json:"buzzerSeconds" yaml:"buzzer_seconds"`
	FinalWagerSeconds int `json:"finalWagerSeconds" yaml:"final_wager_seconds"`
	FinalDrawSeconds  int `json:"finalDrawSeconds" yaml:"final_draw_seconds"`
}

// DefaultLobbySettings returns the settings a fresh lobby starts with.
func DefaultLobbySettings() LobbySettings {
	return LobbySettings{
		BuzzerSeconds:     10,
		FinalWagerSeconds: 30,
		FinalDrawSeconds:  30,
	}
}

// CategorySlots is the number of category slots a lobby exposes for editing
// (both boards plus the Final Jeopardy category).
const CategorySlots = 11

// GameSession is the complete in-memory state of one game, keyed by game ID.
// All fields are owned by the GameStore: access only inside WithSession.
type GameSession struct {
	GameID  string
	Players []*Player
	Host    string
	Scores  map[string]int

	BoardData    *BoardData
	ActiveBoard  BoardKind
	ClearedClues map[string]bool

	SelectedClue *SelectedClue
	BuzzerLocked bool
	Buzzed       string
	BuzzLockouts map[string]bool

	// Timer state, managed exclusively by the timer service.
	TimerTimeout  clockwork.Timer
	TimerVersion  int64
	TimerEndTime  time.Time
	TimerDuration time.Duration
	TimerKind     TimerKind

	IsFinalJeopardy  bool
	FinalStage       FinalStage
	Finalists        []string // frozen on wager entry, nil until computed
	Wagers           map[string]int
	Drawings         map[string]string
	FinalVerdicts    map[string]Verdict
	FinalTranscripts map[string]string

	InLobby          bool
	LobbySettings    LobbySettings
	CleanupTimer     clockwork.Timer
	EmptySince       time.Time
	Categories       []string
	LockedCategories map[int]bool
	GeneratingBoard  bool

	SelectorKey  string
	SelectorName string
}

// NewGameSession returns a fresh lobby session hosted by the given player.
func NewGameSession(gameID, host string) *GameSession {
	return &GameSession{
		GameID:           gameID,
		Host:             host,
		Scores:           make(map[string]int),
		ClearedClues:     make(map[string]bool),
		BuzzLockouts:     make(map[string]bool),
		Wagers:           make(map[string]int),
		Drawings:         make(map[string]string),
		FinalVerdicts:    make(map[string]Verdict),
		FinalTranscripts: make(map[string]string),
		InLobby:          true,
		LobbySettings:    DefaultLobbySettings(),
		Categories:       make([]string, CategorySlots),
		LockedCategories: make(map[int]bool),
	}
}

// FindPlayer returns the player whose normalized username matches, or nil.
func (s *GameSession) FindPlayer(username string) *Player {
	key := NormalizeName(username)
	for _, p := range s.Players {
		if NormalizeName(p.Username) == key {
			return p
		}
	}
	return nil
}

// PlayerBySocket returns the player currently bound to the socket ID, or nil.
func (s *GameSession) PlayerBySocket(socketID string) *Player {
	if socketID == "" {
		return nil
	}
	for _, p := range s.Players {
		if p.SocketID == socketID {
			return p
		}
	}
	return nil
}

// IsEmpty reports whether no player in the session is online.
func (s *GameSession) IsEmpty() bool {
	for _, p := range s.Players {
		if p.Online {
			return false
		}
	}
	return true
}
