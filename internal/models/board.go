package models

import "fmt"

// BoardKind identifies which board a session is currently playing.
type BoardKind string

const (
	BoardFirst  BoardKind = "firstBoard"
	BoardSecond BoardKind = "secondBoard"
	BoardFinal  BoardKind = "finalJeopardy"
)

// Clue is a single cell on a board.
type Clue struct {
	Value    int    `json:"value"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Media    string `json:"media,omitempty"`
}

// ID returns the clue identifier recorded in the cleared-clue set.
func (c Clue) ID() string {
	return fmt.Sprintf("%d-%s", c.Value, c.Question)
}

// Category is a named column of clues.
type Category struct {
	Name  string `json:"category"`
	Clues []Clue `json:"clues"`
}

// Board is one round's worth of categories.
type Board struct {
	Categories []Category `json:"categories"`
}

// BoardData holds all three boards for one game.
type BoardData struct {
	FirstBoard    Board `json:"firstBoard"`
	SecondBoard   Board `json:"secondBoard"`
	FinalJeopardy Board `json:"finalJeopardy"`
}

// Board returns the board for the given kind, or nil for an unknown kind.
func (bd *BoardData) Board(kind BoardKind) *Board {
	switch kind {
	case BoardFirst:
		return &bd.FirstBoard
	case BoardSecond:
		return &bd.SecondBoard
	case BoardFinal:
		return &bd.FinalJeopardy
	default:
		return nil
	}
}

// FinalClue returns the single Final Jeopardy clue, or false when the board
// data does not contain a usable one.
func (bd *BoardData) FinalClue() (Category, Clue, bool) {
	if bd == nil || len(bd.FinalJeopardy.Categories) == 0 {
		return Category{}, Clue{}, false
	}
	cat := bd.FinalJeopardy.Categories[0]
	if len(cat.Clues) == 0 {
		return Category{}, Clue{}, false
	}
	return cat, cat.Clues[0], true
}
