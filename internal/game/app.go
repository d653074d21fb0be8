package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/lobby"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/phase"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/timer"
)

// BoardRepository fetches generated board data for a new game. Generation
// itself (AI or otherwise) lives behind this interface.
type BoardRepository interface {
	FetchBoards(ctx context.Context, categories []string) (*models.BoardData, error)
}

// App routes inbound client messages to game state mutations. Every handler
// runs as one unit of work under the session lock, so handlers for the same
// game never interleave while different games progress in parallel.
type App struct {
	store     *GameStore
	hub       *gateway.Hub
	phases    *phase.Controller
	timers    *timer.Service
	lifecycle *lobby.Manager
	boards    BoardRepository
	settings  models.LobbySettings
}

// NewApp creates the message router.
func NewApp(store *GameStore, hub *gateway.Hub, phases *phase.Controller, timers *timer.Service, lifecycle *lobby.Manager, boards BoardRepository) *App {
	return &App{
		store:     store,
		hub:       hub,
		phases:    phases,
		timers:    timers,
		lifecycle: lifecycle,
		boards:    boards,
		settings:  models.DefaultLobbySettings(),
	}
}

// SetDefaultSettings overrides the settings new lobbies start with.
func (a *App) SetDefaultSettings(settings models.LobbySettings) {
	a.settings = settings
}

// HandleMessage implements gateway.MessageHandler.
func (a *App) HandleMessage(conn *gateway.Connection, msg gateway.InboundMessage) {
	ctx := context.Background()

	var err error
	switch msg.Type {
	case MsgCreateLobby:
		err = a.handleCreateLobby(conn, msg.Data)
	case MsgJoinLobby:
		err = a.handleJoin(conn, msg.Data, true)
	case MsgJoinGame:
		err = a.handleJoin(conn, msg.Data, false)
	case MsgCreateGame:
		err = a.handleCreateGame(ctx, conn)
	case MsgSelectClue:
		err = a.handleSelectClue(conn, msg.Data)
	case MsgBuzz:
		err = a.handleBuzz(conn)
	case MsgLockBuzzer:
		err = a.handleLockBuzzer(conn)
	case MsgUnlockBuzzer:
		err = a.handleUnlockBuzzer(conn)
	case MsgMarkCorrect:
		err = a.handleVerdict(ctx, conn, true)
	case MsgMarkIncorrect:
		err = a.handleVerdict(ctx, conn, false)
	case MsgCloseClue:
		err = a.handleCloseClue(ctx, conn)
	case MsgSubmitWager:
		err = a.handleSubmitWager(ctx, conn, msg.Data)
	case MsgSubmitDrawing:
		err = a.handleSubmitDrawing(ctx, conn, msg.Data)
	case MsgRequestLobbyState:
		err = a.handleRequestLobbyState(conn)
	case MsgPromoteHost:
		err = a.handlePromoteHost(conn, msg.Data)
	case MsgUpdateCategory:
		err = a.handleUpdateCategory(conn, msg.Data)
	case MsgToggleLockCategory:
		err = a.handleToggleLockCategory(conn, msg.Data)
	case MsgEndGame:
		err = a.handleEndGame(conn)
	default:
		log.Warn().Str("type", msg.Type).Str("connection_id", conn.ID).Msg("unknown message type, ignoring")
		return
	}

	// Per-session errors stop here: one bad message must never take down
	// handling for other games.
	if err != nil {
		log.Error().
			Err(err).
			Str("type", msg.Type).
			Str("connection_id", conn.ID).
			Str("game_id", conn.GameID).
			Msg("message handling failed")
	}
}

// HandleDisconnect implements gateway.MessageHandler. The player stays in
// the session (username is the reconnect key); only the socket identity is
// released.
func (a *App) HandleDisconnect(conn *gateway.Connection) {
	if conn.GameID == "" {
		return
	}
	err := a.store.WithSession(conn.GameID, func(sess *models.GameSession) error {
		player := sess.PlayerBySocket(conn.ID)
		if player == nil {
			return nil
		}
		player.SocketID = ""
		player.Online = false

		a.broadcastPlayerList(sess)
		a.lifecycle.ScheduleIfEmpty(sess.GameID, sess)
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("game_id", conn.GameID).Msg("disconnect for missing session")
	}
}

func (a *App) handleCreateLobby(conn *gateway.Connection, data json.RawMessage) error {
	var p createLobbyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse create-lobby: %w", err)
	}
	if p.Username == "" {
		a.sendError(conn, "A username is required to create a lobby.")
		return nil
	}

	gameID := newGameID()
	sess := models.NewGameSession(gameID, p.Username)
	sess.LobbySettings = a.settings
	sess.Players = append(sess.Players, &models.Player{
		SocketID:    conn.ID,
		Username:    p.Username,
		DisplayName: displayNameOr(p.DisplayName, p.Username),
		Color:       p.Color,
		TextColor:   p.TextColor,
		Online:      true,
	})
	sess.Scores[p.Username] = 0

	if err := a.store.Create(sess); err != nil {
		return fmt.Errorf("failed to create lobby: %w", err)
	}

	a.hub.Join(conn, gameID)
	conn.Username = p.Username
	a.hub.SendTo(conn, gateway.NewEvent(gameID, gateway.EventLobbyState, lobby.BuildState(sess, conn.ID)))
	return nil
}

// handleJoin covers join-lobby and join-game. Reconnects match on the
// normalized username; brand-new players can only enter while the session
// is still in the lobby.
func (a *App) handleJoin(conn *gateway.Connection, data json.RawMessage, lobbyJoin bool) error {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse join: %w", err)
	}

	err := a.store.WithSession(p.GameID, func(sess *models.GameSession) error {
		player := sess.FindPlayer(p.Username)
		if player == nil {
			if !sess.InLobby {
				a.sendError(conn, "That game is already in progress.")
				return nil
			}
			player = &models.Player{
				Username:    p.Username,
				DisplayName: displayNameOr(p.DisplayName, p.Username),
				Color:       p.Color,
				TextColor:   p.TextColor,
			}
			sess.Players = append(sess.Players, player)
			sess.Scores[p.Username] = 0
		}

		player.SocketID = conn.ID
		player.Online = true
		if p.DisplayName != "" {
			player.DisplayName = p.DisplayName
		}
		if p.Color != "" {
			player.Color = p.Color
		}
		if p.TextColor != "" {
			player.TextColor = p.TextColor
		}

		a.hub.Join(conn, p.GameID)
		conn.Username = player.Username

		a.lifecycle.ScheduleIfEmpty(sess.GameID, sess)
		a.broadcastPlayerList(sess)
		a.hub.SendTo(conn, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, conn.ID)))
		return nil
	})
	if err != nil {
		if lobbyJoin {
			a.sendError(conn, "Lobby not found.")
		} else {
			a.sendError(conn, "Game not found.")
		}
	}
	return nil
}

// handleCreateGame starts the game: fetches boards and leaves the lobby.
func (a *App) handleCreateGame(ctx context.Context, conn *gateway.Connection) error {
	return a.withHost(conn, func(sess *models.GameSession) error {
		if !sess.InLobby {
			a.sendError(conn, "The game has already started.")
			return nil
		}
		if sess.GeneratingBoard {
			return nil
		}

		sess.GeneratingBoard = true
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, "")))

		boards, err := a.boards.FetchBoards(ctx, sess.Categories)
		sess.GeneratingBoard = false
		if err != nil {
			log.Error().Err(err).Str("game_id", sess.GameID).Msg("board fetch failed")
			a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventCreateBoardFailed, gateway.ErrorPayload{
				Message: "Board generation failed. Try again.",
			}))
			return nil
		}

		sess.BoardData = boards
		sess.InLobby = false
		sess.ActiveBoard = models.BoardFirst
		sess.ClearedClues = make(map[string]bool)
		a.lifecycle.Cancel(sess)

		if first := firstOnlinePlayer(sess); first != nil {
			sess.SelectorKey = models.NormalizeName(first.Username)
			sess.SelectorName = first.DisplayName
		}

		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventUpdateScores, gateway.UpdateScoresPayload{
			Scores: sess.Scores,
		}))
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventPhaseChanged, gateway.PhaseChangedPayload{
			Phase:        "board",
			SelectorKey:  sess.SelectorKey,
			SelectorName: sess.SelectorName,
		}))
		return nil
	})
}

func (a *App) handleSelectClue(conn *gateway.Connection, data json.RawMessage) error {
	var p selectCluePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse select-clue: %w", err)
	}

	return a.withSessionFor(conn, func(sess *models.GameSession) error {
		if sess.InLobby || sess.IsFinalJeopardy || sess.SelectedClue != nil {
			return nil
		}
		isSelector := models.NormalizeName(conn.Username) == sess.SelectorKey
		if !isSelector && !IsHostSocket(sess, conn.ID) {
			a.denyHost(conn, sess, "It is not your turn to pick.")
			return nil
		}

		board := sess.BoardData.Board(sess.ActiveBoard)
		clue, catName, found := findClue(board, p.Category, p.Value)
		if !found {
			a.sendError(conn, "That clue does not exist.")
			return nil
		}
		if sess.ClearedClues[clue.ID()] {
			a.sendError(conn, "That clue has already been played.")
			return nil
		}

		sess.SelectedClue = &models.SelectedClue{
			Category: catName,
			Value:    clue.Value,
			Question: clue.Question,
			Answer:   clue.Answer,
			Media:    clue.Media,
		}
		sess.BuzzerLocked = true
		sess.Buzzed = ""
		sess.BuzzLockouts = make(map[string]bool)

		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventClueSelected, gateway.ClueSelectedPayload{
			Clue:         sess.SelectedClue,
			ClearedClues: clearedList(sess),
		}))
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventBuzzerLocked, nil))
		return nil
	})
}

func (a *App) handleBuzz(conn *gateway.Connection) error {
	return a.withSessionFor(conn, func(sess *models.GameSession) error {
		key := models.NormalizeName(conn.Username)
		if sess.BuzzerLocked || sess.Buzzed != "" || sess.BuzzLockouts[key] || sess.SelectedClue == nil {
			return nil
		}
		sess.Buzzed = key
		sess.BuzzerLocked = true
		a.timers.Clear(sess.GameID, sess)
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventBuzzed, gateway.BuzzedPayload{
			Username: key,
		}))
		return nil
	})
}

func (a *App) handleLockBuzzer(conn *gateway.Connection) error {
	return a.withHost(conn, func(sess *models.GameSession) error {
		sess.BuzzerLocked = true
		a.timers.Clear(sess.GameID, sess)
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventBuzzerLocked, nil))
		return nil
	})
}

func (a *App) handleUnlockBuzzer(conn *gateway.Connection) error {
	return a.withHost(conn, func(sess *models.GameSession) error {
		if sess.SelectedClue == nil || sess.IsFinalJeopardy {
			return nil
		}
		sess.BuzzerLocked = false
		sess.Buzzed = ""
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventBuzzerUnlocked, nil))

		duration := time.Duration(sess.LobbySettings.BuzzerSeconds) * time.Second
		a.timers.Start(sess.GameID, sess, duration, models.TimerBuzzer, func(exp timer.Expiry) {
			// Nobody buzzed in time.
			if exp.Session.Buzzed == "" && exp.Session.SelectedClue != nil {
				exp.Session.BuzzerLocked = true
				a.hub.Broadcast(exp.GameID, gateway.NewEvent(exp.GameID, gateway.EventBuzzerLocked, nil))
			}
		})
		return nil
	})
}

// handleVerdict applies the host's ruling on the buzzed player's answer.
func (a *App) handleVerdict(ctx context.Context, conn *gateway.Connection, correct bool) error {
	return a.withHost(conn, func(sess *models.GameSession) error {
		if sess.Buzzed == "" || sess.SelectedClue == nil {
			return nil
		}
		player := sess.FindPlayer(sess.Buzzed)
		if player == nil {
			return nil
		}

		if correct {
			sess.Scores[player.Username] += sess.SelectedClue.Value
			sess.SelectorKey = models.NormalizeName(player.Username)
			sess.SelectorName = player.DisplayName
			a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventUpdateScore, gateway.UpdateScorePayload{
				Username: player.Username,
				Score:    sess.Scores[player.Username],
			}))
			a.clearCurrentClue(ctx, sess)
		} else {
			sess.Scores[player.Username] -= sess.SelectedClue.Value
			sess.BuzzLockouts[sess.Buzzed] = true
			sess.Buzzed = ""
			sess.BuzzerLocked = false
			a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventUpdateScore, gateway.UpdateScorePayload{
				Username: player.Username,
				Score:    sess.Scores[player.Username],
			}))
			a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventBuzzerUnlocked, nil))
		}
		return nil
	})
}

func (a *App) handleCloseClue(ctx context.Context, conn *gateway.Connection) error {
	return a.withHost(conn, func(sess *models.GameSession) error {
		a.clearCurrentClue(ctx, sess)
		return nil
	})
}

// clearCurrentClue retires the live clue and runs the board-transition
// check. This is the single entry point into phase transitions.
func (a *App) clearCurrentClue(ctx context.Context, sess *models.GameSession) {
	if sess.SelectedClue == nil {
		return
	}
	clueID := fmt.Sprintf("%d-%s", sess.SelectedClue.Value, sess.SelectedClue.Question)
	sess.ClearedClues[clueID] = true
	sess.SelectedClue = nil
	sess.Buzzed = ""
	sess.BuzzerLocked = true
	sess.BuzzLockouts = make(map[string]bool)

	a.timers.Clear(sess.GameID, sess)
	a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventClueCleared, gateway.ClueClearedPayload{
		ClueID:       clueID,
		ClearedClues: clearedList(sess),
	}))
	a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventBuzzerUIReset, nil))

	a.phases.CheckBoardTransition(ctx, sess.GameID, sess)
}

func (a *App) handleSubmitWager(ctx context.Context, conn *gateway.Connection, data json.RawMessage) error {
	var p wagerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse submit-wager: %w", err)
	}
	return a.withSessionFor(conn, func(sess *models.GameSession) error {
		a.phases.SubmitWager(ctx, sess.GameID, sess, conn.Username, p.Wager)
		return nil
	})
}

func (a *App) handleSubmitDrawing(ctx context.Context, conn *gateway.Connection, data json.RawMessage) error {
	var p drawingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse submit-drawing: %w", err)
	}
	return a.withSessionFor(conn, func(sess *models.GameSession) error {
		if err := a.phases.SubmitDrawing(ctx, sess.GameID, sess, conn.Username, p.Drawing); err != nil {
			a.sendError(conn, "Your drawing could not be judged.")
			return err
		}
		return nil
	})
}

func (a *App) handleRequestLobbyState(conn *gateway.Connection) error {
	return a.withSessionFor(conn, func(sess *models.GameSession) error {
		a.hub.SendTo(conn, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, conn.ID)))
		return nil
	})
}

func (a *App) handlePromoteHost(conn *gateway.Connection, data json.RawMessage) error {
	var p promoteHostPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse promote-host: %w", err)
	}
	return a.withHost(conn, func(sess *models.GameSession) error {
		target := sess.FindPlayer(p.Username)
		if target == nil {
			a.sendError(conn, "That player is not in this game.")
			return nil
		}
		sess.Host = target.Username
		a.broadcastPlayerList(sess)
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, "")))
		return nil
	})
}

func (a *App) handleUpdateCategory(conn *gateway.Connection, data json.RawMessage) error {
	var p categoryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse update-category: %w", err)
	}
	return a.withHost(conn, func(sess *models.GameSession) error {
		if !sess.InLobby || p.Index < 0 || p.Index >= models.CategorySlots {
			return nil
		}
		if sess.LockedCategories[p.Index] {
			a.sendError(conn, "That category is locked.")
			return nil
		}
		if p.Index >= len(sess.Categories) {
			grown := make([]string, models.CategorySlots)
			copy(grown, sess.Categories)
			sess.Categories = grown
		}
		sess.Categories[p.Index] = p.Value
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, "")))
		return nil
	})
}

func (a *App) handleToggleLockCategory(conn *gateway.Connection, data json.RawMessage) error {
	var p categoryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse toggle-lock-category: %w", err)
	}
	return a.withHost(conn, func(sess *models.GameSession) error {
		if !sess.InLobby || p.Index < 0 || p.Index >= models.CategorySlots {
			return nil
		}
		sess.LockedCategories[p.Index] = !sess.LockedCategories[p.Index]
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, "")))
		return nil
	})
}

// handleEndGame is the explicit game-over teardown.
func (a *App) handleEndGame(conn *gateway.Connection) error {
	return a.withHost(conn, func(sess *models.GameSession) error {
		a.timers.Clear(sess.GameID, sess)
		a.lifecycle.Cancel(sess)
		a.store.Delete(sess.GameID)
		a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventError, gateway.ErrorPayload{
			Message: "The host ended the game.",
		}))
		return nil
	})
}

// withSessionFor runs fn under the lock of the connection's session.
func (a *App) withSessionFor(conn *gateway.Connection, fn func(sess *models.GameSession) error) error {
	if conn.GameID == "" {
		a.sendError(conn, "You are not in a game.")
		return nil
	}
	err := a.store.WithSession(conn.GameID, fn)
	if errors.Is(err, ErrSessionNotFound) {
		a.sendError(conn, "Game not found.")
		return nil
	}
	return err
}

// withHost is withSessionFor plus the host guard. Denials answer with an
// explicit error and a fresh snapshot, never a silent drop.
func (a *App) withHost(conn *gateway.Connection, fn func(sess *models.GameSession) error) error {
	return a.withSessionFor(conn, func(sess *models.GameSession) error {
		if err := RequireHost(sess, conn.ID); err != nil {
			a.denyHost(conn, sess, "Only the host can do that.")
			return nil
		}
		return fn(sess)
	})
}

func (a *App) denyHost(conn *gateway.Connection, sess *models.GameSession, message string) {
	a.sendError(conn, message)
	a.hub.SendTo(conn, gateway.NewEvent(sess.GameID, gateway.EventLobbyState, lobby.BuildState(sess, conn.ID)))
}

func (a *App) sendError(conn *gateway.Connection, message string) {
	a.hub.SendTo(conn, gateway.NewEvent(conn.GameID, gateway.EventError, gateway.ErrorPayload{Message: message}))
}

func (a *App) broadcastPlayerList(sess *models.GameSession) {
	state := lobby.BuildState(sess, "")
	a.hub.Broadcast(sess.GameID, gateway.NewEvent(sess.GameID, gateway.EventPlayerListUpdate, state.Players))
}

func clearedList(sess *models.GameSession) []string {
	cleared := make([]string, 0, len(sess.ClearedClues))
	for id := range sess.ClearedClues {
		cleared = append(cleared, id)
	}
	return cleared
}

func findClue(board *models.Board, category string, value int) (models.Clue, string, bool) {
	if board == nil {
		return models.Clue{}, "", false
	}
	for _, cat := range board.Categories {
		if !strings.EqualFold(cat.Name, category) {
			continue
		}
		for _, clue := range cat.Clues {
			if clue.Value == value {
				return clue, cat.Name, true
			}
		}
	}
	return models.Clue{}, "", false
}

func firstOnlinePlayer(sess *models.GameSession) *models.Player {
	for _, p := range sess.Players {
		if p.Online {
			return p
		}
	}
	return nil
}

func displayNameOr(display, fallback string) string {
	if display != "" {
		return display
	}
	return fallback
}

// newGameID returns a short join code.
func newGameID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
