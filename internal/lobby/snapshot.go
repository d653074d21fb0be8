package lobby

import (
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// PlayerView is the client-safe projection of a player.
type PlayerView struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayname"`
	Color       string `json:"color,omitempty"`
	TextColor   string `json:"text_color,omitempty"`
	Online      bool   `json:"online"`
}

// YouView is the personal block of a snapshot: who the receiving socket is.
type YouView struct {
	Username     string `json:"username"`
	ReconnectKey string `json:"reconnectKey"`
	IsHost       bool   `json:"isHost"`
}

// State is the full resync snapshot of a session, sent on join and on any
// request-lobby-state.
type State struct {
	GameID           string               `json:"gameId"`
	Players          []PlayerView         `json:"players"`
	Host             string               `json:"host"`
	Categories       []string             `json:"categories"`
	LockedCategories []bool               `json:"lockedCategories"`
	Settings         models.LobbySettings `json:"settings"`
	GeneratingBoard  bool                 `json:"generatingBoard"`
	InLobby          bool                 `json:"inLobby"`
	You              *YouView             `json:"you,omitempty"`
}

// BuildState projects a session into a client-safe snapshot for the given
// socket. Pure function of current session state: no side effects, so it is
// safe to call on every resync request. Must run under the session lock.
func BuildState(sess *models.GameSession, socketID string) State {
	players := make([]PlayerView, 0, len(sess.Players))
	// Host first, then join order.
	for _, p := range sess.Players {
		if p.Username == sess.Host {
			players = append(players, playerView(p))
		}
	}
	for _, p := range sess.Players {
		if p.Username != sess.Host {
			players = append(players, playerView(p))
		}
	}

	// Categories normalized to exactly CategorySlots entries.
	categories := make([]string, models.CategorySlots)
	copy(categories, sess.Categories)
	locked := make([]bool, models.CategorySlots)
	for i := range locked {
		locked[i] = sess.LockedCategories[i]
	}

	state := State{
		GameID:           sess.GameID,
		Players:          players,
		Host:             sess.Host,
		Categories:       categories,
		LockedCategories: locked,
		Settings:         sess.LobbySettings,
		GeneratingBoard:  sess.GeneratingBoard,
		InLobby:          sess.InLobby,
	}

	if you := sess.PlayerBySocket(socketID); you != nil {
		state.You = &YouView{
			Username:     you.Username,
			ReconnectKey: models.NormalizeName(you.Username),
			IsHost:       you.Username == sess.Host,
		}
	}

	return state
}

func playerView(p *models.Player) PlayerView {
	return PlayerView{
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Color:       p.Color,
		TextColor:   p.TextColor,
		Online:      p.Online,
	}
}
