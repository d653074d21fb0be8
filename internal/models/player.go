package models

import "strings"

// Player is one seat in a game session. Username is the stable identity and
// reconnect key; SocketID is the current socket identity and is empty while
// the player is offline.
type Player struct {
	SocketID    string `json:"id,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"displayname"`
	Color       string `json:"color,omitempty"`
	TextColor   string `json:"text_color,omitempty"`
	Online      bool   `json:"online"`
}

// NormalizeName maps a username to its canonical form used for reconnect
// matching and profile lookups.
func NormalizeName(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
