package game

// Inbound message types clients send over the socket.
const (
	MsgCreateLobby        = "create-lobby"
	MsgJoinLobby          = "join-lobby"
	MsgJoinGame           = "join-game"
	MsgCreateGame         = "create-game"
	MsgSelectClue         = "select-clue"
	MsgBuzz               = "buzz"
	MsgLockBuzzer         = "lock-buzzer"
	MsgUnlockBuzzer       = "unlock-buzzer"
	MsgMarkCorrect        = "mark-correct"
	MsgMarkIncorrect      = "mark-incorrect"
	MsgCloseClue          = "close-clue"
	MsgSubmitWager        = "submit-wager"
	MsgSubmitDrawing      = "submit-drawing"
	MsgRequestLobbyState  = "request-lobby-state"
	MsgPromoteHost        = "promote-host"
	MsgUpdateCategory     = "update-category"
	MsgToggleLockCategory = "toggle-lock-category"
	MsgEndGame            = "end-game"
)

type createLobbyPayload struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayname"`
	Color       string `json:"color"`
	TextColor   string `json:"text_color"`
}

type joinPayload struct {
	GameID      string `json:"gameId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayname"`
	Color       string `json:"color"`
	TextColor   string `json:"text_color"`
}

type gameOnlyPayload struct {
	GameID string `json:"gameId"`
}

type selectCluePayload struct {
	GameID   string `json:"gameId"`
	Category string `json:"category"`
	Value    int    `json:"value"`
}

type wagerPayload struct {
	GameID string `json:"gameId"`
	Wager  int    `json:"wager"`
}

type drawingPayload struct {
	GameID  string `json:"gameId"`
	Drawing string `json:"drawing"` // data URL
}

type promoteHostPayload struct {
	GameID   string `json:"gameId"`
	Username string `json:"username"`
}

type categoryPayload struct {
	GameID string `json:"gameId"`
	Index  int    `json:"index"`
	Value  string `json:"value"`
}
