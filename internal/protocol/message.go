// internal/protocol/message.go
package protocol

// Message types exchanged between client and server. Every frame on the
// wire is one of these, as a flat JSON object with a "type" discriminant.
const (
	MsgLogin        = "LOGIN"
	MsgLoginSuccess = "LOGIN_SUCCESS"
	MsgCreateGame   = "CREATE_GAME"
	MsgJoinGame     = "JOIN_GAME"
	MsgJoinSuccess  = "JOIN_SUCCESS"
	MsgGameStart    = "GAME_START"
	MsgClue         = "CLUE"
	MsgVote         = "VOTE"
	MsgStateUpdate  = "STATE_UPDATE"
	MsgGameOver     = "GAME_OVER"
	MsgError        = "ERROR"
)

// Phase strings carried by STATE_UPDATE broadcasts.
const (
	PhaseLobby  = "LOBBY"
	PhaseClue   = "CLUE_PHASE"
	PhaseVoting = "VOTING"
)

// Role strings carried by the private GAME_START reveal.
const (
	RoleCitizen  = "CITIZEN"
	RoleImposter = "IMPOSTER"
)

// PlaceholderWord is what the imposter sees in place of the secret word.
const PlaceholderWord = "SECRET"

// SettingsOverride is the optional per-lobby settings payload on
// CREATE_GAME. Nil fields mean "use the server default".
type SettingsOverride struct {
	MaxPlayers       *int `json:"max_players,omitempty"`
	MinPlayers       *int `json:"min_players,omitempty"`
	RoundsBeforeVote *int `json:"rounds_before_vote,omitempty"`
}

// Message is the single wire record. Only the fields relevant to a given
// Type are populated; everything else is omitted from the JSON.
type Message struct {
	Type string `json:"type"`

	// Handshake / lobby membership.
	Nickname   string            `json:"nickname,omitempty"`
	Code       string            `json:"code,omitempty"`
	Settings   *SettingsOverride `json:"settings,omitempty"`
	LobbyState string            `json:"lobby_state,omitempty"`

	// Gameplay (client to server).
	Clue    string `json:"clue,omitempty"`
	Suspect string `json:"suspect,omitempty"`

	// Broadcast state (server to client).
	Phase       string   `json:"phase,omitempty"`
	Players     []string `json:"players,omitempty"`
	Host        string   `json:"host,omitempty"`
	Info        string   `json:"info,omitempty"`
	CurrentTurn string   `json:"current_turn,omitempty"`
	Candidates  []string `json:"candidates,omitempty"`
	Sender      string   `json:"sender,omitempty"`

	// Private role reveal.
	Role      string   `json:"role,omitempty"`
	Word      string   `json:"word,omitempty"`
	TurnOrder []string `json:"turn_order,omitempty"`

	// Round result.
	Winner   string `json:"winner,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Imposter string `json:"imposter,omitempty"`

	// Rejections.
	Message string `json:"message,omitempty"`
}

// Error builds an ERROR reply with a one-line reason.
func Error(reason string) Message {
	return Message{Type: MsgError, Message: reason}
}
