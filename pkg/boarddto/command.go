package boarddto

// Command actions accepted from clients.
const (
	ActionMove     = "move"
	ActionSetMode  = "setmode"
	ActionLED      = "led"
	ActionPing     = "ping"
	ActionState    = "state"
	ActionPosition = "position"
)

// Command is a decoded client instruction. Square fields hold either a
// square name ("e2") or a decimal index ("52").
type Command struct {
	Action string `json:"action"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Square string `json:"square,omitempty"`
	FEN    string `json:"fen,omitempty"`
}

// Response answers exactly one Command.
type Response struct {
	OK     bool         `json:"ok"`
	Action string       `json:"action,omitempty"`
	Reply  string       `json:"reply,omitempty"`
	Mode   string       `json:"mode,omitempty"`
	Lit    *bool        `json:"lit,omitempty"`
	State  *BoardState  `json:"state,omitempty"`
	Error  *DomainError `json:"error,omitempty"`
}

// GestureProgress describes the physical move the board is waiting for.
type GestureProgress struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Kind    string   `json:"kind"`
	Cursor  int      `json:"cursor"`
	Steps   int      `json:"steps"`
	Pending []string `json:"pending,omitempty"`
}

// BoardState is the reply to the state command.
type BoardState struct {
	Mode     string           `json:"mode"`
	FEN      string           `json:"fen"`
	Turn     string           `json:"turn"`
	Outcome  string           `json:"outcome,omitempty"`
	Selected string           `json:"selected,omitempty"`
	Lit      []string         `json:"lit"`
	Occupied []string         `json:"occupied"`
	Mismatch []string         `json:"mismatch,omitempty"`
	Gesture  *GestureProgress `json:"gesture,omitempty"`
}
