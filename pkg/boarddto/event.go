package boarddto

// Event types broadcast to every listener.
const (
	EventOccupancy = "occupancy"
	EventMove      = "move"
	EventRejected  = "rejected"
	EventMode      = "mode"
	EventPosition  = "position"
)

// Occupancy states.
const (
	PieceUp   = "pieceUp"
	PieceDown = "pieceDown"
)

// Event is an outbound notification. Only the fields relevant to Type are set.
type Event struct {
	Type    string `json:"type"`
	Square  string `json:"square,omitempty"`
	State   string `json:"state,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Kind    string `json:"kind,omitempty"`
	FEN     string `json:"fen,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
	Mode    string `json:"mode,omitempty"`
}
