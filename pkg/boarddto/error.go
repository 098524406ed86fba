package boarddto

// Error codes carried on the wire.
const (
	CodeBadIndex       = "bad-index"
	CodeInvalidMode    = "invalid-mode"
	CodeBusy           = "busy"
	CodeIllegalMove    = "illegal-move"
	CodeBadPosition    = "bad-position"
	CodeBadRequest     = "bad-request"
	CodeUnknownCommand = "unknown-command"
	CodeInternal       = "internal"
)

type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "board controller error"
}
