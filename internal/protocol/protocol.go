// Package protocol is the line codec between clients and the controller.
// Every inbound line is one JSON command; every outbound line is one JSON
// response or event.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/reedboard/internal/msgcat"
	"github.com/park285/reedboard/pkg/boarddto"
)

// MaxLineBytes bounds a single inbound line.
const MaxLineBytes = 4096

const allowedPunct = " {}:,[]/-+=\"'"

// HasIllegalChars reports whether line contains a byte outside
// A-Z a-z 0-9 and the punctuation a command may carry.
func HasIllegalChars(line string) bool {
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte(allowedPunct, c) >= 0:
		default:
			return true
		}
	}
	return false
}

// SquareRef decodes a square given either as a JSON string ("e2", "52") or
// as a JSON number (52).
type SquareRef string

func (s *SquareRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = SquareRef(str)
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("square must be a name or an integer: %s", b)
	}
	*s = SquareRef(strconv.Itoa(n))
	return nil
}

type wireCommand struct {
	Action string    `json:"action"`
	From   SquareRef `json:"from"`
	To     SquareRef `json:"to"`
	Kind   string    `json:"kind"`
	Type   string    `json:"type"`
	Mode   string    `json:"mode"`
	Square SquareRef `json:"square"`
	FEN    string    `json:"fen"`
}

// Decode parses one command line. Failures are bad-request domain errors.
func Decode(line string) (boarddto.Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return boarddto.Command{}, badRequest("empty line")
	}
	if len(line) > MaxLineBytes {
		return boarddto.Command{}, badRequest("line too long")
	}
	var w wireCommand
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return boarddto.Command{}, badRequest(err.Error())
	}
	if strings.TrimSpace(w.Action) == "" {
		return boarddto.Command{}, badRequest("missing action")
	}
	kind := w.Kind
	if kind == "" {
		kind = w.Type
	}
	return boarddto.Command{
		Action: strings.ToLower(strings.TrimSpace(w.Action)),
		From:   string(w.From),
		To:     string(w.To),
		Kind:   kind,
		Mode:   w.Mode,
		Square: string(w.Square),
		FEN:    w.FEN,
	}, nil
}

func badRequest(msg string) error {
	return boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: msg}
}

// Codec encodes outbound lines, filling human-readable text from a catalog.
type Codec struct {
	cat *msgcat.Catalog
}

// NewCodec returns a codec; cat may be nil, in which case no text is added.
func NewCodec(cat *msgcat.Catalog) *Codec { return &Codec{cat: cat} }

// Greeting is the first line a client receives.
func (c *Codec) Greeting() []byte {
	if c.cat == nil {
		return []byte("Hello\n")
	}
	return []byte(c.cat.Text("server.greeting", nil) + "\n")
}

type eventLine struct {
	boarddto.Event
	Text string `json:"text,omitempty"`
}

// Event encodes ev as one newline-terminated line.
func (c *Codec) Event(ev boarddto.Event) ([]byte, error) {
	return c.marshal(eventLine{Event: ev, Text: c.eventText(ev)})
}

// Response encodes resp as one newline-terminated line. Error messages are
// replaced by catalog text when the catalog knows the code.
func (c *Codec) Response(resp boarddto.Response) ([]byte, error) {
	if resp.Error != nil && c.cat != nil {
		if text, err := c.cat.Render("error."+resp.Error.Code, nil); err == nil {
			de := *resp.Error
			if de.Message != "" && de.Message != text {
				de.Message = text + ": " + de.Message
			} else {
				de.Message = text
			}
			resp.Error = &de
		}
	}
	return c.marshal(resp)
}

// ErrorLine encodes a failure that happened before a command was decoded.
func (c *Codec) ErrorLine(err error) ([]byte, error) {
	var de boarddto.DomainError
	if !errors.As(err, &de) {
		de = boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: err.Error()}
	}
	return c.Response(boarddto.Response{Error: &de})
}

func (c *Codec) eventText(ev boarddto.Event) string {
	if c.cat == nil {
		return ""
	}
	key := ""
	switch ev.Type {
	case boarddto.EventOccupancy:
		key = "occupancy." + ev.State
	case boarddto.EventMove:
		key = "move.done"
	case boarddto.EventRejected:
		key = "move.rejected"
	case boarddto.EventMode:
		key = "mode.changed"
	case boarddto.EventPosition:
		key = "position.loaded"
	default:
		return ""
	}
	s, err := c.cat.Render(key, ev)
	if err != nil {
		return ""
	}
	return s
}

func (c *Codec) marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
