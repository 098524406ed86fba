package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/reedboard/internal/msgcat"
	"github.com/park285/reedboard/pkg/boarddto"
)

func TestDecode(t *testing.T) {
	cases := map[string]boarddto.Command{
		`{"action":"move","from":"e2","to":"e4","kind":"quiet"}`: {Action: "move", From: "e2", To: "e4", Kind: "quiet"},
		`{"action":"move","from":52,"to":36,"type":"move"}`:      {Action: "move", From: "52", To: "36", Kind: "move"},
		`{"action":"PING"}`:                                      {Action: "ping"},
		`{"action":"led","square":7}`:                            {Action: "led", Square: "7"},
		`{"action":"setmode","mode":"inspect"}`:                  {Action: "setmode", Mode: "inspect"},
	}
	for line, want := range cases {
		got, err := Decode(line)
		require.NoError(t, err, line)
		assert.Equal(t, want, got, line)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, line := range []string{"", "hello", `{"from":"e2"}`, `{"action":"led","square":1.5}`, `{"action":"led","square":true}`} {
		_, err := Decode(line)
		var de boarddto.DomainError
		require.True(t, errors.As(err, &de), line)
		assert.Equal(t, boarddto.CodeBadRequest, de.Code, line)
	}
	_, err := Decode(`{"action":"` + strings.Repeat("x", MaxLineBytes) + `"}`)
	assert.Error(t, err)
}

func TestHasIllegalChars(t *testing.T) {
	assert.False(t, HasIllegalChars(`{"action":"position","fen":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"}`))
	assert.False(t, HasIllegalChars(`{'action': 'ping'}`))
	assert.True(t, HasIllegalChars("ping;rm"))
	assert.True(t, HasIllegalChars("caf\xc3\xa9"))
	assert.True(t, HasIllegalChars("a\tb"))
}

func TestCodecEvent(t *testing.T) {
	c := NewCodec(msgcat.Default())
	b, err := c.Event(boarddto.Event{Type: boarddto.EventOccupancy, Square: "e2", State: boarddto.PieceUp})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(b), "\n"))

	var got map[string]string
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, map[string]string{
		"type":   "occupancy",
		"square": "e2",
		"state":  "pieceUp",
		"text":   "piece at e2 is now empty",
	}, got)
}

func TestCodecResponseError(t *testing.T) {
	c := NewCodec(msgcat.Default())
	b, err := c.Response(boarddto.Response{Action: "move", Error: &boarddto.DomainError{Code: boarddto.CodeBusy}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"action":"move","error":{"code":"busy","message":"a move is already in progress"}}`, string(b))

	b, err = c.ErrorLine(errors.New("oops"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":{"code":"bad-request","message":"malformed command: oops"}}`, string(b))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello\n", string(NewCodec(nil).Greeting()))
	assert.Equal(t, "Hello\n", string(NewCodec(msgcat.Default()).Greeting()))
}
