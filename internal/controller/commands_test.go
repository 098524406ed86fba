package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/reedboard/internal/engine"
	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/pkg/boarddto"
)

func TestExecute(t *testing.T) {
	c, _, _ := newController(t, engine.StartPos)

	resp := c.Execute(boarddto.Command{Action: "ping"})
	assert.True(t, resp.OK)
	assert.Equal(t, "pong", resp.Reply)

	resp = c.Execute(boarddto.Command{Action: "LED", Square: "h1"})
	require.True(t, resp.OK)
	require.NotNil(t, resp.Lit)
	assert.True(t, *resp.Lit)

	resp = c.Execute(boarddto.Command{Action: "move", From: "e2", To: "52"})
	require.False(t, resp.OK)
	assert.Equal(t, boarddto.CodeBadRequest, resp.Error.Code, "from and to are the same square")

	resp = c.Execute(boarddto.Command{Action: "move", From: "e2", To: "e4", Kind: "move"})
	require.True(t, resp.OK, "%+v", resp.Error)
	assert.Equal(t, "move", resp.Mode)

	resp = c.Execute(boarddto.Command{Action: "move", From: "d2", To: "d4"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, boarddto.CodeBusy, resp.Error.Code)

	resp = c.Execute(boarddto.Command{Action: "state"})
	require.NotNil(t, resp.State)
	assert.Equal(t, "move", resp.State.Mode)
	assert.Equal(t, []string{"e4", "e2"}, resp.State.Lit)
}

func TestExecuteErrors(t *testing.T) {
	c, _, _ := newController(t, engine.StartPos)
	cases := []struct {
		cmd  boarddto.Command
		code string
	}{
		{boarddto.Command{Action: "led", Square: "z9"}, boarddto.CodeBadIndex},
		{boarddto.Command{Action: "move", From: "e2", To: "99"}, boarddto.CodeBadIndex},
		{boarddto.Command{Action: "move", From: "e2", To: "e4", Kind: "teleport"}, boarddto.CodeBadRequest},
		{boarddto.Command{Action: "setmode", Mode: "move"}, boarddto.CodeInvalidMode},
		{boarddto.Command{Action: "position", FEN: "nonsense"}, boarddto.CodeBadPosition},
		{boarddto.Command{Action: "dance"}, boarddto.CodeUnknownCommand},
	}
	for _, tc := range cases {
		resp := c.Execute(tc.cmd)
		assert.False(t, resp.OK, tc.cmd.Action)
		require.NotNil(t, resp.Error, tc.cmd.Action)
		assert.Equal(t, tc.code, resp.Error.Code, tc.cmd.Action)
		assert.Nil(t, resp.Lit)
	}
	assert.Equal(t, Play, c.Mode())
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	de := ToDomainError(boarddto.DomainError{Code: boarddto.CodeBusy, Message: "later"})
	assert.Equal(t, &boarddto.DomainError{Code: boarddto.CodeBusy, Message: "later"}, de)
	assert.Equal(t, boarddto.CodeInternal, ToDomainError(assert.AnError).Code)
}

func TestToDomainErrorIllegalMove(t *testing.T) {
	eng := engine.New()
	err := eng.ApplyMove(square.MustParse("e2"), square.MustParse("e5"))
	require.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, boarddto.CodeIllegalMove, ToDomainError(err).Code)
}
