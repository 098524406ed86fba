package controller

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/tracker"
	"github.com/park285/reedboard/pkg/boarddto"
)

// Execute applies one decoded command and builds its response.
func (c *Controller) Execute(cmd boarddto.Command) boarddto.Response {
	action := strings.ToLower(strings.TrimSpace(cmd.Action))
	resp := boarddto.Response{Action: action}

	var err error
	switch action {
	case boarddto.ActionMove:
		err = c.executeMove(cmd)
	case boarddto.ActionSetMode:
		err = c.SetMode(cmd.Mode)
	case boarddto.ActionLED:
		var sq square.Index
		if sq, err = square.Parse(cmd.Square); err == nil {
			var lit bool
			lit, err = c.ToggleLED(sq)
			resp.Lit = &lit
		}
	case boarddto.ActionPing:
		resp.Reply = "pong"
	case boarddto.ActionState:
		st := c.Snapshot()
		resp.State = &st
	case boarddto.ActionPosition:
		err = c.LoadPosition(cmd.FEN)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Action)
	}

	resp.Mode = c.mode.String()
	if err != nil {
		c.logger.Info("command_failed", zap.String("action", action), zap.Error(err))
		resp.Lit = nil
		resp.Error = ToDomainError(err)
		return resp
	}
	resp.OK = true
	return resp
}

func (c *Controller) executeMove(cmd boarddto.Command) error {
	from, err := square.Parse(cmd.From)
	if err != nil {
		return err
	}
	to, err := square.Parse(cmd.To)
	if err != nil {
		return err
	}
	kind, err := tracker.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}
	return c.AcceptMoveInstruction(tracker.Move{From: from, To: to, Kind: kind})
}
