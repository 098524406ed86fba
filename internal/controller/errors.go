package controller

import (
	"errors"

	"github.com/park285/reedboard/internal/engine"
	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/tracker"
	"github.com/park285/reedboard/pkg/boarddto"
)

var (
	ErrBadIndex       = square.ErrBadIndex
	ErrInvalidMode    = errors.New("invalid mode")
	ErrBusy           = errors.New("move already in progress")
	ErrIllegalMove    = engine.ErrIllegalMove
	ErrBadPosition    = errors.New("bad position")
	ErrBadRequest     = errors.New("bad request")
	ErrUnknownCommand = errors.New("unknown command")
)

// ToDomainError maps an error returned by the controller to its wire form.
// It returns nil for a nil error.
func ToDomainError(err error) *boarddto.DomainError {
	if err == nil {
		return nil
	}
	var de boarddto.DomainError
	if errors.As(err, &de) {
		return &de
	}
	code := boarddto.CodeInternal
	switch {
	case errors.Is(err, ErrBadIndex):
		code = boarddto.CodeBadIndex
	case errors.Is(err, ErrInvalidMode):
		code = boarddto.CodeInvalidMode
	case errors.Is(err, ErrBusy):
		code = boarddto.CodeBusy
	case errors.Is(err, ErrIllegalMove):
		code = boarddto.CodeIllegalMove
	case errors.Is(err, ErrBadPosition):
		code = boarddto.CodeBadPosition
	case errors.Is(err, ErrUnknownCommand):
		code = boarddto.CodeUnknownCommand
	case errors.Is(err, ErrBadRequest), errors.Is(err, tracker.ErrUnknownKind), errors.Is(err, tracker.ErrBadGesture):
		code = boarddto.CodeBadRequest
	}
	return &boarddto.DomainError{Code: code, Message: err.Error()}
}
