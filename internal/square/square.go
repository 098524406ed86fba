// Package square converts between board indices and square names.
//
// Index 0 is the top-left square from the engine's reference corner (a8),
// indices run row-major to 63 (h1):
//
//	   a  b  c  d  e  f  g  h
//	8  00 01 02 03 04 05 06 07  8
//	7  08 09 10 11 12 13 14 15  7
//	...
//	1  56 57 58 59 60 61 62 63  1
package square

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Count is the number of squares on the board.
const Count = 64

const (
	colNames = "abcdefgh"
	rowNames = "87654321"
)

// ErrBadIndex is returned for names or numbers that do not denote a square.
var ErrBadIndex = errors.New("bad square index")

// Index identifies one of the 64 squares.
type Index int

// None is the zero-value sentinel for "no square".
const None Index = -1

// Valid reports whether i is within [0,63].
func (i Index) Valid() bool { return i >= 0 && i < Count }

// Row returns the visual row, 0 being the top (rank 8).
func (i Index) Row() int { return int(i) / 8 }

// Col returns the column, 0 being file a.
func (i Index) Col() int { return int(i) % 8 }

// String renders the square name, e.g. "e2". Invalid indices render as "-".
func (i Index) String() string {
	if !i.Valid() {
		return "-"
	}
	return string([]byte{colNames[i.Col()], rowNames[i.Row()]})
}

// FromRowCol builds an index from a visual row (0 = rank 8) and column.
func FromRowCol(row, col int) (Index, error) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return None, fmt.Errorf("%w: row=%d col=%d", ErrBadIndex, row, col)
	}
	return Index(row*8 + col), nil
}

// Parse accepts a square name in either case ("e2", "E2") or a decimal index ("52").
func Parse(s string) (Index, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, fmt.Errorf("%w: empty", ErrBadIndex)
	}
	if n, err := strconv.Atoi(s); err == nil {
		idx := Index(n)
		if !idx.Valid() {
			return None, fmt.Errorf("%w: %d out of range", ErrBadIndex, n)
		}
		return idx, nil
	}
	if len(s) != 2 {
		return None, fmt.Errorf("%w: %q", ErrBadIndex, s)
	}
	col := strings.IndexByte(colNames, lower(s[0]))
	row := strings.IndexByte(rowNames, s[1])
	if col < 0 || row < 0 {
		return None, fmt.Errorf("%w: %q", ErrBadIndex, s)
	}
	return Index(row*8 + col), nil
}

// MustParse is Parse for constants in tests and tables.
func MustParse(s string) Index {
	idx, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return idx
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Names renders a list of indices, used for logging and state replies.
func Names(list []Index) []string {
	out := make([]string, 0, len(list))
	for _, i := range list {
		out = append(out, i.String())
	}
	return out
}
