// Package console runs a two-player game over line-based text I/O.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/benbeisheim/consolechess/internal/model"
	"github.com/pkg/errors"
)

var (
	ErrFormat = errors.New("expected two integers as 'row, col'")
	ErrRange  = errors.New("row and col must be between 0 and 7")
)

// Session owns one board and whose turn it is. Nothing here is global.
type Session struct {
	board   *model.Board
	current model.Color
	in      *bufio.Scanner
	out     io.Writer
}

func NewSession(r io.Reader, w io.Writer) *Session {
	return NewSessionWithBoard(model.NewBoard(), r, w)
}

// NewSessionWithBoard starts a session from an arbitrary position, White to move.
func NewSessionWithBoard(board *model.Board, r io.Reader, w io.Writer) *Session {
	return &Session{
		board:   board,
		current: model.White,
		in:      bufio.NewScanner(r),
		out:     w,
	}
}

func (s *Session) Board() *model.Board {
	return s.board
}

func (s *Session) Current() model.Color {
	return s.current
}

// Play alternates turns until a side is checkmated, which returns nil. Running
// out of input returns an error wrapping io.EOF.
func (s *Session) Play() error {
	for {
		fmt.Fprint(s.out, s.board.Render())
		fmt.Fprintf(s.out, "It's %s's turn.\n", s.current)

		start, err := s.readSquare("Enter the starting position (row, column): ")
		if err != nil {
			return err
		}
		if p := s.board.At(start); p != nil && p.Color != s.current {
			fmt.Fprintln(s.out, "Invalid move. Try again.")
			continue
		}
		end, err := s.readSquare("Enter the ending position (row, column): ")
		if err != nil {
			return err
		}

		if s.board.MovePiece(start, end) {
			s.current = s.current.Opposite()
		} else {
			fmt.Fprintln(s.out, "Invalid move. Try again.")
		}

		if s.board.IsCheckmate(s.current) {
			fmt.Fprint(s.out, s.board.Render())
			fmt.Fprintf(s.out, "Checkmate! %s wins.\n", s.current.Opposite())
			return nil
		}
	}
}

// readSquare prompts until a valid square is entered.
func (s *Session) readSquare(prompt string) (model.Square, error) {
	for {
		fmt.Fprint(s.out, prompt)
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return model.Square{}, errors.Wrap(err, "read input")
			}
			return model.Square{}, errors.Wrap(io.EOF, "read input")
		}

		sq, err := ParseSquare(s.in.Text())
		switch {
		case errors.Is(err, ErrRange):
			fmt.Fprintln(s.out, "Invalid input. Enter values between 0 and 7.")
			continue
		case err != nil:
			fmt.Fprintln(s.out, "Invalid input. Enter values in the format 'row, col'.")
			continue
		}
		return sq, nil
	}
}

// ParseSquare reads "row, col" with both values in [0,7].
func ParseSquare(text string) (model.Square, error) {
	parts := strings.Split(strings.TrimSpace(text), ",")
	if len(parts) != 2 {
		return model.Square{}, ErrFormat
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return model.Square{}, ErrFormat
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.Square{}, ErrFormat
	}

	sq := model.Square{Row: row, Col: col}
	if !sq.InBounds() {
		return model.Square{}, ErrRange
	}
	return sq, nil
}
