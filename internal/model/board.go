package model

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

const (
	BoardSize  = 8
	emptyGlyph = "-"
)

// Square is a (row, col) coordinate. Row 0 is White's back rank.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < BoardSize && s.Col >= 0 && s.Col < BoardSize
}

func (s Square) String() string {
	return fmt.Sprintf("%d,%d", s.Row, s.Col)
}

// Notation returns the algebraic name of the square (row 0, col 0 is a1).
func (s Square) Notation() string {
	if !s.InBounds() {
		return s.String()
	}
	return chess.Square(s.Row*BoardSize + s.Col).String()
}

// BoardView is the read-only access a legality predicate needs.
type BoardView interface {
	At(sq Square) *Piece
}

// Board is the authoritative grid. Every cell owns at most one piece.
type Board struct {
	cells [BoardSize][BoardSize]*Piece
}

func NewEmptyBoard() *Board {
	return &Board{}
}

// NewBoard returns the standard opening layout, White on rows 0 and 1.
func NewBoard() *Board {
	b := NewEmptyBoard()
	backRank := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for col, t := range backRank {
		b.Place(Square{Row: 0, Col: col}, NewPiece(t, White))
		b.Place(Square{Row: 1, Col: col}, NewPiece(Pawn, White))
		b.Place(Square{Row: 6, Col: col}, NewPiece(Pawn, Black))
		b.Place(Square{Row: 7, Col: col}, NewPiece(t, Black))
	}
	return b
}

// At returns the occupant of sq, or nil when the square is empty or off the board.
func (b *Board) At(sq Square) *Piece {
	if !sq.InBounds() {
		return nil
	}
	return b.cells[sq.Row][sq.Col]
}

// Place puts p on sq, replacing any occupant, and keeps p.Position in sync.
// It is meant for setting up positions; games go through MovePiece.
func (b *Board) Place(sq Square, p *Piece) {
	if !sq.InBounds() {
		return
	}
	if p != nil {
		p.Position = sq
	}
	b.cells[sq.Row][sq.Col] = p
}

func (b *Board) Remove(sq Square) {
	b.Place(sq, nil)
}

// MovePiece moves the occupant of start to end if its legality rule allows it.
// Whatever stood on end is dropped. It returns false, leaving the board as it
// was, when start is empty, either square is off the board or the move is illegal.
func (b *Board) MovePiece(start, end Square) bool {
	if !start.InBounds() || !end.InBounds() {
		return false
	}
	piece := b.cells[start.Row][start.Col]
	if piece == nil || !piece.CanMove(start, end, b) {
		return false
	}

	b.cells[end.Row][end.Col] = piece
	b.cells[start.Row][start.Col] = nil
	piece.Position = end
	if piece.Type == Pawn {
		piece.HasMoved = true
	}
	return true
}

// FindKing scans the grid for the king of color.
func (b *Board) FindKing(color Color) (Square, bool) {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			p := b.cells[row][col]
			if p != nil && p.Type == King && p.Color == color {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// IsCheck reports whether any piece of the other color could move onto the
// king of color. A board without that king is never in check.
func (b *Board) IsCheck(color Color) bool {
	king, ok := b.FindKing(color)
	if !ok {
		return false
	}
	return b.isAttacked(king, color)
}

// IsCheckmate reports check with no escape for the king of color. Only the
// king's own neighbor squares count as escapes, and attacks on each neighbor are
// judged on the current board, before the king has moved there. Blocking or
// capturing the attacker is not considered.
func (b *Board) IsCheckmate(color Color) bool {
	if !b.IsCheck(color) {
		return false
	}
	kingSq, _ := b.FindKing(color)
	king := b.At(kingSq)

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			escape := Square{Row: kingSq.Row + dr, Col: kingSq.Col + dc}
			if !escape.InBounds() || !king.CanMove(kingSq, escape, b) {
				continue
			}
			if !b.isAttacked(escape, color) {
				return false
			}
		}
	}
	return true
}

// isAttacked reports whether a piece not of color can move onto target.
// Attackers are taken from the cell they stand on, not from their Position.
func (b *Board) isAttacked(target Square, color Color) bool {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			p := b.cells[row][col]
			if p == nil || p.Color == color {
				continue
			}
			if p.CanMove(Square{Row: row, Col: col}, target, b) {
				return true
			}
		}
	}
	return false
}

// Count returns the number of occupied cells.
func (b *Board) Count() int {
	n := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b.cells[row][col] != nil {
				n++
			}
		}
	}
	return n
}

// Snapshot deep-copies the grid so it can be serialized outside the game lock.
func (b *Board) Snapshot() [][]*Piece {
	rows := make([][]*Piece, BoardSize)
	for row := range rows {
		rows[row] = make([]*Piece, BoardSize)
		for col := 0; col < BoardSize; col++ {
			if p := b.cells[row][col]; p != nil {
				cp := *p
				rows[row][col] = &cp
			}
		}
	}
	return rows
}

// Render draws the board one line per row, row 0 first.
func (b *Board) Render() string {
	var sb strings.Builder
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if p := b.cells[row][col]; p != nil {
				sb.WriteString(p.Glyph())
			} else {
				sb.WriteString(emptyGlyph)
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
