package model

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

func (p PieceType) getPieceNotation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return ""
	}
	return ""
}

type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	Position Square    `json:"position"`
	// HasMoved only gates the pawn double advance.
	HasMoved bool `json:"hasMoved"`
}

func NewPiece(t PieceType, c Color) *Piece {
	return &Piece{Type: t, Color: c}
}

type glyphKey struct {
	t PieceType
	c Color
}

var glyphs = map[glyphKey]string{
	{King, White}:   "♔",
	{Queen, White}:  "♕",
	{Bishop, White}: "♗",
	{Rook, White}:   "♖",
	{Knight, White}: "♘",
	{Pawn, White}:   "♙",
	{King, Black}:   "♚",
	{Queen, Black}:  "♛",
	{Bishop, Black}: "♝",
	{Rook, Black}:   "♜",
	{Knight, Black}: "♞",
	{Pawn, Black}:   "♟",
}

// Glyph returns the unicode chess symbol used by Board.Render.
func (p *Piece) Glyph() string {
	if g, ok := glyphs[glyphKey{p.Type, p.Color}]; ok {
		return g
	}
	return "?"
}

// CanMove reports whether the piece may travel from start to end on board.
// It never mutates the piece or the board, so check detection can probe it freely.
// Sliding pieces do not look at the squares they pass over.
func (p *Piece) CanMove(start, end Square, board BoardView) bool {
	if start == end {
		return false
	}
	switch p.Type {
	case King:
		return p.canKingMove(start, end, board)
	case Queen:
		return p.canQueenMove(start, end, board)
	case Bishop:
		return p.canBishopMove(start, end, board)
	case Rook:
		return p.canRookMove(start, end, board)
	case Knight:
		return p.canKnightMove(start, end, board)
	case Pawn:
		return p.canPawnMove(start, end, board)
	default:
		return false
	}
}

// destinationClear is true when end is empty or holds an opposing piece.
func (p *Piece) destinationClear(end Square, board BoardView) bool {
	occupant := board.At(end)
	return occupant == nil || occupant.Color != p.Color
}

func (p *Piece) canKingMove(start, end Square, board BoardView) bool {
	rowDiff, colDiff := diffs(start, end)
	return rowDiff <= 1 && colDiff <= 1 && rowDiff+colDiff >= 1 && p.destinationClear(end, board)
}

func (p *Piece) canQueenMove(start, end Square, board BoardView) bool {
	rowDiff, colDiff := diffs(start, end)
	straight := start.Row == end.Row || start.Col == end.Col
	return (straight || rowDiff == colDiff) && p.destinationClear(end, board)
}

func (p *Piece) canBishopMove(start, end Square, board BoardView) bool {
	rowDiff, colDiff := diffs(start, end)
	return rowDiff == colDiff && p.destinationClear(end, board)
}

// A rook sliding along its row skips the destination check entirely, so it may
// land on a piece of its own color. Only file moves are checked.
func (p *Piece) canRookMove(start, end Square, board BoardView) bool {
	if start.Row == end.Row {
		return true
	}
	return start.Col == end.Col && p.destinationClear(end, board)
}

// The destination check binds to the one-row, two-column jump only; a
// two-row, one-column jump is accepted whatever stands on the target.
func (p *Piece) canKnightMove(start, end Square, board BoardView) bool {
	rowDiff, colDiff := diffs(start, end)
	if rowDiff == 2 && colDiff == 1 {
		return true
	}
	return rowDiff == 1 && colDiff == 2 && p.destinationClear(end, board)
}

func (p *Piece) canPawnMove(start, end Square, board BoardView) bool {
	dir := pawnDirection(p.Color)
	target := board.At(end)

	if start.Col == end.Col && start.Row+dir == end.Row && target == nil {
		return true
	}
	if abs(start.Col-end.Col) == 1 && start.Row+dir == end.Row {
		return target != nil && target.Color != p.Color
	}
	if !p.HasMoved && start.Col == end.Col && start.Row+2*dir == end.Row && target == nil {
		return true
	}
	return false
}

// pawnDirection is +1 for White (towards row 7) and -1 for Black.
func pawnDirection(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

func diffs(start, end Square) (int, int) {
	return abs(start.Row - end.Row), abs(start.Col - end.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
