package model

import "fmt"

// MoveRequest is the payload a client sends to play a move.
type MoveRequest struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

type SimpleMove struct {
	From     Square `json:"from"`
	To       Square `json:"to"`
	Notation string `json:"notation"`
}

// moveNotation builds long algebraic notation such as "Ng1-f3" or "e4xd5".
// It has to run before the move is applied so the capture is still visible.
func moveNotation(board *Board, from, to Square) string {
	piece := board.At(from)
	if piece == nil {
		return ""
	}
	sep := "-"
	if board.At(to) != nil {
		sep = "x"
	}
	return fmt.Sprintf("%s%s%s%s", piece.Type.getPieceNotation(), from.Notation(), sep, to.Notation())
}
