package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	b := NewBoard()

	tests := []struct {
		name  string
		at    Square
		piece PieceType
		color Color
	}{
		{"white king", sq(0, 4), King, White},
		{"black king", sq(7, 4), King, Black},
		{"white queen", sq(0, 3), Queen, White},
		{"black queen", sq(7, 3), Queen, Black},
		{"white rook a", sq(0, 0), Rook, White},
		{"white rook h", sq(0, 7), Rook, White},
		{"black rook a", sq(7, 0), Rook, Black},
		{"black rook h", sq(7, 7), Rook, Black},
		{"white knight b", sq(0, 1), Knight, White},
		{"white knight g", sq(0, 6), Knight, White},
		{"black knight b", sq(7, 1), Knight, Black},
		{"black knight g", sq(7, 6), Knight, Black},
		{"white bishop c", sq(0, 2), Bishop, White},
		{"white bishop f", sq(0, 5), Bishop, White},
		{"black bishop c", sq(7, 2), Bishop, Black},
		{"black bishop f", sq(7, 5), Bishop, Black},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := b.At(tt.at)
			require.NotNil(t, p, "At(%s)", tt.at)
			assert.Equal(t, tt.piece, p.Type)
			assert.Equal(t, tt.color, p.Color)
			assert.Equal(t, tt.at, p.Position)
		})
	}

	t.Run("pawn ranks", func(t *testing.T) {
		for col := 0; col < BoardSize; col++ {
			white := b.At(sq(1, col))
			black := b.At(sq(6, col))
			require.NotNil(t, white)
			require.NotNil(t, black)
			assert.Equal(t, Pawn, white.Type)
			assert.Equal(t, White, white.Color)
			assert.Equal(t, Pawn, black.Type)
			assert.Equal(t, Black, black.Color)
			assert.False(t, white.HasMoved)
		}
	})

	t.Run("middle empty", func(t *testing.T) {
		for row := 2; row <= 5; row++ {
			for col := 0; col < BoardSize; col++ {
				assert.Nil(t, b.At(sq(row, col)), "At(%d,%d)", row, col)
			}
		}
	})

	assert.Equal(t, 32, b.Count())
}

func TestMovePieceFromEmptySquare(t *testing.T) {
	b := NewBoard()
	before := b.Render()

	for row := 2; row <= 5; row++ {
		for col := 0; col < BoardSize; col++ {
			for _, to := range []Square{sq(0, 0), sq(3, 3), sq(7, 7), sq(row, col)} {
				assert.False(t, b.MovePiece(sq(row, col), to), "MovePiece(%d,%d -> %s)", row, col, to)
			}
		}
	}
	assert.Equal(t, before, b.Render())
	assert.Equal(t, 32, b.Count())
}

func TestMovePieceOffBoard(t *testing.T) {
	b := NewBoard()
	assert.False(t, b.MovePiece(sq(1, 0), sq(8, 0)))
	assert.False(t, b.MovePiece(sq(-1, 0), sq(2, 0)))
	assert.Equal(t, 32, b.Count())
}

func TestMovePieceApplies(t *testing.T) {
	t.Run("quiet move", func(t *testing.T) {
		b := NewBoard()
		pawn := b.At(sq(1, 4))

		require.True(t, b.MovePiece(sq(1, 4), sq(3, 4)))
		assert.Same(t, pawn, b.At(sq(3, 4)))
		assert.Nil(t, b.At(sq(1, 4)))
		assert.Equal(t, sq(3, 4), pawn.Position)
		assert.True(t, pawn.HasMoved)
		assert.Equal(t, 32, b.Count())
	})

	t.Run("capture", func(t *testing.T) {
		queen := NewPiece(Queen, White)
		b := boardWith(map[Square]*Piece{
			sq(0, 0): queen,
			sq(0, 5): NewPiece(Rook, Black),
		})

		require.True(t, b.MovePiece(sq(0, 0), sq(0, 5)))
		assert.Same(t, queen, b.At(sq(0, 5)))
		assert.Nil(t, b.At(sq(0, 0)))
		assert.Equal(t, sq(0, 5), queen.Position)
		assert.Equal(t, 1, b.Count())
	})

	t.Run("illegal move leaves board untouched", func(t *testing.T) {
		b := NewBoard()
		before := b.Snapshot()

		assert.False(t, b.MovePiece(sq(0, 2), sq(1, 3)), "bishop onto own pawn")
		assert.False(t, b.MovePiece(sq(7, 3), sq(6, 3)), "queen onto own pawn")
		if diff := cmp.Diff(before, b.Snapshot()); diff != "" {
			t.Errorf("board changed (-before +after):\n%s", diff)
		}
	})

	t.Run("non-pawn keeps HasMoved false", func(t *testing.T) {
		b := NewBoard()
		knight := b.At(sq(0, 1))
		require.True(t, b.MovePiece(sq(0, 1), sq(2, 2)))
		assert.False(t, knight.HasMoved)
	})
}

func TestMovePieceSequence(t *testing.T) {
	b := NewBoard()
	b.Place(sq(3, 0), NewPiece(Pawn, White))
	b.Place(sq(2, 0), NewPiece(Rook, White))
	b.Place(sq(2, 6), NewPiece(Pawn, White))
	b.Remove(sq(0, 0))
	b.Remove(sq(1, 0))
	b.Remove(sq(1, 6))

	assert.False(t, b.MovePiece(sq(2, 0), sq(3, 0)), "rook onto own pawn along the file")
	assert.True(t, b.MovePiece(sq(2, 0), sq(2, 4)), "rook along the rank")

	rook := b.At(sq(2, 4))
	require.NotNil(t, rook)
	assert.Equal(t, Rook, rook.Type)
	assert.Nil(t, b.At(sq(2, 0)))

	assert.False(t, b.MovePiece(sq(2, 4), sq(1, 4)), "rook onto own pawn along the file")
	assert.True(t, b.MovePiece(sq(7, 1), sq(5, 2)), "black knight out")
	assert.True(t, b.MovePiece(sq(0, 5), sq(1, 6)), "bishop into vacated square")
	assert.False(t, b.MovePiece(sq(0, 2), sq(1, 3)), "bishop onto own pawn")
	assert.False(t, b.MovePiece(sq(7, 3), sq(6, 3)), "queen onto own pawn")
}

func TestRookRankMoveOverwritesOwnPiece(t *testing.T) {
	rook := NewPiece(Rook, White)
	b := boardWith(map[Square]*Piece{
		sq(2, 0): rook,
		sq(2, 4): NewPiece(Knight, White),
	})

	assert.True(t, rook.CanMove(sq(2, 0), sq(2, 4), b))
	require.True(t, b.MovePiece(sq(2, 0), sq(2, 4)))
	assert.Same(t, rook, b.At(sq(2, 4)))
	assert.Equal(t, 1, b.Count())
}

func TestPawnDoubleAdvanceOnlyOnce(t *testing.T) {
	b := NewBoard()

	require.True(t, b.MovePiece(sq(1, 0), sq(2, 0)))
	assert.False(t, b.MovePiece(sq(2, 0), sq(4, 0)), "double advance after first move")
	assert.True(t, b.MovePiece(sq(2, 0), sq(3, 0)))

	require.True(t, b.MovePiece(sq(1, 7), sq(3, 7)))
	assert.False(t, b.MovePiece(sq(3, 7), sq(5, 7)), "second double advance")
}

func TestIsCheck(t *testing.T) {
	b := boardWith(map[Square]*Piece{
		sq(4, 4): NewPiece(King, White),
		sq(4, 0): NewPiece(Queen, Black),
	})

	assert.True(t, b.IsCheck(White), "queen on the same rank")

	require.True(t, b.MovePiece(sq(4, 0), sq(3, 0)))
	assert.False(t, b.IsCheck(White), "queen moved off the rank")
}

func TestIsCheckUsesGridNotCachedPosition(t *testing.T) {
	queen := NewPiece(Queen, Black)
	b := boardWith(map[Square]*Piece{
		sq(4, 4): NewPiece(King, White),
		sq(4, 0): queen,
	})
	queen.Position = sq(0, 0)

	assert.True(t, b.IsCheck(White))
}

func TestIsCheckWithoutKing(t *testing.T) {
	b := boardWith(map[Square]*Piece{sq(4, 0): NewPiece(Queen, Black)})
	assert.False(t, b.IsCheck(White))
	assert.False(t, b.IsCheckmate(White))
}

func TestFreshBoardNotInCheck(t *testing.T) {
	b := NewBoard()
	assert.False(t, b.IsCheck(White))
	assert.False(t, b.IsCheck(Black))
	assert.False(t, b.IsCheckmate(White))
	assert.False(t, b.IsCheckmate(Black))
}

// checkmateBoard mirrors the classic setup: on an otherwise standard board the
// white king stands on (4,4), a black queen on (4,0) and a black rook on (3,0).
func checkmateBoard() *Board {
	b := NewBoard()
	b.Remove(sq(0, 4))
	b.Place(sq(4, 4), NewPiece(King, White))
	b.Remove(sq(7, 3))
	b.Place(sq(4, 0), NewPiece(Queen, Black))
	b.Remove(sq(7, 0))
	b.Place(sq(3, 0), NewPiece(Rook, Black))
	return b
}

func TestIsCheckmate(t *testing.T) {
	b := checkmateBoard()

	require.True(t, b.IsCheck(White))
	assert.True(t, b.IsCheckmate(White))
	assert.False(t, b.IsCheckmate(Black))
}

func TestIsCheckmateKingEscapes(t *testing.T) {
	// Without the black pawns guarding row 5 the king steps to (5,4).
	b := boardWith(map[Square]*Piece{
		sq(4, 4): NewPiece(King, White),
		sq(4, 0): NewPiece(Queen, Black),
		sq(3, 0): NewPiece(Rook, Black),
	})

	require.True(t, b.IsCheck(White))
	assert.False(t, b.IsCheckmate(White))
}

func TestIsCheckmateBoxedKing(t *testing.T) {
	// The king's own pieces take every neighbor square, so any check is mate.
	b := NewBoard()
	b.Place(sq(2, 3), NewPiece(Knight, Black))

	require.True(t, b.IsCheck(White))
	assert.True(t, b.IsCheckmate(White))
}

func TestIsCheckmateIgnoresBlocksAndCaptures(t *testing.T) {
	// The white rook could take the queen, but only king moves count.
	b := boardWith(map[Square]*Piece{
		sq(0, 0): NewPiece(King, White),
		sq(0, 1): NewPiece(Pawn, White),
		sq(1, 0): NewPiece(Pawn, White),
		sq(1, 1): NewPiece(Pawn, White),
		sq(2, 2): NewPiece(Queen, Black),
		sq(2, 7): NewPiece(Rook, White),
	})

	require.True(t, b.IsCheck(White))
	assert.True(t, NewPiece(Rook, White).CanMove(sq(2, 7), sq(2, 2), b))
	assert.True(t, b.IsCheckmate(White))
}

func TestRender(t *testing.T) {
	want := "♖ ♘ ♗ ♕ ♔ ♗ ♘ ♖ \n" +
		"♙ ♙ ♙ ♙ ♙ ♙ ♙ ♙ \n" +
		"- - - - - - - - \n" +
		"- - - - - - - - \n" +
		"- - - - - - - - \n" +
		"- - - - - - - - \n" +
		"♟ ♟ ♟ ♟ ♟ ♟ ♟ ♟ \n" +
		"♜ ♞ ♝ ♛ ♚ ♝ ♞ ♜ \n"

	if diff := cmp.Diff(want, NewBoard().Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	b := NewBoard()
	snap := b.Snapshot()
	snap[0][4].Type = Pawn
	snap[1][0] = nil

	assert.Equal(t, King, b.At(sq(0, 4)).Type)
	assert.NotNil(t, b.At(sq(1, 0)))
}

func TestSquareNotation(t *testing.T) {
	assert.Equal(t, "a1", sq(0, 0).Notation())
	assert.Equal(t, "e2", sq(1, 4).Notation())
	assert.Equal(t, "h8", sq(7, 7).Notation())
	assert.Equal(t, "8,0", sq(8, 0).Notation())
	assert.Equal(t, "3,5", sq(3, 5).String())
}
