package model

import "github.com/pkg/errors"

var (
	ErrOutOfBounds   = errors.New("square out of bounds")
	ErrNoPiece       = errors.New("no piece at from square")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotYourPiece  = errors.New("piece belongs to the other player")
	ErrIllegalMove   = errors.New("illegal move")
	ErrGameOver      = errors.New("game is over")
	ErrGameFull      = errors.New("game is full")
	ErrNotInGame     = errors.New("player not in game")
	ErrAlreadyQueued = errors.New("player already in queue")

	ErrAlreadyConnected = errors.New("connection already exists")
)
