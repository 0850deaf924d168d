package model

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/benbeisheim/consolechess/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
)

const (
	ResolveCheckmate = "checkmate"
	ResolveTimeout   = "timeout"

	// The rules let a king be taken; the game ends there.
	ResolveKingCaptured = "kingCaptured"
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
	// A websocket.Conn allows one writer at a time.
	writeMu sync.Mutex
}

// Game is one networked session: a board, whose turn it is, and the players
// and observers attached to it.
type Game struct {
	ID          string
	mu          sync.Mutex
	board       *Board
	toMove      Color
	players     map[Color]string
	isCheck     bool
	resolve     *string
	winner      *Color
	lastMove    *SimpleMove
	connections *GameConnections
	whiteClock  *Clock
	blackClock  *Clock
}

type GameState struct {
	Board    [][]*Piece  `json:"board"`
	Render   string      `json:"render"`
	ToMove   Color       `json:"toMove"`
	IsCheck  bool        `json:"isCheck"`
	Resolve  *string     `json:"resolve"`
	Winner   *Color      `json:"winner"`
	LastMove *SimpleMove `json:"lastMove"`
	Players  struct {
		White ClientPlayer `json:"white"`
		Black ClientPlayer `json:"black"`
	} `json:"players"`
}

func NewGame(id string, clockTime time.Duration) *Game {
	return &Game{
		ID:          id,
		board:       NewBoard(),
		toMove:      White,
		players:     make(map[Color]string),
		connections: NewGameConnections(),
		whiteClock:  NewClock(clockTime),
		blackClock:  NewClock(clockTime),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

// AddPlayer seats playerID on the first free side. White's clock starts once
// both sides are taken.
func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	for _, color := range []Color{White, Black} {
		if g.players[color] == "" {
			g.players[color] = playerID
			log.Debugf("game %s: %s seated as %s", g.ID, playerID, color)
			if g.players[White] != "" && g.players[Black] != "" {
				g.whiteClock.Start()
			}
			return color, nil
		}
	}
	return "", ErrGameFull
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.stateLocked()
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) colorOf(playerID string) (Color, bool) {
	if playerID == "" {
		return "", false
	}
	for color, id := range g.players {
		if id == playerID {
			return color, true
		}
	}
	return "", false
}

func (g *Game) canSpectate() bool {
	return g.players[White] == "" || g.players[Black] == ""
}

// MakeMove plays one move for playerID. The board decides legality; the game
// only adds turn order, ownership and the end-of-game bookkeeping.
func (g *Game) MakeMove(playerID string, move MoveRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolve != nil {
		return ErrGameOver
	}
	if !move.From.InBounds() || !move.To.InBounds() {
		return errors.Wrapf(ErrOutOfBounds, "move %s -> %s", move.From, move.To)
	}
	color, ok := g.colorOf(playerID)
	if !ok {
		return ErrNotInGame
	}
	if color != g.toMove {
		return ErrNotYourTurn
	}
	piece := g.board.At(move.From)
	if piece == nil {
		return errors.Wrapf(ErrNoPiece, "square %s", move.From)
	}
	if piece.Color != color {
		return ErrNotYourPiece
	}

	clock := g.clockFor(color)
	if clock.Expired() {
		g.finish(ResolveTimeout, color.Opposite())
		state := g.stateLocked()
		go g.broadcastState(state)
		return errors.Wrapf(ErrGameOver, "%s ran out of time", color)
	}

	notation := moveNotation(g.board, move.From, move.To)
	if !g.board.MovePiece(move.From, move.To) {
		return errors.Wrapf(ErrIllegalMove, "%s", notation)
	}
	clock.Stop()

	g.lastMove = &SimpleMove{From: move.From, To: move.To, Notation: notation}
	g.switchTurn()
	g.clockFor(g.toMove).Start()

	g.isCheck = g.board.IsCheck(g.toMove)
	if _, ok := g.board.FindKing(g.toMove); !ok {
		g.finish(ResolveKingCaptured, color)
	} else if g.board.IsCheckmate(g.toMove) {
		g.finish(ResolveCheckmate, color)
	}
	log.Infof("game %s: %s played %s", g.ID, color, notation)

	state := g.stateLocked()
	go g.broadcastState(state)

	return nil
}

func (g *Game) finish(resolve string, winner Color) {
	g.resolve = &resolve
	g.winner = &winner
	g.whiteClock.Stop()
	g.blackClock.Stop()
	log.Infof("game %s: %s, %s wins", g.ID, resolve, winner)
}

func (g *Game) clockFor(color Color) *Clock {
	if color == White {
		return g.whiteClock
	}
	return g.blackClock
}

func (g *Game) switchTurn() {
	g.toMove = g.toMove.Opposite()
}

func (g *Game) stateLocked() GameState {
	state := GameState{
		Board:    g.board.Snapshot(),
		Render:   g.board.Render(),
		ToMove:   g.toMove,
		IsCheck:  g.isCheck,
		Resolve:  g.resolve,
		Winner:   g.winner,
		LastMove: g.lastMove,
	}
	state.Players.White = ClientPlayer{ID: g.players[White], Color: White, TimeLeft: g.whiteClock.tenths()}
	state.Players.Black = ClientPlayer{ID: g.players[Black], Color: Black, TimeLeft: g.blackClock.tenths()}
	return state
}

// RegisterConnection attaches a socket to the game. Seated players may always
// watch; anyone else only while a seat is still open. A second socket for the
// same id is refused and the first one kept.
func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	isPlayer := g.IsPlayerInGame(playerID)

	g.mu.Lock()
	open := g.canSpectate()
	state := g.stateLocked()
	g.mu.Unlock()

	if !isPlayer && !open {
		return ErrNotInGame
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		g.connections.mu.Unlock()
		return errors.Wrap(ErrAlreadyConnected, playerID)
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	log.Debugf("game %s: registered connection %p for player %s", g.ID, conn, playerID)

	go g.broadcastState(state)
	return nil
}

// UnregisterConnection detaches conn if it is still the one registered for
// playerID.
func (g *Game) UnregisterConnection(playerID string, conn *websocket.Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		log.Debugf("game %s: unregistering connection for player %s", g.ID, playerID)
		delete(g.connections.connections, playerID)
	}
}

// Send writes msg to conn, serialized with the game's broadcasts.
func (g *Game) Send(conn *websocket.Conn, msg ws.Message) error {
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (g *Game) broadcastState(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorf("game %s: marshal state: %v", g.ID, err)
		return
	}

	g.connections.mu.RLock()
	activeConnections := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: json.RawMessage(payload)}
	for playerID, conn := range activeConnections {
		if err := g.Send(conn, msg); err != nil {
			log.Warnf("game %s: send state to %s: %v", g.ID, playerID, err)
			g.UnregisterConnection(playerID, conn)
		}
	}
}
