package game

import (
    "errors"
    "sync"

    "github.com/google/uuid"

    "meshbbs/pkg/transport"
)

var (
    ErrNotYourTurn = errors.New("game: not your turn")
    ErrWaiting     = errors.New("game: waiting for a challenger")
    ErrBadSpace    = errors.New("game: invalid space")
    ErrOver        = errors.New("game: game over")
    ErrNotSeated   = errors.New("game: not seated")
)

// State of a multiplayer game.
type State int

const (
    Waiting State = iota
    Playing
    Won
    Drawn
    Abandoned
)

func (s State) String() string {
    switch s {
    case Waiting:
        return "waiting"
    case Playing:
        return "playing"
    case Won:
        return "won"
    case Drawn:
        return "drawn"
    case Abandoned:
        return "abandoned"
    default:
        return "unknown"
    }
}

// Player is a seat holder. Seats reference sessions by id only.
type Player struct {
    ID       transport.NodeID
    Username string
}

// Game is one board shared by two seats. Seat 0 plays X and moves first.
// Fields are guarded by the owning Table.
type Game struct {
    ID     string
    Seats  [2]Player
    seated int
    board  Board
    state  State
    turn   int
    winner int
}

var pieces = [2]Piece{X, O}

// Outcome describes the result of a move.
type Outcome struct {
    State State
    // Next is the seat to move when State is Playing.
    Next int
    // Winner is the winning seat when State is Won.
    Winner int
    Board  Board
}

// Table pairs players into games and keeps the open ones by id.
type Table struct {
    mu    sync.Mutex
    games map[string]*Game
    // waiting lists ids of games with one seat taken, oldest first.
    waiting []string
}

func NewTable() *Table { return &Table{games: make(map[string]*Game)} }

// Join seats p in the newest waiting game it did not open itself, or opens a
// new one. seat is 0 for a new game and 1 when p completed a pair.
func (t *Table) Join(p Player) (g *Game, seat int) {
    t.mu.Lock(); defer t.mu.Unlock()
    for i := len(t.waiting) - 1; i >= 0; i-- {
        w := t.games[t.waiting[i]]
        if w.Seats[0].ID == p.ID { continue }
        t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
        w.Seats[1] = p
        w.seated = 2
        w.state = Playing
        w.turn = 0
        return w, 1
    }
    g = &Game{ID: uuid.NewString(), Seats: [2]Player{p}, seated: 1}
    t.games[g.ID] = g
    t.waiting = append(t.waiting, g.ID)
    return g, 0
}

// Get looks up an open game.
func (t *Table) Get(id string) (*Game, bool) {
    t.mu.Lock(); defer t.mu.Unlock()
    g, ok := t.games[id]
    return g, ok
}

// Move places seat's piece on space n.
func (t *Table) Move(g *Game, seat, n int) (Outcome, error) {
    t.mu.Lock(); defer t.mu.Unlock()
    switch g.state {
    case Waiting:
        return Outcome{}, ErrWaiting
    case Playing:
    default:
        return Outcome{}, ErrOver
    }
    if seat != 0 && seat != 1 { return Outcome{}, ErrNotSeated }
    if seat != g.turn { return Outcome{}, ErrNotYourTurn }
    if !g.board.Place(n, pieces[seat]) { return Outcome{}, ErrBadSpace }
    switch {
    case g.board.Winner() != Empty:
        g.state, g.winner = Won, seat
        t.removeLocked(g)
    case g.board.Full():
        g.state = Drawn
        t.removeLocked(g)
    default:
        g.turn = 1 - seat
    }
    return g.outcomeLocked(), nil
}

// Leave ends g on behalf of seat. It reports whether another player is
// still seated and must be told.
func (t *Table) Leave(g *Game, seat int) (other Player, ok bool) {
    t.mu.Lock(); defer t.mu.Unlock()
    if g.state != Waiting && g.state != Playing { return Player{}, false }
    hadOpponent := g.state == Playing
    g.state = Abandoned
    t.removeLocked(g)
    if !hadOpponent { return Player{}, false }
    return g.Seats[1-seat], true
}

// Snapshot returns the current outcome view of g.
func (t *Table) Snapshot(g *Game) Outcome {
    t.mu.Lock(); defer t.mu.Unlock()
    return g.outcomeLocked()
}

// Seats returns both seat holders; the second is zero while waiting.
func (t *Table) Seats(g *Game) [2]Player {
    t.mu.Lock(); defer t.mu.Unlock()
    return g.Seats
}

// Len counts open games.
func (t *Table) Len() int {
    t.mu.Lock(); defer t.mu.Unlock()
    return len(t.games)
}

func (t *Table) removeLocked(g *Game) {
    delete(t.games, g.ID)
    for i, id := range t.waiting {
        if id == g.ID {
            t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
            return
        }
    }
}

func (g *Game) outcomeLocked() Outcome {
    return Outcome{State: g.state, Next: g.turn, Winner: g.winner, Board: g.board}
}
