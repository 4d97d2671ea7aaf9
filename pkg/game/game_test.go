package game

import (
    "errors"
    "sync"
    "testing"

    "meshbbs/pkg/transport"
)

func TestBoardString(t *testing.T) {
    var b Board
    b.Place(1, X)
    b.Place(5, O)
    want := "X|2|3\n--------\n4|O|6\n--------\n7|8|9\n"
    if got := b.String(); got != want { t.Fatalf("board:\n%s\nwant:\n%s", got, want) }
}

func TestBoardPlaceAndWinner(t *testing.T) {
    var b Board
    if b.Place(0, X) || b.Place(10, X) { t.Fatalf("out of range accepted") }
    if !b.Place(3, O) || b.Place(3, X) { t.Fatalf("taken space handling") }
    b.Place(5, O)
    if b.Winner() != Empty { t.Fatalf("premature winner") }
    b.Place(7, O)
    if b.Winner() != O { t.Fatalf("diagonal not detected") }
}

func TestBoardFull(t *testing.T) {
    var b Board
    // X O X / X O O / O X X
    for i, p := range []Piece{X, O, X, X, O, O, O, X, X} { b.Place(i+1, p) }
    if !b.Full() || b.Winner() != Empty { t.Fatalf("expected full board without winner") }
}

func TestTablePairsAndPlays(t *testing.T) {
    tb := NewTable()
    a := Player{ID: "!00000001", Username: "alice"}
    bo := Player{ID: "!00000002", Username: "bob"}

    g, seat := tb.Join(a)
    if seat != 0 || tb.Len() != 1 { t.Fatalf("first join seat=%d len=%d", seat, tb.Len()) }
    if got, ok := tb.Get(g.ID); !ok || got != g { t.Fatalf("game not found by id %s", g.ID) }
    if _, err := tb.Move(g, 0, 1); !errors.Is(err, ErrWaiting) { t.Fatalf("move while waiting: %v", err) }

    // same player does not pair with itself
    g2, seat := tb.Join(a)
    if g2 == g || seat != 0 { t.Fatalf("self pairing") }
    tb.Leave(g2, 0)

    g3, seat := tb.Join(bo)
    if g3 != g || seat != 1 { t.Fatalf("second join should pair: seat=%d", seat) }
    if _, err := tb.Move(g, 1, 1); !errors.Is(err, ErrNotYourTurn) { t.Fatalf("turn: %v", err) }

    moves := []struct{ seat, n int }{{0, 1}, {1, 4}, {0, 2}, {1, 5}}
    for _, m := range moves {
        out, err := tb.Move(g, m.seat, m.n)
        if err != nil || out.State != Playing || out.Next != 1-m.seat { t.Fatalf("move %+v: %+v %v", m, out, err) }
    }
    if _, err := tb.Move(g, 0, 4); !errors.Is(err, ErrBadSpace) { t.Fatalf("taken: %v", err) }
    out, err := tb.Move(g, 0, 3)
    if err != nil || out.State != Won || out.Winner != 0 { t.Fatalf("win: %+v %v", out, err) }
    if tb.Len() != 0 { t.Fatalf("finished game still listed") }
    if _, ok := tb.Get(g.ID); ok { t.Fatalf("finished game still found by id") }
    if _, err := tb.Move(g, 1, 9); !errors.Is(err, ErrOver) { t.Fatalf("after win: %v", err) }
}

func TestTableLeave(t *testing.T) {
    tb := NewTable()
    a := Player{ID: "a"}
    b := Player{ID: "b"}
    g, _ := tb.Join(a)
    if _, ok := tb.Leave(g, 0); ok { t.Fatalf("no opponent to notify while waiting") }

    g, _ = tb.Join(a)
    tb.Join(b)
    other, ok := tb.Leave(g, 1)
    if !ok || other.ID != "a" { t.Fatalf("leave: %+v %v", other, ok) }
    if _, ok := tb.Leave(g, 0); ok { t.Fatalf("second leave reported opponent") }
    if tb.Snapshot(g).State != Abandoned { t.Fatalf("state %v", tb.Snapshot(g).State) }
}

func TestTableConcurrentJoinPairsEveryone(t *testing.T) {
    tb := NewTable()
    var wg sync.WaitGroup
    for i := 0; i < 20; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            tb.Join(Player{ID: transport.NodeID("p" + string(rune('a'+i)))})
        }(i)
    }
    wg.Wait()
    if tb.Len() != 10 { t.Fatalf("expected 10 paired games, got %d", tb.Len()) }
}

func TestTableFullGameIsNotJoinable(t *testing.T) {
    tb := NewTable()
    a, b, c := Player{ID: "a"}, Player{ID: "b"}, Player{ID: "c"}
    ga, _ := tb.Join(a)
    gb, _ := tb.Join(b)
    if gb != ga { t.Fatalf("b should pair with a") }
    gc, seat := tb.Join(c)
    if seat != 0 || gc == ga { t.Fatalf("c joined a full game") }
    if tb.Len() != 2 { t.Fatalf("len=%d", tb.Len()) }
}
