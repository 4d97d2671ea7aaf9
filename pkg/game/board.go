// Package game holds the tic-tac-toe rules and the table that pairs
// multiplayer sessions.
package game

import (
    "strconv"
    "strings"
)

// Piece occupies a cell. The zero value is an empty cell.
type Piece byte

const (
    Empty Piece = 0
    X     Piece = 'X'
    O     Piece = 'O'
)

var lines = [8][3]int{
    {0, 1, 2}, {3, 4, 5}, {6, 7, 8},
    {0, 3, 6}, {1, 4, 7}, {2, 5, 8},
    {0, 4, 8}, {2, 4, 6},
}

// Board is a 3x3 grid addressed 1..9, left to right, top to bottom.
type Board struct {
    cells [9]Piece
}

// Place puts p on space n. It reports false for an out-of-range or taken space.
func (b *Board) Place(n int, p Piece) bool {
    if n < 1 || n > 9 || b.cells[n-1] != Empty { return false }
    b.cells[n-1] = p
    return true
}

// At returns the piece on space n.
func (b *Board) At(n int) Piece { return b.cells[n-1] }

// Free lists the open spaces in order.
func (b *Board) Free() []int {
    var out []int
    for i, c := range b.cells {
        if c == Empty { out = append(out, i+1) }
    }
    return out
}

// Full reports whether no space is left.
func (b *Board) Full() bool { return len(b.Free()) == 0 }

// Winner returns the piece holding a full line, or Empty.
func (b *Board) Winner() Piece {
    for _, l := range lines {
        c := b.cells[l[0]]
        if c != Empty && c == b.cells[l[1]] && c == b.cells[l[2]] { return c }
    }
    return Empty
}

// String draws the board with open spaces shown by number:
//
//	1|2|3
//	--------
//	4|5|6
//	--------
//	7|8|9
func (b *Board) String() string {
    var sb strings.Builder
    for row := 0; row < 3; row++ {
        if row > 0 { sb.WriteString("--------\n") }
        for col := 0; col < 3; col++ {
            if col > 0 { sb.WriteByte('|') }
            i := row*3 + col
            if b.cells[i] == Empty {
                sb.WriteString(strconv.Itoa(i + 1))
            } else {
                sb.WriteByte(byte(b.cells[i]))
            }
        }
        sb.WriteByte('\n')
    }
    return sb.String()
}
