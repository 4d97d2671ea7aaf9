package contexts

import (
    "errors"
    "fmt"
    "strconv"
    "strings"

    "go.uber.org/zap"

    "meshbbs/pkg/config"
    "meshbbs/pkg/game"
    "meshbbs/pkg/message"
    "meshbbs/pkg/session"
    "meshbbs/pkg/store"
)

const mpPrompt = "Enter the space number you want to choose or [q]uit"

// ticTacToeMP seats the session at the shared game table. The opponent is
// reached through the session directory; messages to it are posted so they
// run under the opponent's own lock.
type ticTacToeMP struct {
    session.Base
    env  *Env
    g    *game.Game
    seat int
    done bool
}

func newTicTacToeMP(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &ticTacToeMP{Base: session.NewBase(s, "Tic Tac Toe - MP", "", ""), env: env}
}

func (c *ticTacToeMP) player() game.Player {
    return game.Player{ID: c.S.ID(), Username: displayName(c.S)}
}

func (c *ticTacToeMP) Start() {
    if c.g != nil {
        c.say("Game in progress! " + mpPrompt)
        return
    }
    c.g, c.seat = c.env.Games.Join(c.player())
    c.S.Logger().Info("tictactoe seat", zap.String("game", c.g.ID), zap.Int("seat", c.seat))
    if c.seat == 0 {
        c.say("Waiting for a challenger... [Q]uit")
        return
    }
    seats := c.env.Games.Seats(c.g)
    c.say(seats[0].Username + "'s turn!")
    c.notify(0, "A challenger appears!\n"+mpPrompt, false)
}

func (c *ticTacToeMP) Receive(input string) {
    in := strings.TrimSpace(input)
    if in == "" { return }
    if strings.EqualFold(in, "q") {
        c.leave("Quitter!")
        return
    }
    n, err := strconv.Atoi(in)
    if err != nil {
        c.sayError("Invalid choice.")
        return
    }
    out, err := c.env.Games.Move(c.g, c.seat, n)
    switch {
    case errors.Is(err, game.ErrWaiting):
        c.say("Still waiting for a challenger... [Q]uit")
        return
    case errors.Is(err, game.ErrNotYourTurn):
        c.say("Please wait your turn!")
        return
    case errors.Is(err, game.ErrBadSpace):
        c.sayError("Invalid choice!")
        return
    case err != nil:
        c.sayError("Game over!")
        c.done = true
        _ = c.S.RevertContext(1)
        return
    }

    other := 1 - c.seat
    seats := c.env.Games.Seats(c.g)
    switch out.State {
    case game.Won:
        c.done = true
        c.record(c.seat, other, false)
        c.notify(other, "YOU LOSE!", true)
        c.say("YOU WIN!")
        _ = c.S.RevertContext(1)
    case game.Drawn:
        c.done = true
        c.record(c.seat, other, true)
        c.notify(other, "It's a DRAW!", true)
        c.say("It's a DRAW!")
        _ = c.S.RevertContext(1)
    default:
        c.say(seats[other].Username + "'s turn!")
        c.notify(other, "Your move!", false)
    }
}

// Close gives up the seat when the context is discarded mid-game,
// including when the session is destroyed.
func (c *ticTacToeMP) Close() {
    if c.g == nil || c.done { return }
    c.done = true
    if _, ok := c.env.Games.Leave(c.g, c.seat); ok {
        c.notify(1-c.seat, "Other player quit!", true)
    }
}

func (c *ticTacToeMP) leave(text string) {
    c.done = true
    if _, ok := c.env.Games.Leave(c.g, c.seat); ok {
        c.notify(1-c.seat, "Other player quit!", true)
    }
    c.say(text)
    _ = c.S.RevertContext(1)
}

// render builds the board message with both players' records in the header.
// The records are left out when they would push the board past one unit.
func (c *ticTacToeMP) render(text string) message.Message {
    seats := c.env.Games.Seats(c.g)
    snap := c.env.Games.Snapshot(c.g)
    m := c.Msg
    m.Body = snap.Board.String()
    m.Footer = text

    var hb strings.Builder
    hb.WriteString(c.Msg.Header)
    for _, p := range seats {
        if p.ID == "" { continue }
        sc := c.scores(p.Username)
        fmt.Fprintf(&hb, "\n%s W:%d L:%d D:%d", p.Username, sc.Wins, sc.Losses, sc.Draws)
    }
    scored := m
    scored.Header = hb.String()
    if scored.Size() <= c.S.Limits().Budget() { return scored }
    return m
}

// Game screens go out as single units so a pager never parks the board.
func (c *ticTacToeMP) say(text string) { c.S.SendOnePage(c.render(text)) }

func (c *ticTacToeMP) sayError(text string) { c.S.SendOnePage(c.render("Error: " + text)) }

// notify delivers text to the player in seat if its session is still at
// this game. With end set, that player is sent back to its menu.
func (c *ticTacToeMP) notify(seat int, text string, end bool) {
    p := c.env.Games.Seats(c.g)[seat]
    target, ok := c.S.Directory().Get(p.ID)
    if !ok { return }
    m := c.render(text)
    g := c.g
    target.Post(func() {
        cur, ok := target.Current().(*ticTacToeMP)
        if !ok || cur.g != g { return }
        target.SendOnePage(m)
        if end {
            cur.done = true
            _ = target.RevertContext(1)
        }
    })
}

func (c *ticTacToeMP) scores(username string) store.Scores {
    ctx, cancel := c.env.op()
    defer cancel()
    sc, err := c.env.Store.Scores(ctx, username)
    if err != nil {
        c.S.Logger().Warn("load scores", zap.String("username", username), zap.Error(err))
        return store.Scores{Username: username}
    }
    return sc
}

// record books a finished game for both seats.
func (c *ticTacToeMP) record(winner, loser int, draw bool) {
    seats := c.env.Games.Seats(c.g)
    w, l := c.scores(seats[winner].Username), c.scores(seats[loser].Username)
    if draw {
        w.Draws++
        l.Draws++
    } else {
        w.Wins++
        l.Losses++
    }
    ctx, cancel := c.env.op()
    defer cancel()
    for _, sc := range []store.Scores{w, l} {
        if err := c.env.Store.UpdateScores(ctx, sc); err != nil {
            c.S.Logger().Error("update scores", zap.String("username", sc.Username), zap.Error(err))
        }
    }
}
