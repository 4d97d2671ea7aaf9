package contexts

import (
    "strconv"
    "strings"

    "meshbbs/pkg/config"
    "meshbbs/pkg/game"
    "meshbbs/pkg/session"
)

const ticTacToePrompt = "Enter the space number you want to choose or [q]uit"

// ticTacToe is a single player game against a computer that picks free
// spaces at random.
type ticTacToe struct {
    session.Base
    env   *Env
    board game.Board
}

func newTicTacToe(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &ticTacToe{Base: session.NewBase(s, "Tic Tac Toe", "", ""), env: env}
}

func (c *ticTacToe) Start() {
    c.board = game.Board{}
    c.say(ticTacToePrompt)
}

func (c *ticTacToe) say(text string) {
    m := c.Msg
    m.Body = c.board.String() + "\n" + text
    c.S.SendOnePage(m)
}

func (c *ticTacToe) finish(text string) {
    c.say(text)
    _ = c.S.RevertContext(1)
}

func (c *ticTacToe) Receive(input string) {
    in := strings.TrimSpace(input)
    if strings.EqualFold(in, "q") {
        _ = c.S.RevertContext(1)
        return
    }
    n, err := strconv.Atoi(in)
    if err != nil || !c.board.Place(n, game.X) {
        c.S.SendError("Invalid choice.")
        return
    }
    if c.board.Winner() == game.X {
        c.finish("Congrats! You won!")
        return
    }
    if c.board.Full() {
        c.finish("It's a draw!")
        return
    }
    free := c.board.Free()
    c.board.Place(free[c.env.Intn(len(free))], game.O)
    if c.board.Winner() == game.O {
        c.finish("YOU LOSE!")
        return
    }
    if c.board.Full() {
        c.finish("It's a draw!")
        return
    }
    c.say(ticTacToePrompt)
}
