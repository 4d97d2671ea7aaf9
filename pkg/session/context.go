package session

import "meshbbs/pkg/message"

// Context is one unit of interaction: a menu, a form, a game board.
type Context interface {
    // Start runs on every activation, including re-activation after a revert.
    Start()
    // Receive handles one line of user input while the context is current.
    Receive(input string)
}

// Closer is implemented by contexts holding resources beyond their own
// lifetime (game seats, open files). Close runs once when the context is
// discarded or the session is destroyed.
type Closer interface {
    Close()
}

// Base carries the owning session and a message template. Embedding it
// gives a context the default Start: send the template.
type Base struct {
    S   *Session
    Msg message.Message
}

// NewBase builds a Base whose template uses the session's borders.
func NewBase(s *Session, header, body, footer string) Base {
    return Base{S: s, Msg: s.Style().New(header, body, footer)}
}

func (b *Base) Start() { b.S.Send(b.Msg) }

// Session returns the owning session.
func (b *Base) Session() *Session { return b.S }
