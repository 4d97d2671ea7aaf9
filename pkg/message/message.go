// Package message defines the text unit sent to users and its rendering rules.
//
// A rendered message looks like:
//
//	HEADER
//	====================
//	BODY
//	====================
//	FOOTER
//
// Every present component is followed by a newline. The top border is only
// emitted together with a header. Empty strings count as absent.
package message

import "strings"

// Message holds the five optional components of an outbound text.
// It is a plain value: assigning it copies it.
type Message struct {
    Header       string
    BorderTop    string
    Body         string
    BorderBottom string
    Footer       string
}

// Style carries configured border defaults. It is read once from
// configuration and applied when messages are constructed.
type Style struct {
    BorderTop    string `mapstructure:"top"`
    BorderBottom string `mapstructure:"bottom"`
}

// New returns a message with the style's borders applied.
func (st Style) New(header, body, footer string) Message {
    return Message{
        Header:       header,
        BorderTop:    st.BorderTop,
        Body:         body,
        BorderBottom: st.BorderBottom,
        Footer:       footer,
    }
}

// Render returns the message as transmitted text.
func (m Message) Render() string {
    var b strings.Builder
    b.Grow(m.Size())
    if m.Header != "" {
        b.WriteString(m.Header)
        b.WriteByte('\n')
        if m.BorderTop != "" {
            b.WriteString(m.BorderTop)
            b.WriteByte('\n')
        }
    }
    if m.Body != "" {
        b.WriteString(m.Body)
        b.WriteByte('\n')
    }
    if m.BorderBottom != "" {
        b.WriteString(m.BorderBottom)
        b.WriteByte('\n')
    }
    if m.Footer != "" {
        b.WriteString(m.Footer)
        b.WriteByte('\n')
    }
    return b.String()
}

// Size returns len(m.Render()) without building the string.
func (m Message) Size() int {
    n := 0
    if m.Header != "" {
        n += len(m.Header) + 1
        if m.BorderTop != "" {
            n += len(m.BorderTop) + 1
        }
    }
    if m.Body != "" {
        n += len(m.Body) + 1
    }
    if m.BorderBottom != "" {
        n += len(m.BorderBottom) + 1
    }
    if m.Footer != "" {
        n += len(m.Footer) + 1
    }
    return n
}

// Empty reports whether rendering would produce no text.
func (m Message) Empty() bool { return m.Size() == 0 }
