package session

import (
    "time"

    "meshbbs/pkg/clock"
    "meshbbs/pkg/message"
)

const (
    // DefaultPayloadCeiling is the Meshtastic DATA_PAYLOAD_LEN.
    DefaultPayloadCeiling = 233
    // DefaultSafetyMargin covers the line terminators of a page plus radio
    // framing slack.
    DefaultSafetyMargin = 10
    // PageTerminators is the number of line breaks a pager page carries
    // (body, bottom border, footer); no smaller margin is honoured.
    PageTerminators = 3
    TimeoutNotice   = "Session timeout!"
)

// Limits bound every outbound unit.
type Limits struct {
    PayloadCeiling int
    SafetyMargin   int
}

// Budget is the byte room one rendered unit may use.
func (l Limits) Budget() int { return l.PayloadCeiling - max(l.SafetyMargin, PageTerminators) }

// Options configure a Session. Root is required.
type Options struct {
    Limits
    // Timeout is the inactivity limit; zero disables it.
    Timeout   time.Duration
    Style     message.Style
    Clock     clock.Clock
    Directory *Directory
    // Root builds the context a new session starts in.
    Root func(*Session) Context
}

func (o Options) withDefaults() Options {
    if o.PayloadCeiling <= 0 { o.PayloadCeiling = DefaultPayloadCeiling }
    if o.SafetyMargin <= 0 { o.SafetyMargin = DefaultSafetyMargin }
    if o.Clock == nil { o.Clock = clock.Real() }
    return o
}
