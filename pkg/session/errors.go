package session

import "errors"

var (
    // ErrRevertUnderflow is returned when a revert asks for more levels than
    // there are parked contexts. History is left unchanged.
    ErrRevertUnderflow = errors.New("session: revert past root context")
    // ErrTooLong is returned by SendText for text over the payload ceiling.
    ErrTooLong = errors.New("session: text exceeds payload ceiling")
    // ErrSessionExists is returned by Directory.Add for a taken id.
    ErrSessionExists = errors.New("session: id already has a live session")
    // ErrNoMorePages is a pager navigation error at either end.
    ErrNoMorePages = errors.New("pager: no more pages")
    // ErrInvalidPage is a pager goto outside 1..total.
    ErrInvalidPage = errors.New("pager: invalid page number")
    // ErrPageTooSmall means header/footer overhead leaves no room for body.
    ErrPageTooSmall = errors.New("pager: payload ceiling too small for a page")
)
