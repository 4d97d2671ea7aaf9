package session

// History is the stack of parked contexts. The current context is not a
// member until it is superseded by ChangeContext.
type History struct {
    stack []Context
}

func (h *History) Len() int { return len(h.stack) }

// Push parks c on top.
func (h *History) Push(c Context) { h.stack = append(h.stack, c) }

// Pop removes levels entries and returns them top first; the last element is
// the context that becomes current. Underflow leaves the stack untouched.
func (h *History) Pop(levels int) ([]Context, error) {
    if levels < 1 || levels > len(h.stack) { return nil, ErrRevertUnderflow }
    n := len(h.stack)
    out := make([]Context, 0, levels)
    for i := n - 1; i >= n-levels; i-- { out = append(out, h.stack[i]) }
    for i := n - levels; i < n; i++ { h.stack[i] = nil }
    h.stack = h.stack[:n-levels]
    return out, nil
}

// Peek returns the context levels below the top (1 = most recently parked).
func (h *History) Peek(levels int) (Context, bool) {
    if levels < 1 || levels > len(h.stack) { return nil, false }
    return h.stack[len(h.stack)-levels], true
}

// Each visits parked contexts from top to bottom.
func (h *History) Each(fn func(Context)) {
    for i := len(h.stack) - 1; i >= 0; i-- { fn(h.stack[i]) }
}

func (h *History) clear() { h.stack = nil }
