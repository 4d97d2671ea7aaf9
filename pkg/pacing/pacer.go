package pacing

import (
    "context"

    "go.uber.org/zap"

    "meshbbs/pkg/clock"
)

// Pacer drains a Queue through a TokenBucket.
type Pacer struct {
    Queue  *Queue
    Bucket *TokenBucket
    Clock  clock.Clock
}

// Run sends items until ctx ends or the queue is closed and empty. Send
// errors are logged and the item is dropped.
func (p *Pacer) Run(ctx context.Context, send func(Item) error) {
    clk := p.Clock
    if clk == nil { clk = clock.Real() }
    for {
        it, ok := p.Queue.Pop(ctx)
        if !ok { return }
        if p.Bucket != nil {
            for {
                allowed, wait := p.Bucket.Allow(int64(len(it.Payload)))
                if allowed { break }
                select {
                case <-ctx.Done():
                    return
                case <-clk.After(wait):
                }
            }
        }
        if err := send(it); err != nil {
            zap.L().Warn("paced send failed", zap.String("dest", it.Dest), zap.Error(err))
        }
    }
}
