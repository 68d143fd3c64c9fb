package page

import (
	"context"
	"sync"
)

// Lifetime is bound to one mounted page. Ending it cancels every call bound to it.
type Lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewLifetime() *Lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifetime{ctx: ctx, cancel: cancel}
}

// Bind derives a context that is cancelled when either ctx or the lifetime ends.
func (l *Lifetime) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (l *Lifetime) End() {
	l.once.Do(l.cancel)
}

func (l *Lifetime) Ended() bool {
	return l.ctx.Err() != nil
}

func (l *Lifetime) Done() <-chan struct{} {
	return l.ctx.Done()
}
