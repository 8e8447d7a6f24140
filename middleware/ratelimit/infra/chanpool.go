package infra

import (
	"context"
	"sync"
)

// ChanPool é um domain.SlotPool sobre um channel bufferizado: cada vaga ocupada
// é um elemento no buffer.
type ChanPool struct {
	slots chan struct{}
}

func NewChanPool(size int) *ChanPool {
	if size < 1 {
		size = 1
	}
	return &ChanPool{slots: make(chan struct{}, size)}
}

func (p *ChanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { <-p.slots }) }, true
}

// InUse é quantas vagas estão ocupadas agora (alimenta o gauge de in-flight).
func (p *ChanPool) InUse() int { return len(p.slots) }

func (p *ChanPool) Size() int { return cap(p.slots) }
