// Package lock implementa StockLocker: exclusión por clave con plazo de espera.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

var _ inventory.StockLocker = (*MemoryLocker)(nil)

// MemoryLocker un semáforo de capacidad 1 por clave, válido dentro de un proceso.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker construye el locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

// Lock espera el turno de key hasta que ctx venza; al vencer devuelve un error con domain.ErrBusy.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireSlot(key)
	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.releaseSlot(key)
			})
		}, nil
	case <-ctx.Done():
		l.releaseSlot(key)
		return nil, fmt.Errorf("%w: lock %s: %v", domain.ErrBusy, key, ctx.Err())
	}
}

func (l *MemoryLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

// releaseSlot borra la entrada cuando nadie más la espera ni la tiene.
func (l *MemoryLocker) releaseSlot(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
