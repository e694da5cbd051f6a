package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

func TestMemoryLocker_ExclusionPorClave(t *testing.T) {
	l := NewMemoryLocker()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "s1")
			require.NoError(t, err)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.slots, "sin esperas pendientes no quedan entradas")
}

func TestMemoryLocker_ClavesIndependientes(t *testing.T) {
	l := NewMemoryLocker()
	u1, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer u1()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	u2, err := l.Lock(ctx, "s2")
	require.NoError(t, err, "otra clave no espera")
	u2()
}

func TestMemoryLocker_PlazoVencidoEsBusy(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBusy))

	unlock()
	unlock() // idempotente
	u, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	u()
}
