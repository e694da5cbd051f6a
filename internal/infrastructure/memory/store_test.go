package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Run(context.Background(), func(stocks repository.StockRepository, batches repository.BatchRepository, movs repository.MovementRepository) error {
		ctx := context.Background()
		require.NoError(t, stocks.Upsert(ctx, &entity.StockRecord{
			ID: "s1", ProductID: "p1", LocationID: "l1", TotalQuantity: decimal.NewFromInt(10),
			AvailableQuantity: decimal.NewFromInt(10), IsActive: true, CreatedAt: t0,
		}))
		require.NoError(t, batches.Upsert(ctx, &entity.Batch{
			BatchNumber: "B1", StockID: "s1", Quantity: decimal.NewFromInt(10), AvailableQuantity: decimal.NewFromInt(10),
			Status: entity.BatchStatusAvailable, CreatedAt: t0,
		}))
		return movs.Append(ctx, &entity.MovementRecord{
			ID: "m1", StockID: "s1", BatchNumber: "B1", Type: entity.MovementTypeInbound,
			Quantity: decimal.NewFromInt(10), CreatedAt: t0,
		})
	})
	require.NoError(t, err)
}

func TestRun_ConfirmaTodoJunto(t *testing.T) {
	s := NewStore()
	seed(t, s)

	err := s.View(context.Background(), func(stocks repository.StockRepository, batches repository.BatchRepository, movs repository.MovementRepository) error {
		st, err := stocks.Get(context.Background(), "s1")
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.True(t, st.TotalQuantity.Equal(decimal.NewFromInt(10)))

		ms, err := movs.ListByBatch(context.Background(), "B1")
		require.NoError(t, err)
		require.Len(t, ms, 1)
		assert.Equal(t, int64(1), ms[0].Sequence, "la secuencia se asigna al confirmar")
		return nil
	})
	require.NoError(t, err)
}

func TestRun_ErrorNoDejaRastro(t *testing.T) {
	s := NewStore()
	seed(t, s)
	boom := errors.New("falla a mitad de operación")

	err := s.Run(context.Background(), func(stocks repository.StockRepository, batches repository.BatchRepository, movs repository.MovementRepository) error {
		ctx := context.Background()
		st, _ := stocks.GetForUpdate(ctx, "s1")
		st.AvailableQuantity = decimal.Zero
		require.NoError(t, stocks.Upsert(ctx, st))
		require.NoError(t, movs.Append(ctx, &entity.MovementRecord{ID: "m2", StockID: "s1", BatchNumber: "B1", Type: entity.MovementTypeReserved}))

		// Dentro de la tx se ve lo propio.
		again, _ := stocks.Get(ctx, "s1")
		assert.True(t, again.AvailableQuantity.IsZero())
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(context.Background(), func(stocks repository.StockRepository, _ repository.BatchRepository, movs repository.MovementRepository) error {
		st, _ := stocks.Get(context.Background(), "s1")
		assert.True(t, st.AvailableQuantity.Equal(decimal.NewFromInt(10)))
		_, total, _ := movs.List(context.Background(), repository.MovementFilter{})
		assert.Equal(t, 1, total)
		return nil
	})
	require.NoError(t, err)
}

func TestRun_LoteDeOtroStockEsConflicto(t *testing.T) {
	s := NewStore()
	seed(t, s)
	err := s.Run(context.Background(), func(_ repository.StockRepository, batches repository.BatchRepository, _ repository.MovementRepository) error {
		return batches.Upsert(context.Background(), &entity.Batch{BatchNumber: "B1", StockID: "otro"})
	})
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestView_NoPermiteEscrituras(t *testing.T) {
	s := NewStore()
	err := s.View(context.Background(), func(stocks repository.StockRepository, _ repository.BatchRepository, _ repository.MovementRepository) error {
		return stocks.Upsert(context.Background(), &entity.StockRecord{ID: "x"})
	})
	assert.Equal(t, domain.KindInvariantViolation, domain.KindOf(err))
}

func TestReadsDevuelvenCopias(t *testing.T) {
	s := NewStore()
	seed(t, s)
	_ = s.View(context.Background(), func(stocks repository.StockRepository, _ repository.BatchRepository, _ repository.MovementRepository) error {
		st, _ := stocks.Get(context.Background(), "s1")
		st.TotalQuantity = decimal.NewFromInt(999)
		return nil
	})
	_ = s.View(context.Background(), func(stocks repository.StockRepository, _ repository.BatchRepository, _ repository.MovementRepository) error {
		st, _ := stocks.Get(context.Background(), "s1")
		assert.True(t, st.TotalQuantity.Equal(decimal.NewFromInt(10)), "modificar la copia no altera el store")
		return nil
	})
}

func TestMovementList_FiltraOrdenaYPagina(t *testing.T) {
	s := NewStore()
	seed(t, s)
	err := s.Run(context.Background(), func(_ repository.StockRepository, _ repository.BatchRepository, movs repository.MovementRepository) error {
		for i := 1; i <= 4; i++ {
			typ := entity.MovementTypeReserved
			if i%2 == 0 {
				typ = entity.MovementTypeReleased
			}
			if err := movs.Append(context.Background(), &entity.MovementRecord{
				StockID: "s1", BatchNumber: "B1", Type: typ, Quantity: decimal.NewFromInt(1), CreatedAt: t0.Add(time.Duration(i) * time.Minute),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	_ = s.View(context.Background(), func(_ repository.StockRepository, _ repository.BatchRepository, movs repository.MovementRepository) error {
		ctx := context.Background()
		all, total, _ := movs.List(ctx, repository.MovementFilter{StockID: "s1"})
		assert.Equal(t, 5, total)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "más reciente primero")
		}

		released, total, _ := movs.List(ctx, repository.MovementFilter{Type: entity.MovementTypeReleased})
		assert.Equal(t, 2, total)
		assert.Len(t, released, 2)

		page, total, _ := movs.List(ctx, repository.MovementFilter{Limit: 2, Offset: 4})
		assert.Equal(t, 5, total)
		assert.Len(t, page, 1)
		assert.Equal(t, entity.MovementTypeInbound, page[0].Type)

		empty, _, _ := movs.List(ctx, repository.MovementFilter{Offset: 10})
		assert.Empty(t, empty)
		return nil
	})
}

func TestMovementListByStock_SoloDelStockEnSecuencia(t *testing.T) {
	s := NewStore()
	seed(t, s)
	err := s.Run(context.Background(), func(stocks repository.StockRepository, _ repository.BatchRepository, movs repository.MovementRepository) error {
		ctx := context.Background()
		for _, m := range []*entity.MovementRecord{
			{StockID: "s2", BatchNumber: "X1", Type: entity.MovementTypeInbound, Quantity: decimal.NewFromInt(3), CreatedAt: t0},
			{StockID: "s1", BatchNumber: "B2", Type: entity.MovementTypeInbound, Quantity: decimal.NewFromInt(4), CreatedAt: t0},
			{StockID: "s1", BatchNumber: "B1", Type: entity.MovementTypeReserved, Quantity: decimal.NewFromInt(1), CreatedAt: t0},
		} {
			if err := movs.Append(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	_ = s.View(context.Background(), func(_ repository.StockRepository, _ repository.BatchRepository, movs repository.MovementRepository) error {
		ms, err := movs.ListByStock(context.Background(), "s1")
		require.NoError(t, err)
		require.Len(t, ms, 3)
		for i, m := range ms {
			assert.Equal(t, "s1", m.StockID)
			if i > 0 {
				assert.Greater(t, m.Sequence, ms[i-1].Sequence)
			}
		}
		ms[0].Quantity = decimal.NewFromInt(999)

		again, _ := movs.ListByStock(context.Background(), "s1")
		assert.True(t, again[0].Quantity.Equal(decimal.NewFromInt(10)), "devuelve copias")

		none, _ := movs.ListByStock(context.Background(), "otro")
		assert.Empty(t, none)
		return nil
	})
}

func TestViewConcurrenteConRun(t *testing.T) {
	s := NewStore()
	seed(t, s)
	var (
		wg      sync.WaitGroup
		writers sync.Mutex // hace las veces del StockLocker
	)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			writers.Lock()
			defer writers.Unlock()
			_ = s.Run(context.Background(), func(stocks repository.StockRepository, batches repository.BatchRepository, _ repository.MovementRepository) error {
				ctx := context.Background()
				st, _ := stocks.GetForUpdate(ctx, "s1")
				b, _ := batches.Get(ctx, "B1")
				st.TotalQuantity = st.TotalQuantity.Add(decimal.NewFromInt(1))
				b.Quantity = b.Quantity.Add(decimal.NewFromInt(1))
				_ = stocks.Upsert(ctx, st)
				return batches.Upsert(ctx, b)
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.View(context.Background(), func(stocks repository.StockRepository, batches repository.BatchRepository, _ repository.MovementRepository) error {
				st, _ := stocks.Get(context.Background(), "s1")
				b, _ := batches.Get(context.Background(), "B1")
				assert.True(t, st.TotalQuantity.Equal(b.Quantity), "nunca se observa una confirmación a medias")
				return nil
			})
		}()
	}
	wg.Wait()
}
