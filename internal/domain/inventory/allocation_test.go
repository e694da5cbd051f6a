package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

func batch(number string, avail int64, created time.Time, exp *time.Time) *entity.Batch {
	q := decimal.NewFromInt(avail)
	return &entity.Batch{BatchNumber: number, Quantity: q, AvailableQuantity: q, CreatedAt: created, ExpirationDate: exp}
}

func numbers(bs []*entity.Batch) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.BatchNumber
	}
	return out
}

func TestSortForAllocation_FEFO(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bs := []*entity.Batch{
		batch("SIN", 10, t0, nil),
		batch("MARZO", 10, t0.Add(time.Hour), ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))),
		batch("DIC", 10, t0.Add(2*time.Hour), ptr(time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC))),
	}
	SortForAllocation(bs, PolicyFEFO)
	assert.Equal(t, []string{"DIC", "MARZO", "SIN"}, numbers(bs))
}

func TestSortForAllocation_EmpatesPorAlta(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := ptr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	bs := []*entity.Batch{
		batch("B", 10, t0.Add(time.Hour), exp),
		batch("A", 10, t0, exp),
		batch("C", 10, t0.Add(time.Hour), exp),
	}
	SortForAllocation(bs, PolicyFEFO)
	assert.Equal(t, []string{"A", "B", "C"}, numbers(bs), "mismo vencimiento: CreatedAt y luego número")

	SortForAllocation(bs, PolicyFIFO)
	assert.Equal(t, []string{"A", "B", "C"}, numbers(bs))
}

func TestSortForAllocation_FIFOIgnoraVencimiento(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bs := []*entity.Batch{
		batch("NUEVO", 10, t0.Add(time.Hour), ptr(t0.AddDate(0, 1, 0))),
		batch("VIEJO", 10, t0, ptr(t0.AddDate(1, 0, 0))),
	}
	SortForAllocation(bs, PolicyFIFO)
	assert.Equal(t, []string{"VIEJO", "NUEVO"}, numbers(bs))
}

func TestPlanAllocation(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bs := []*entity.Batch{batch("B1", 250, t0, nil), batch("B2", 300, t0, nil)}

	plan, remaining := PlanAllocation(bs, decimal.NewFromInt(300))
	require.Len(t, plan, 2)
	assert.True(t, plan[0].Quantity.Equal(decimal.NewFromInt(250)))
	assert.True(t, plan[1].Quantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, remaining.IsZero())

	plan, remaining = PlanAllocation(bs, decimal.NewFromInt(600))
	assert.Len(t, plan, 2)
	assert.True(t, remaining.Equal(decimal.NewFromInt(50)))

	// Los candidatos no se modifican al planificar.
	assert.True(t, bs[0].AvailableQuantity.Equal(decimal.NewFromInt(250)))
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, PolicyFEFO, PolicyFor(true))
	assert.Equal(t, PolicyFIFO, PolicyFor(false))
}
