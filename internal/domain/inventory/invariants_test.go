package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestFitsScale(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"10", true},
		{"12.5", true},
		{"0.0001", true},
		{"1.50000", true}, // ceros de relleno no cuentan
		{"0.00001", false},
		{"3.14159", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FitsScale(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestCheckStock(t *testing.T) {
	stock := &entity.StockRecord{ID: "s", TotalQuantity: dec(100), AvailableQuantity: dec(70), ReservedQuantity: dec(30)}
	batches := []*entity.Batch{
		{BatchNumber: "a", Quantity: dec(60), AvailableQuantity: dec(40), ReservedQuantity: dec(20)},
		{BatchNumber: "b", Quantity: dec(40), AvailableQuantity: dec(30), ReservedQuantity: dec(10)},
	}
	assert.NoError(t, CheckStock(stock, batches))

	// Stock que no coincide con sus lotes
	bad := stock.Clone()
	bad.AvailableQuantity, bad.ReservedQuantity = dec(71), dec(29)
	assert.Error(t, CheckStock(bad, batches))

	// Lote descuadrado
	batches[1].AvailableQuantity = dec(31)
	assert.Error(t, CheckStock(stock, batches))

	// Negativos
	neg := &entity.Batch{BatchNumber: "n", Quantity: dec(0), AvailableQuantity: dec(5), ReservedQuantity: dec(-5)}
	assert.Error(t, CheckBatch(neg))
}

func TestReplayQuantity(t *testing.T) {
	ms := []*entity.MovementRecord{
		{Type: entity.MovementTypeInbound, Quantity: dec(100)},
		{Type: entity.MovementTypeReserved, Quantity: dec(60)},
		{Type: entity.MovementTypeReleased, Quantity: dec(10)},
		{Type: entity.MovementTypeConsumed, Quantity: dec(50)},
		{Type: entity.MovementTypeExpire, Quantity: dec(20)},
	}
	assert.True(t, ReplayQuantity(ms).Equal(dec(30)))
}

func TestWeightedAverageCost(t *testing.T) {
	batches := []*entity.Batch{
		{Quantity: dec(10), Cost: dec(100)},
		{Quantity: dec(30), Cost: dec(200)},
		{Quantity: dec(0), Cost: dec(999)},
	}
	// (10*100 + 30*200) / 40 = 175
	assert.True(t, WeightedAverageCost(batches).Equal(dec(175)))
	assert.True(t, WeightedAverageCost(nil).IsZero())
}

func TestCostCalculator(t *testing.T) {
	got := CostCalculator(dec(10), dec(100), dec(10), dec(200))
	assert.True(t, got.Equal(dec(150)))
	assert.True(t, CostCalculator(dec(0), dec(0), dec(0), dec(5)).IsZero())
}
