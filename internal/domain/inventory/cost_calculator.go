package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// WeightedAverageCost costo unitario promedio de lo que queda en los lotes,
// acumulando lote por lote con CostCalculator.
func WeightedAverageCost(batches []*entity.Batch) decimal.Decimal {
	qty, cost := decimal.Zero, decimal.Zero
	for _, b := range batches {
		if !b.Quantity.IsPositive() {
			continue
		}
		cost = CostCalculator(qty, cost, b.Quantity, b.Cost)
		qty = qty.Add(b.Quantity)
	}
	return cost.Round(4)
}
