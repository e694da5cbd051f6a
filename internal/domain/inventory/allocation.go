package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// Policy política de selección de lotes para una reserva.
type Policy string

const (
	PolicyFEFO Policy = "FEFO"
	PolicyFIFO Policy = "FIFO"
)

// PolicyFor traduce el flag preferFEFO del contrato externo.
func PolicyFor(preferFEFO bool) Policy {
	if preferFEFO {
		return PolicyFEFO
	}
	return PolicyFIFO
}

// Allocation una línea del plan de asignación visible para el llamador.
type Allocation struct {
	BatchNumber    string          `json:"batch_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	Location       string          `json:"location"`
}

// SortForAllocation ordena los lotes in-place según la política.
//
// FEFO: vencimiento ascendente; sin vencimiento van al final, entre ellos por CreatedAt.
// Mismo vencimiento: CreatedAt ascendente. FIFO: CreatedAt ascendente.
// Empate final: BatchNumber ascendente.
func SortForAllocation(batches []*entity.Batch, policy Policy) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if policy == PolicyFEFO {
			switch {
			case a.ExpirationDate != nil && b.ExpirationDate == nil:
				return true
			case a.ExpirationDate == nil && b.ExpirationDate != nil:
				return false
			case a.ExpirationDate != nil && b.ExpirationDate != nil && !a.ExpirationDate.Equal(*b.ExpirationDate):
				return a.ExpirationDate.Before(*b.ExpirationDate)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.BatchNumber < b.BatchNumber
	})
}

// PlanAllocation recorre los candidatos ya ordenados y toma min(restante, disponible) de cada uno.
// Devuelve el plan y lo que quedó sin cubrir (cero si alcanzó).
func PlanAllocation(sorted []*entity.Batch, quantity decimal.Decimal) ([]Allocation, decimal.Decimal) {
	remaining := quantity
	plan := make([]Allocation, 0, 2)
	for _, b := range sorted {
		if !remaining.IsPositive() {
			break
		}
		if !b.AvailableQuantity.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, b.AvailableQuantity)
		plan = append(plan, Allocation{
			BatchNumber:    b.BatchNumber,
			Quantity:       take,
			ExpirationDate: b.ExpirationDate,
			Location:       b.Location,
		})
		remaining = remaining.Sub(take)
	}
	return plan, remaining
}
