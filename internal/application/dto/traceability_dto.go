package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementDTO movimiento del libro tal como se expone.
type MovementDTO struct {
	ID          string          `json:"id"`
	Sequence    int64           `json:"sequence"`
	StockID     string          `json:"stock_id"`
	BatchNumber string          `json:"batch_number"`
	Type        string          `json:"movement_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	OrderID     string          `json:"order_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

// BatchTraceabilityReport trazabilidad de un lote: lote + movimientos + métricas.
type BatchTraceabilityReport struct {
	Batch                 BatchDTO        `json:"batch"`
	Movements             []MovementDTO   `json:"movements"`
	TotalInbound          decimal.Decimal `json:"total_inbound"`
	TotalOutbound         decimal.Decimal `json:"total_outbound"`         // CONSUMED + RESERVED
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"` // outbound / inbound * 100
	DaysInStock           int             `json:"days_in_stock"`
	DaysUntilExpiration   *int            `json:"days_until_expiration"`
	TurnoverRate          decimal.Decimal `json:"turnover_rate"` // outbound / días en stock
	GeneratedAt           time.Time       `json:"generated_at"`
}

// ExpiringBatchDTO lote próximo a vencer.
type ExpiringBatchDTO struct {
	BatchNumber         string          `json:"batch_number"`
	StockID             string          `json:"stock_id"`
	ProductCode         string          `json:"product_code"`
	Location            string          `json:"location"`
	Quantity            decimal.Decimal `json:"quantity"`
	AvailableQuantity   decimal.Decimal `json:"available_quantity"`
	ExpirationDate      time.Time       `json:"expiration_date"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
	Urgency             string          `json:"urgency"`
}

// ExpiringBatchesReport listado de vencimientos con conteo por urgencia.
type ExpiringBatchesReport struct {
	Days        int                `json:"days"`
	Batches     []ExpiringBatchDTO `json:"batches"`
	Summary     map[string]int     `json:"summary"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// MovementHistoryRequest filtros de GET /api/movements.
type MovementHistoryRequest struct {
	StockID     string `query:"stock_id"`
	BatchNumber string `query:"batch_number"`
	Type        string `query:"type"`
	PageRequest
}

// MovementHistoryResponse página de movimientos, más reciente primero.
type MovementHistoryResponse struct {
	Movements []MovementDTO `json:"movements"`
	Page      PageResponse  `json:"page"`
}

// StockBatchRow fila por lote en la trazabilidad de un stock.
type StockBatchRow struct {
	BatchNumber           string          `json:"batch_number"`
	Status                string          `json:"status"`
	Quantity              decimal.Decimal `json:"quantity"`
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"`
	DaysUntilExpiration   *int            `json:"days_until_expiration"`
}

// StockTraceabilityReport analítica por stock.
type StockTraceabilityReport struct {
	Stock               StockDTO        `json:"stock"`
	BatchCountByStatus  map[string]int  `json:"batch_count_by_status"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	InventoryValue      decimal.Decimal `json:"inventory_value"`
	BelowReorderPoint   bool            `json:"below_reorder_point"`
	Batches             []StockBatchRow `json:"batches"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un stock bajo su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	StockID            string          `json:"stock_id"`
	ProductID          string          `json:"product_id"`
	ProductCode        string          `json:"product_code"`
	LocationID         string          `json:"location_id"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // máximo, o ReorderPoint * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	ExpiringQuantity   decimal.Decimal `json:"expiring_quantity"`
	Priority           int             `json:"priority"` // 1 = más urgente
}
