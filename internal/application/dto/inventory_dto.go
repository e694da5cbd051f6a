package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterStockRequest body para POST /api/stocks.
type RegisterStockRequest struct {
	ProductID    string          `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	LocationID   string          `json:"location_id"`
	LocationName string          `json:"location_name"`
	MinimumLevel decimal.Decimal `json:"minimum_level"`
	MaximumLevel decimal.Decimal `json:"maximum_level"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// UpdateStockLevelsRequest body para PUT /api/stocks/:id/levels.
type UpdateStockLevelsRequest struct {
	MinimumLevel decimal.Decimal `json:"minimum_level"`
	MaximumLevel decimal.Decimal `json:"maximum_level"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// CreateBatchRequest body para POST /api/stocks/:id/batches.
type CreateBatchRequest struct {
	BatchNumber    string            `json:"batch_number,omitempty"`
	Quantity       decimal.Decimal   `json:"quantity"`
	ProductionDate *time.Time        `json:"production_date,omitempty"`
	ExpirationDate *time.Time        `json:"expiration_date,omitempty"`
	Supplier       string            `json:"supplier"`
	Cost           decimal.Decimal   `json:"cost"`
	Location       string            `json:"location"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ReserveRequest body para POST /api/stocks/:id/reservations.
type ReserveRequest struct {
	Quantity   decimal.Decimal `json:"quantity"`
	OrderID    string          `json:"order_id"`
	PreferFEFO bool            `json:"prefer_fefo"`
}

// BatchQuantityRequest body para consumir o liberar cantidad de un lote.
type BatchQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	OrderID  string          `json:"order_id,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// ExpireBatchRequest body opcional para la baja por vencimiento.
type ExpireBatchRequest struct {
	Reason string `json:"reason,omitempty"`
}

// StockDTO respuesta de stock.
type StockDTO struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	ProductCode       string          `json:"product_code"`
	LocationID        string          `json:"location_id"`
	LocationName      string          `json:"location_name"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	MinimumLevel      decimal.Decimal `json:"minimum_level"`
	MaximumLevel      decimal.Decimal `json:"maximum_level"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BatchDTO respuesta de lote con su estado efectivo.
type BatchDTO struct {
	BatchNumber         string            `json:"batch_number"`
	StockID             string            `json:"stock_id"`
	ProductCode         string            `json:"product_code"`
	Quantity            decimal.Decimal   `json:"quantity"`
	AvailableQuantity   decimal.Decimal   `json:"available_quantity"`
	ReservedQuantity    decimal.Decimal   `json:"reserved_quantity"`
	ProductionDate      time.Time         `json:"production_date"`
	ExpirationDate      *time.Time        `json:"expiration_date,omitempty"`
	Supplier            string            `json:"supplier"`
	Cost                decimal.Decimal   `json:"cost"`
	Location            string            `json:"location"`
	Status              string            `json:"status"`
	Urgency             string            `json:"urgency"`
	DaysUntilExpiration *int              `json:"days_until_expiration"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// AllocationDTO línea del plan de reserva.
type AllocationDTO struct {
	BatchNumber    string          `json:"batch_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	Location       string          `json:"location"`
}

// ReservationResponse resultado de una reserva.
type ReservationResponse struct {
	StockID     string          `json:"stock_id"`
	OrderID     string          `json:"order_id"`
	Policy      string          `json:"policy"`
	Allocations []AllocationDTO `json:"allocations"`
	Stock       StockDTO        `json:"stock"`
	Movements   []MovementDTO   `json:"movements"`
}

// BatchOperationResponse resultado de consumo, liberación, alta o baja de un lote.
type BatchOperationResponse struct {
	Batch    BatchDTO    `json:"batch"`
	Stock    StockDTO    `json:"stock"`
	Movement MovementDTO `json:"movement"`
}

// DataResponse sobre de respuesta de las operaciones.
type DataResponse struct {
	Data        interface{} `json:"data"`
	CompletedAt time.Time   `json:"completed_at"`
}
