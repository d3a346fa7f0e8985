package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockChangeRequest body de POST /api/stock/add|remove/:productId.
type StockChangeRequest struct {
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"max=500"`
}

// StockAdjustRequest body de POST /api/stock/adjust/:productId. NewStock es el saldo final.
type StockAdjustRequest struct {
	NewStock *int64 `json:"new_stock" validate:"required,min=0"`
	Reason   string `json:"reason" validate:"max=500"`
}

// MovementQuery filtros de listados de movimientos.
type MovementQuery struct {
	Type  string `query:"type" validate:"omitempty,oneof=INITIAL IN OUT ADJUSTMENT initial in out adjustment"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

// StockMovementResponse salida de un movimiento.
type StockMovementResponse struct {
	ID              int64     `json:"id"`
	ProductID       *int64    `json:"product_id"` // null si el producto fue eliminado
	ProductName     string    `json:"product_name"`
	ProductCategory string    `json:"product_category,omitempty"`
	Type            string    `json:"type"`
	Quantity        int64     `json:"quantity"`
	PreviousStock   int64     `json:"previous_stock"`
	NewStock        int64     `json:"new_stock"`
	UserID          *int64    `json:"user_id"`
	UserName        string    `json:"user_name,omitempty"`
	UserEmail       string    `json:"user_email,omitempty"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

// StockOperationResponse resultado de add/remove/adjust.
type StockOperationResponse struct {
	Message  string                `json:"message"`
	Product  ProductResponse       `json:"product"`
	Movement StockMovementResponse `json:"movement"`
	Replayed bool                  `json:"replayed,omitempty"`
}

// StockSummaryResponse totales del catálogo.
type StockSummaryResponse struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	TotalValue      decimal.Decimal `json:"total_value"`
}

// StockVerificationResponse resultado de reproducir el historial de un producto.
type StockVerificationResponse struct {
	ProductID     int64 `json:"product_id"`
	Stock         int64 `json:"stock"`
	ReplayedStock int64 `json:"replayed_stock"`
	Consistent    bool  `json:"consistent"`
	MovementCount int   `json:"movement_count"`
}
