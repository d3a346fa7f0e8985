package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Stock es el saldo inicial (movimiento INITIAL).
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price" validate:"required,gt=0"`
	Stock       int64           `json:"stock" validate:"min=0"`
	MinStock    *int64          `json:"min_stock" validate:"omitempty,min=0"`
	Category    string          `json:"category" validate:"max=100"`
	ImageURL    string          `json:"image_url" validate:"omitempty,max=2048"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Stock: solo vía movimientos).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitempty,max=2000"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	MinStock      *int64           `json:"min_stock" validate:"omitempty,min=0"`
	ClearMinStock bool             `json:"clear_min_stock"` // true = quitar el umbral
	Category      *string          `json:"category" validate:"omitempty,max=100"`
	ImageURL      *string          `json:"image_url" validate:"omitempty,max=2048"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	MinStock    *int64          `json:"min_stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	LowStock    bool            `json:"low_stock"`
	CreatedBy   int64           `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductMessageResponse respuesta de escritura: mensaje + producto resultante.
type ProductMessageResponse struct {
	Message string          `json:"message"`
	Product ProductResponse `json:"product"`
}

// ProductPeriodQuery rango de fechas de creación (YYYY-MM-DD, ambos inclusive).
type ProductPeriodQuery struct {
	Start string `query:"start" validate:"required,datetime=2006-01-02"`
	End   string `query:"end" validate:"required,datetime=2006-01-02"`
}
