package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// DefaultCategory se asigna cuando el producto llega sin categoría.
const DefaultCategory = "Sin Categoría"

// Product representa un producto del catálogo.
// Stock es el saldo actual: solo lo modifica el motor de movimientos (ledger), nunca el CRUD.
type Product struct {
	ID          int64
	Name        string // único
	Description string
	Price       decimal.Decimal // precio de venta, > 0
	Stock       int64           // saldo actual, siempre >= 0
	MinStock    *int64          // umbral de stock mínimo; nil = sin umbral
	Category    string
	ImageURL    string
	CreatedBy   int64 // UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock informa si el saldo está en o por debajo del mínimo.
// Sin MinStock configurado el producto nunca se considera en stock bajo.
func (p *Product) IsLowStock() bool {
	return p.MinStock != nil && p.Stock <= *p.MinStock
}

// IsOutOfStock informa si el saldo es cero.
func (p *Product) IsOutOfStock() bool {
	return p.Stock == 0
}

// NormalizeProductName recorta espacios y lleva el nombre a NFC, para que la unicidad
// no dependa de cómo el cliente compuso los acentos.
func NormalizeProductName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NormalizeCategory aplica la categoría por defecto cuando viene vacía.
func NormalizeCategory(category string) string {
	c := norm.NFC.String(strings.TrimSpace(category))
	if c == "" {
		return DefaultCategory
	}
	return c
}
