package entity

import "github.com/shopspring/decimal"

// StockSummary agregado del catálogo completo.
type StockSummary struct {
	TotalProducts   int64
	LowStockCount   int64
	OutOfStockCount int64
	TotalValue      decimal.Decimal // Σ stock * price
}
