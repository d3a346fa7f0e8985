package repository

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// StockReportRepository consultas de lectura para reportes de stock.
// Las implementaciones son read-only y no toman bloqueos.
type StockReportRepository interface {
	// ListLowStock productos con MinStock definido y stock <= MinStock.
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	// Summary agrega todo el catálogo en una sola lectura.
	Summary(ctx context.Context) (*entity.StockSummary, error)
}
