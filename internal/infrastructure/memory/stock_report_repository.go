package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-api/internal/domain/stock"
)

var _ repository.StockReportRepository = (*StockReportRepository)(nil)

// StockReportRepository reportes sobre el catálogo en memoria.
type StockReportRepository struct {
	s *Store
}

func (r *StockReportRepository) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if p.IsLowStock() {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stock == out[j].Stock {
			return out[i].ID < out[j].ID
		}
		return out[i].Stock < out[j].Stock
	})
	return out, nil
}

func (r *StockReportRepository) Summary(ctx context.Context) (*entity.StockSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := &entity.StockSummary{TotalValue: decimal.Zero}
	for _, p := range r.s.products {
		sum.TotalProducts++
		if p.IsLowStock() {
			sum.LowStockCount++
		}
		if p.IsOutOfStock() {
			sum.OutOfStockCount++
		}
		sum.TotalValue = sum.TotalValue.Add(domainstock.InventoryValue(p.Stock, p.Price))
	}
	return sum, nil
}
