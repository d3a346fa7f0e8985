package postgres

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.StockReportRepository = (*StockReportRepo)(nil)

// StockReportRepo consultas agregadas de stock. Solo lectura, sin bloqueos.
type StockReportRepo struct {
	q Querier
}

// NewStockReportRepository construye el repositorio de reportes.
func NewStockReportRepository(q Querier) *StockReportRepo {
	return &StockReportRepo{q: q}
}

// ListLowStock productos con mínimo definido y stock <= mínimo, los más críticos primero.
func (r *StockReportRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE min_stock IS NOT NULL AND stock <= min_stock
		ORDER BY stock ASC, id ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("list low stock", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr("scan product", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list low stock", err)
	}
	return list, nil
}

// Summary totales del catálogo en una sola consulta (snapshot consistente).
func (r *StockReportRepo) Summary(ctx context.Context) (*entity.StockSummary, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE min_stock IS NOT NULL AND stock <= min_stock),
			COUNT(*) FILTER (WHERE stock = 0),
			COALESCE(SUM(stock * price), 0)
		FROM products`
	var s entity.StockSummary
	if err := r.q.QueryRow(ctx, query).Scan(&s.TotalProducts, &s.LowStockCount, &s.OutOfStockCount, &s.TotalValue); err != nil {
		return nil, wrapErr("stock summary", err)
	}
	return &s, nil
}
