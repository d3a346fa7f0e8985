package repository

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// MovementFilter filtros de consulta del historial. Type nil = todos los tipos.
type MovementFilter struct {
	Type  *entity.MovementType
	Limit int
}

// StockMovementRepository define el puerto de persistencia para el historial de movimientos.
// Es de solo inserción: no existen Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// FindByIdempotencyKey devuelve (nil, nil) si la clave no se usó.
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error)
	// ListByProduct devuelve los movimientos más recientes primero.
	ListByProduct(ctx context.Context, productID int64, filter MovementFilter) ([]*entity.StockMovement, error)
	// List devuelve movimientos de todos los productos, más recientes primero.
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// History devuelve el historial completo del producto en orden de creación (para replay).
	History(ctx context.Context, productID int64) ([]*entity.StockMovement, error)
}
