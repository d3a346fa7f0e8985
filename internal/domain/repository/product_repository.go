package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las lecturas devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	// Create asigna ID y persiste el producto. ErrDuplicate si el nombre ya existe.
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetByName(ctx context.Context, name string) (*entity.Product, error)
	// GetForUpdate lee el producto y bloquea su fila hasta el fin de la transacción (SELECT FOR UPDATE).
	// Solo tiene sentido dentro de TxRunner.Run.
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// SetStock escribe el saldo. Uso exclusivo del ledger.
	SetStock(ctx context.Context, id, stock int64, updatedAt time.Time) error
	// Update actualiza metadatos. No toca Stock (se maneja vía movimientos).
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*entity.Product, error)
	Count(ctx context.Context) (int64, error)
	ListByCategory(ctx context.Context, category string) ([]*entity.Product, error)
	ListByPeriod(ctx context.Context, start, end time.Time) ([]*entity.Product, error)
}
