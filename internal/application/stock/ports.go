package stock

import (
	"context"

	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el ledger.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// SummaryCache caché opcional del resumen de stock.
//
// Get devuelve la entrada (nil si no hay) y la generación vigente. Invalidate avanza la generación;
// Set descarta el resumen si la generación ya no es la leída antes de calcularlo, así un resumen
// calculado antes de una escritura no queda guardado después de su invalidación.
type SummaryCache interface {
	Get(ctx context.Context) (*entity.StockSummary, int64, error)
	Set(ctx context.Context, summary *entity.StockSummary, generation int64) error
	Invalidate(ctx context.Context) error
}
