package stock

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-api/internal/domain/stock"
)

const (
	DefaultProductMovementsLimit = 50
	DefaultAllMovementsLimit     = 100
	MaxMovementsLimit            = 500
)

// ReportingUseCase consultas de solo lectura sobre stock e historial. No toma bloqueos.
type ReportingUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	reportRepo  repository.StockReportRepository
	cache       SummaryCache
}

// NewReportingUseCase construye el caso de uso. cache puede ser nil.
func NewReportingUseCase(
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	reportRepo repository.StockReportRepository,
	cache SummaryCache,
) *ReportingUseCase {
	return &ReportingUseCase{
		productRepo: productRepo,
		movRepo:     movRepo,
		reportRepo:  reportRepo,
		cache:       cache,
	}
}

// MovementQuery filtros de FindMovementsByProduct y FindAllMovements.
// Type vacío = todos; Limit 0 = límite por defecto de cada consulta.
type MovementQuery struct {
	Type  string
	Limit int
}

// VerificationResult compara el saldo almacenado con el que resulta de reproducir el historial.
type VerificationResult struct {
	ProductID     int64
	Stock         int64
	ReplayedStock int64
	Consistent    bool
	MovementCount int
}

// FindLowStockProducts productos con mínimo definido y stock <= mínimo.
func (uc *ReportingUseCase) FindLowStockProducts(ctx context.Context) ([]*entity.Product, error) {
	return uc.reportRepo.ListLowStock(ctx)
}

// FindMovementsByProduct historial del producto, más reciente primero.
// ErrNotFound si el producto no existe.
func (uc *ReportingUseCase) FindMovementsByProduct(ctx context.Context, productID int64, q MovementQuery) ([]*entity.StockMovement, error) {
	if productID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	filter, err := buildFilter(q, DefaultProductMovementsLimit)
	if err != nil {
		return nil, err
	}
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return uc.movRepo.ListByProduct(ctx, productID, filter)
}

// FindAllMovements movimientos de todos los productos, más reciente primero.
func (uc *ReportingUseCase) FindAllMovements(ctx context.Context, q MovementQuery) ([]*entity.StockMovement, error) {
	filter, err := buildFilter(q, DefaultAllMovementsLimit)
	if err != nil {
		return nil, err
	}
	return uc.movRepo.List(ctx, filter)
}

// GetStockSummary agregado del catálogo. Se sirve desde caché cuando está disponible;
// cualquier fallo del caché se degrada a la consulta directa.
func (uc *ReportingUseCase) GetStockSummary(ctx context.Context) (*entity.StockSummary, error) {
	var (
		generation int64
		cacheable  bool
	)
	if uc.cache != nil {
		cached, gen, err := uc.cache.Get(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("caché de resumen no disponible")
		case cached != nil:
			return cached, nil
		default:
			generation, cacheable = gen, true
		}
	}

	summary, err := uc.reportRepo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := uc.cache.Set(ctx, summary, generation); err != nil {
			log.Warn().Err(err).Msg("no se pudo guardar el resumen en caché")
		}
	}
	return summary, nil
}

// VerifyProduct reproduce el historial del producto y lo compara con el saldo almacenado.
func (uc *ReportingUseCase) VerifyProduct(ctx context.Context, productID int64) (*VerificationResult, error) {
	if productID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	ctx, span := tracer.Start(ctx, "stock.reporting.verify", trace.WithAttributes(
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	history, err := uc.movRepo.History(ctx, productID)
	if err != nil {
		return nil, err
	}

	res := &VerificationResult{ProductID: p.ID, Stock: p.Stock, MovementCount: len(history)}
	replayed, err := domainstock.Replay(history)
	res.ReplayedStock = replayed
	if err != nil {
		log.Warn().Err(err).Int64("product_id", p.ID).Msg("historial de stock inconsistente")
		return res, nil
	}
	res.Consistent = replayed == p.Stock
	if !res.Consistent {
		log.Warn().
			Int64("product_id", p.ID).
			Int64("stock", p.Stock).
			Int64("replayed", replayed).
			Msg("saldo almacenado no coincide con el historial")
	}
	span.SetAttributes(attribute.Bool("stock.consistent", res.Consistent))
	return res, nil
}

func buildFilter(q MovementQuery, defaultLimit int) (repository.MovementFilter, error) {
	filter := repository.MovementFilter{Limit: q.Limit}
	if filter.Limit == 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit < 1 || filter.Limit > MaxMovementsLimit {
		return filter, domain.ErrInvalidInput
	}
	if q.Type != "" {
		t, err := entity.ParseMovementType(q.Type)
		if err != nil {
			return filter, domain.ErrInvalidInput
		}
		filter.Type = &t
	}
	return filter, nil
}
