package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

// ProductUseCase aplica reglas de negocio para productos. Nunca escribe Stock fuera del alta:
// el saldo inicial se registra como movimiento INITIAL en la misma transacción que el producto.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner stock.TxRunner
	ledger   *stock.LedgerUseCase
	cache    stock.SummaryCache
}

// NewProductUseCase construye el caso de uso. cache puede ser nil.
func NewProductUseCase(repo repository.ProductRepository, txRunner stock.TxRunner, ledger *stock.LedgerUseCase, cache stock.SummaryCache) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner, ledger: ledger, cache: cache}
}

// Create crea el producto y su movimiento INITIAL de forma atómica.
// ErrDuplicate si ya existe un producto con el mismo nombre.
func (uc *ProductUseCase) Create(ctx context.Context, actor Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := entity.NormalizeProductName(in.Name)
	if name == "" || !in.Price.IsPositive() || in.Stock < 0 || (in.MinStock != nil && *in.MinStock < 0) {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	product := &entity.Product{
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		MinStock:    in.MinStock,
		Category:    entity.NormalizeCategory(in.Category),
		ImageURL:    in.ImageURL,
		CreatedBy:   actor.UserID,
	}
	err = uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		_, err := uc.ledger.CreateInitialStockInTx(ctx, movRepo, product, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.invalidateSummary(ctx)
	resp := dto.ToProductResponse(product)
	return &resp, nil
}

// List lista todos los productos, más recientes primero.
func (uc *ProductUseCase) List(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToProductResponses(list), nil
}

// Count cantidad de productos.
func (uc *ProductUseCase) Count(ctx context.Context) (int64, error) {
	return uc.repo.Count(ctx)
}

// GetByID obtiene un producto. ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToProductResponse(p)
	return &resp, nil
}

// FindByCategory búsqueda parcial por categoría, sin distinguir mayúsculas.
func (uc *ProductUseCase) FindByCategory(ctx context.Context, category string) ([]dto.ProductResponse, error) {
	category = entity.NormalizeProductName(category)
	if category == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return dto.ToProductResponses(list), nil
}

// FindByPeriod productos creados entre start y end. Ambas fechas se incluyen completas.
func (uc *ProductUseCase) FindByPeriod(ctx context.Context, start, end time.Time) ([]dto.ProductResponse, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidInput
	}
	endOfDay := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	list, err := uc.repo.ListByPeriod(ctx, start, endOfDay)
	if err != nil {
		return nil, err
	}
	return dto.ToProductResponses(list), nil
}

// Update actualiza metadatos. El saldo no se toca: solo cambia vía movimientos de stock.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := entity.NormalizeProductName(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		if name != p.Name {
			other, err := uc.repo.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.ErrDuplicate
			}
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		p.Price = *in.Price
	}
	switch {
	case in.ClearMinStock:
		p.MinStock = nil
	case in.MinStock != nil:
		if *in.MinStock < 0 {
			return nil, domain.ErrInvalidInput
		}
		p.MinStock = in.MinStock
	}
	if in.Category != nil {
		p.Category = entity.NormalizeCategory(*in.Category)
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.invalidateSummary(ctx)
	return uc.GetByID(ctx, id)
}

// Delete elimina el producto. Su historial de movimientos se conserva.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidateSummary(ctx)
	return nil
}

func (uc *ProductUseCase) get(ctx context.Context, id int64) (*entity.Product, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *ProductUseCase) invalidateSummary(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar el resumen de stock en caché")
	}
}
