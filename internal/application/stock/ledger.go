package stock

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-api/internal/domain/stock"
)

const (
	maxReasonLength         = 500
	maxIdempotencyKeyLength = 128
)

var tracer = otel.Tracer("github.com/jhoicas/stock-api/internal/application/stock")

// LedgerUseCase es el único escritor de Product.Stock. Cada operación abre una transacción,
// bloquea la fila del producto (SELECT FOR UPDATE), valida contra el saldo recién leído,
// inserta el movimiento y escribe el saldo. Todo o nada.
//
// AddStock, RemoveStock y AdjustStock no son idempotentes: un reintento tras un fallo ambiguo
// puede aplicarse dos veces, salvo que el caller envíe IdempotencyKey.
type LedgerUseCase struct {
	txRunner TxRunner
	cache    SummaryCache
}

// NewLedgerUseCase construye el ledger. cache puede ser nil.
func NewLedgerUseCase(txRunner TxRunner, cache SummaryCache) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, cache: cache}
}

// MovementInput entrada de AddStock/RemoveStock/AdjustStock.
// En AdjustStock, Quantity es el saldo final deseado (absoluto).
type MovementInput struct {
	ProductID      int64
	Quantity       int64
	ActorID        int64
	Reason         string
	IdempotencyKey string
}

// MovementResult producto actualizado y movimiento registrado.
// Replayed es true cuando la IdempotencyKey ya había sido aplicada y no se repitió el efecto.
type MovementResult struct {
	Product  *entity.Product
	Movement *entity.StockMovement
	Replayed bool
}

// mutation calcula saldo final, cantidad a registrar y motivo a partir del saldo bloqueado.
type mutation func(current int64) (newStock, quantity int64, reason string, err error)

// AddStock registra una entrada (IN) y suma la cantidad al saldo.
func (uc *LedgerUseCase) AddStock(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.apply(ctx, entity.MovementTypeIN, in, func(current int64) (int64, int64, string, error) {
		next, err := domainstock.AddBalance(current, in.Quantity)
		if err != nil {
			return 0, 0, "", err
		}
		return next, in.Quantity, in.Reason, nil
	})
}

// RemoveStock registra una salida (OUT). Falla con ErrInsufficientStock si la cantidad supera
// el saldo leído dentro de la misma transacción.
func (uc *LedgerUseCase) RemoveStock(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.apply(ctx, entity.MovementTypeOUT, in, func(current int64) (int64, int64, string, error) {
		next, err := domainstock.RemoveBalance(current, in.Quantity)
		if err != nil {
			return 0, 0, "", err
		}
		return next, in.Quantity, in.Reason, nil
	})
}

// AdjustStock fija el saldo en in.Quantity. El movimiento registra la magnitud del cambio
// y, si no hay motivo, uno por defecto con el saldo anterior y el nuevo.
func (uc *LedgerUseCase) AdjustStock(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.apply(ctx, entity.MovementTypeADJUSTMENT, in, func(current int64) (int64, int64, string, error) {
		reason := in.Reason
		if reason == "" {
			reason = domainstock.DefaultAdjustmentReason(current, in.Quantity)
		}
		return in.Quantity, domainstock.AdjustmentDelta(current, in.Quantity), reason, nil
	})
}

// CreateInitialStockInTx registra el movimiento INITIAL de un producto recién creado, usando los
// repositorios de la transacción del caller (creación de producto). Solo establece el saldo:
// si el producto ya tiene INITIAL devuelve ErrConflict.
func (uc *LedgerUseCase) CreateInitialStockInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	product *entity.Product,
	actorID int64,
) (*entity.StockMovement, error) {
	if product == nil || product.ID <= 0 || product.Stock < 0 {
		return nil, domain.ErrInvalidInput
	}
	mov := &entity.StockMovement{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Type:          entity.MovementTypeINITIAL,
		Quantity:      product.Stock,
		PreviousStock: 0,
		NewStock:      product.Stock,
		UserID:        actorID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return mov, nil
}

func (uc *LedgerUseCase) apply(ctx context.Context, typ entity.MovementType, in MovementInput, mutate mutation) (*MovementResult, error) {
	ctx, span := tracer.Start(ctx, "stock.ledger."+typ.String(), trace.WithAttributes(
		attribute.Int64("product.id", in.ProductID),
		attribute.Int64("stock.quantity", in.Quantity),
		attribute.Bool("stock.idempotent", in.IdempotencyKey != ""),
	))
	defer span.End()

	var result *MovementResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		// Bloquea la fila del producto: las operaciones concurrentes sobre el mismo producto se serializan aquí.
		product, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}

		if in.IdempotencyKey != "" {
			prev, err := movRepo.FindByIdempotencyKey(ctx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				if !sameRequest(prev, product.ID, typ, in) {
					return domain.ErrConflict
				}
				result = &MovementResult{Product: product, Movement: prev, Replayed: true}
				return nil
			}
		}

		newStock, quantity, reason, err := mutate(product.Stock)
		if err != nil {
			return err
		}
		// CreatedAt lo asigna el almacenamiento: un único reloj para todo el historial.
		mov := &entity.StockMovement{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Type:           typ,
			Quantity:       quantity,
			PreviousStock:  product.Stock,
			NewStock:       newStock,
			UserID:         in.ActorID,
			Reason:         reason,
			IdempotencyKey: in.IdempotencyKey,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		if err := productRepo.SetStock(ctx, product.ID, newStock, mov.CreatedAt); err != nil {
			return err
		}
		product.Stock = newStock
		product.UpdatedAt = mov.CreatedAt
		result = &MovementResult{Product: product, Movement: mov}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Bool("stock.replayed", result.Replayed))
	if !result.Replayed {
		log.Debug().
			Int64("product_id", result.Product.ID).
			Str("type", typ.String()).
			Int64("quantity", result.Movement.Quantity).
			Int64("stock", result.Product.Stock).
			Int64("actor_id", in.ActorID).
			Msg("movimiento de stock registrado")
		invalidateSummary(ctx, uc.cache)
	}
	return result, nil
}

// sameRequest informa si el movimiento ya registrado con la clave corresponde a la misma petición.
// En AdjustStock se compara el saldo final pedido; en el resto, la cantidad.
func sameRequest(prev *entity.StockMovement, productID int64, typ entity.MovementType, in MovementInput) bool {
	if prev.ProductID != productID || prev.Type != typ {
		return false
	}
	if typ == entity.MovementTypeADJUSTMENT {
		return prev.NewStock == in.Quantity
	}
	return prev.Quantity == in.Quantity
}

func validateInput(in MovementInput) error {
	if in.ProductID <= 0 || in.ActorID <= 0 {
		return domain.ErrInvalidInput
	}
	if len(in.Reason) > maxReasonLength || len(in.IdempotencyKey) > maxIdempotencyKeyLength {
		return domain.ErrInvalidInput
	}
	return nil
}

// invalidateSummary descarta el resumen cacheado. Un fallo aquí no revierte el movimiento:
// el caché tiene TTL y solo se registra la advertencia.
func invalidateSummary(ctx context.Context, cache SummaryCache) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar el resumen de stock en caché")
	}
}
