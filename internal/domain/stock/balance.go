package stock

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// AddBalance suma una entrada al saldo actual. ErrInvalidInput si el saldo resultante no cabe en int64.
func AddBalance(current, quantity int64) (int64, error) {
	if quantity < 0 || quantity > math.MaxInt64-current {
		return current, domain.ErrInvalidInput
	}
	return current + quantity, nil
}

// RemoveBalance resta una salida. Falla con ErrInsufficientStock si el saldo quedaría negativo.
func RemoveBalance(current, quantity int64) (int64, error) {
	if quantity > current {
		return current, domain.ErrInsufficientStock
	}
	return current - quantity, nil
}

// AdjustmentDelta magnitud del ajuste: |nuevo - actual|.
func AdjustmentDelta(current, target int64) int64 {
	if target >= current {
		return target - current
	}
	return current - target
}

// DefaultAdjustmentReason motivo que se registra cuando el ajuste llega sin motivo.
func DefaultAdjustmentReason(current, target int64) string {
	return fmt.Sprintf("ajuste de stock de %d a %d", current, target)
}

// InventoryValue valor del inventario de un producto: stock * precio.
func InventoryValue(stock int64, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(stock).Mul(price)
}

// Replay reconstruye el saldo recorriendo el historial en orden de creación:
// INITIAL fija la base, IN suma, OUT resta y ADJUSTMENT fija el saldo registrado (NewStock).
// Devuelve error ante el primer movimiento que no cuadra con el saldo acumulado.
func Replay(movements []*entity.StockMovement) (int64, error) {
	var balance int64
	for i, m := range movements {
		switch m.Type {
		case entity.MovementTypeINITIAL:
			if i != 0 {
				return balance, fmt.Errorf("movimiento %d: INITIAL fuera de la primera posición", m.ID)
			}
			balance = m.Quantity
		case entity.MovementTypeIN:
			next, err := AddBalance(balance, m.Quantity)
			if err != nil {
				return balance, fmt.Errorf("movimiento %d: %w", m.ID, err)
			}
			balance = next
		case entity.MovementTypeOUT:
			next, err := RemoveBalance(balance, m.Quantity)
			if err != nil {
				return balance, fmt.Errorf("movimiento %d: %w", m.ID, err)
			}
			balance = next
		case entity.MovementTypeADJUSTMENT:
			if m.NewStock < 0 || AdjustmentDelta(balance, m.NewStock) != m.Quantity {
				return balance, fmt.Errorf("movimiento %d: ajuste de %d a %d no coincide con cantidad %d",
					m.ID, balance, m.NewStock, m.Quantity)
			}
			balance = m.NewStock
		default:
			return balance, fmt.Errorf("movimiento %d: tipo %q inválido", m.ID, m.Type)
		}
	}
	return balance, nil
}
