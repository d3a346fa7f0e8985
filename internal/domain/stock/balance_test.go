package stock_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/stock"
)

func mov(id int64, t entity.MovementType, qty, newStock int64) *entity.StockMovement {
	return &entity.StockMovement{ID: id, Type: t, Quantity: qty, NewStock: newStock}
}

func TestRemoveBalance_NoPermiteNegativo(t *testing.T) {
	next, err := stock.RemoveBalance(10, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)

	next, err = stock.RemoveBalance(3, 7)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), next, "el saldo no cambia cuando la salida falla")

	next, err = stock.RemoveBalance(7, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)
}

func TestAddBalance_DesbordeEsEntradaInvalida(t *testing.T) {
	next, err := stock.AddBalance(10, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), next)

	next, err = stock.AddBalance(10, math.MaxInt64)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), next, "el saldo no cambia cuando la entrada no cabe")

	next, err = stock.AddBalance(0, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), next)
}

func TestAdjustmentDelta_EsMagnitud(t *testing.T) {
	assert.Equal(t, int64(40), stock.AdjustmentDelta(70, 30))
	assert.Equal(t, int64(40), stock.AdjustmentDelta(30, 70))
	assert.Equal(t, int64(0), stock.AdjustmentDelta(5, 5))
	assert.Equal(t, "ajuste de stock de 70 a 30", stock.DefaultAdjustmentReason(70, 30))
}

func TestInventoryValue(t *testing.T) {
	v := stock.InventoryValue(3, decimal.RequireFromString("19.90"))
	assert.True(t, v.Equal(decimal.RequireFromString("59.70")), v.String())
}

func TestReplay_ReproduceSaldo(t *testing.T) {
	history := []*entity.StockMovement{
		mov(1, entity.MovementTypeINITIAL, 50, 50),
		mov(2, entity.MovementTypeIN, 20, 70),
		mov(3, entity.MovementTypeADJUSTMENT, 40, 30),
		mov(4, entity.MovementTypeOUT, 12, 18),
	}
	balance, err := stock.Replay(history)
	require.NoError(t, err)
	assert.Equal(t, int64(18), balance)
}

func TestReplay_HistorialVacio(t *testing.T) {
	balance, err := stock.Replay(nil)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestReplay_DetectaInconsistencias(t *testing.T) {
	cases := map[string][]*entity.StockMovement{
		"salida mayor al saldo": {
			mov(1, entity.MovementTypeINITIAL, 5, 5),
			mov(2, entity.MovementTypeOUT, 6, 0),
		},
		"ajuste con delta incorrecto": {
			mov(1, entity.MovementTypeINITIAL, 10, 10),
			mov(2, entity.MovementTypeADJUSTMENT, 3, 20),
		},
		"initial repetido": {
			mov(1, entity.MovementTypeINITIAL, 10, 10),
			mov(2, entity.MovementTypeINITIAL, 10, 10),
		},
		"tipo desconocido": {
			mov(1, entity.MovementType("TRANSFER"), 1, 1),
		},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := stock.Replay(history)
			assert.Error(t, err)
		})
	}
}
