package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
)

func newReporting(store *memory.Store, cache stock.SummaryCache) *stock.ReportingUseCase {
	return stock.NewReportingUseCase(store.Products(), store.Movements(), store.Reports(), cache)
}

func ptr(v int64) *int64 { return &v }

func TestReporting_StockBajoLimiteInclusivo(t *testing.T) {
	store, ledger, _ := newLedger()
	seedProduct(t, store, ledger, "Bajo", 5, ptr(10))
	seedProduct(t, store, ledger, "Justo", 10, ptr(10))
	seedProduct(t, store, ledger, "Arriba", 11, ptr(10))
	seedProduct(t, store, ledger, "SinMinimo", 0, nil)

	low, err := newReporting(store, nil).FindLowStockProducts(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Bajo", "Justo"}, names)
}

func TestReporting_MovimientosPorProducto(t *testing.T) {
	ctx := context.Background()
	store, ledger, _ := newLedger()
	p := seedProduct(t, store, ledger, "Guante", 10, nil)
	for i := 0; i < 3; i++ {
		_, err := ledger.AddStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 1, ActorID: actorID})
		require.NoError(t, err)
	}
	_, err := ledger.RemoveStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 2, ActorID: actorID})
	require.NoError(t, err)

	rep := newReporting(store, nil)

	all, err := rep.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, entity.MovementTypeOUT, all[0].Type, "más reciente primero")
	assert.Equal(t, entity.MovementTypeINITIAL, all[4].Type)

	ins, err := rep.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{Type: "in", Limit: 2})
	require.NoError(t, err)
	require.Len(t, ins, 2)
	for _, m := range ins {
		assert.Equal(t, entity.MovementTypeIN, m.Type)
	}

	_, err = rep.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{Type: "TRANSFER"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = rep.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{Limit: stock.MaxMovementsLimit + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = rep.FindMovementsByProduct(ctx, 404, stock.MovementQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReporting_TodosLosMovimientos(t *testing.T) {
	ctx := context.Background()
	store, ledger, _ := newLedger()
	a := seedProduct(t, store, ledger, "A", 1, nil)
	seedProduct(t, store, ledger, "B", 2, nil)
	_, err := ledger.AddStock(ctx, stock.MovementInput{ProductID: a.ID, Quantity: 1, ActorID: actorID})
	require.NoError(t, err)

	all, err := newReporting(store, nil).FindAllMovements(ctx, stock.MovementQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].ProductName)
	assert.Equal(t, entity.DefaultCategory, all[0].ProductCategory)

	initial, err := newReporting(store, nil).FindAllMovements(ctx, stock.MovementQuery{Type: "INITIAL", Limit: 1})
	require.NoError(t, err)
	require.Len(t, initial, 1)
	assert.Equal(t, "B", initial[0].ProductName)
}

func TestReporting_LecturasNoModificanEstado(t *testing.T) {
	ctx := context.Background()
	store, ledger, _ := newLedger()
	p := seedProduct(t, store, ledger, "Casco", 4, ptr(5))
	rep := newReporting(store, nil)

	first, err := rep.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{})
	require.NoError(t, err)
	second, err := rep.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(4), stockOf(t, store, p.ID))
}

func TestReporting_ResumenUsaCache(t *testing.T) {
	ctx := context.Background()
	store, ledger, cache := newLedger()
	p := seedProduct(t, store, ledger, "Bota", 3, ptr(5))
	seedProduct(t, store, ledger, "Chaleco", 0, nil)
	rep := newReporting(store, cache)

	sum, err := rep.GetStockSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.TotalProducts)
	assert.Equal(t, int64(1), sum.LowStockCount)
	assert.Equal(t, int64(1), sum.OutOfStockCount)
	assert.True(t, sum.TotalValue.Equal(decimal.RequireFromString("31.50")), sum.TotalValue.String())
	require.NotNil(t, cache.summary)

	_, err = ledger.AddStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 10, ActorID: actorID})
	require.NoError(t, err)
	sum, err = rep.GetStockSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.LowStockCount, "la escritura invalida el resumen cacheado")
}

// summaryDuringWrite simula un movimiento confirmado mientras se calcula el resumen.
type summaryDuringWrite struct {
	repository.StockReportRepository
	during func()
}

func (r summaryDuringWrite) Summary(ctx context.Context) (*entity.StockSummary, error) {
	sum, err := r.StockReportRepository.Summary(ctx)
	r.during()
	return sum, err
}

func TestReporting_ResumenViejoNoPisaLaInvalidacion(t *testing.T) {
	ctx := context.Background()
	store, ledger, cache := newLedger()
	p := seedProduct(t, store, ledger, "Linterna", 3, ptr(5))

	reports := summaryDuringWrite{StockReportRepository: store.Reports(), during: func() {
		_, err := ledger.AddStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 10, ActorID: actorID})
		require.NoError(t, err)
	}}
	rep := stock.NewReportingUseCase(store.Products(), store.Movements(), reports, cache)

	stale, err := rep.GetStockSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.LowStockCount)
	assert.Nil(t, cache.summary, "el resumen calculado antes de la escritura no se guarda")

	fresh, err := newReporting(store, cache).GetStockSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.LowStockCount)
	require.NotNil(t, cache.summary)
}

func TestReporting_ResumenSinCacheDisponible(t *testing.T) {
	store, ledger, cache := newLedger()
	seedProduct(t, store, ledger, "Lente", 2, nil)
	cache.failGet = true

	sum, err := newReporting(store, cache).GetStockSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.TotalProducts)
}

func TestReporting_VerifyProduct(t *testing.T) {
	ctx := context.Background()
	store, ledger, _ := newLedger()
	p := seedProduct(t, store, ledger, "Mascarilla", 50, nil)
	_, err := ledger.AddStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 20, ActorID: actorID})
	require.NoError(t, err)
	_, err = ledger.AdjustStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 30, ActorID: actorID})
	require.NoError(t, err)
	_, err = ledger.RemoveStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 12, ActorID: actorID})
	require.NoError(t, err)

	rep := newReporting(store, nil)
	res, err := rep.VerifyProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Consistent)
	assert.Equal(t, int64(18), res.Stock)
	assert.Equal(t, int64(18), res.ReplayedStock)
	assert.Equal(t, 4, res.MovementCount)

	// Saldo escrito por fuera del ledger: la verificación lo detecta.
	require.NoError(t, store.Products().SetStock(ctx, p.ID, 99, time.Now()))
	res, err = rep.VerifyProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, res.Consistent)

	_, err = rep.VerifyProduct(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
