//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-api/pkg/config"
)

// Ejecutar con: go test -tags integration ./internal/infrastructure/postgres/...
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("stock_test"),
		tcPostgres.WithUsername("stock"),
		tcPostgres.WithPassword("stock"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool), "las migraciones aplicadas no se repiten")
	return pool
}

type env struct {
	pool      *pgxpool.Pool
	users     *postgres.UserRepo
	products  *postgres.ProductRepo
	movements *postgres.StockMovementRepo
	ledger    *stock.LedgerUseCase
	reporting *stock.ReportingUseCase
	productUC *usecase.ProductUseCase
	actor     usecase.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pool := setupPool(t)
	txRunner := postgres.NewTxRunner(pool, 2*time.Second, 10*time.Second)
	e := &env{
		pool:      pool,
		users:     postgres.NewUserRepository(pool),
		products:  postgres.NewProductRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
	}
	e.ledger = stock.NewLedgerUseCase(txRunner, nil)
	e.reporting = stock.NewReportingUseCase(e.products, e.movements, postgres.NewStockReportRepository(pool), nil)
	e.productUC = usecase.NewProductUseCase(e.products, txRunner, e.ledger, nil)

	u := &entity.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Role: entity.RoleAdmin}
	require.NoError(t, e.users.Create(context.Background(), u))
	e.actor = usecase.Actor{UserID: u.ID, Role: u.Role}
	return e
}

func (e *env) createProduct(t *testing.T, name string, qty int64, minStock *int64) *dto.ProductResponse {
	t.Helper()
	p, err := e.productUC.Create(context.Background(), e.actor, dto.CreateProductRequest{
		Name: name, Price: decimal.RequireFromString("2.50"), Stock: qty, MinStock: minStock, Category: "Bebidas",
	})
	require.NoError(t, err)
	return p
}

func TestLedger_Postgres(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	t.Run("salidas concurrentes nunca dejan saldo negativo", func(t *testing.T) {
		p := e.createProduct(t, "Agua", 10, nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = e.ledger.RemoveStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 7, ActorID: e.actor.UserID})
			}(i)
		}
		wg.Wait()

		var ok, insufficient int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)

		got, err := e.products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Stock)

		res, err := e.reporting.VerifyProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, res.Consistent)
		assert.Equal(t, 2, res.MovementCount)
	})

	t.Run("idempotency key repite el resultado sin reaplicar", func(t *testing.T) {
		p := e.createProduct(t, "Café", 1, nil)
		in := stock.MovementInput{ProductID: p.ID, Quantity: 5, ActorID: e.actor.UserID, IdempotencyKey: "compra-1"}

		first, err := e.ledger.AddStock(ctx, in)
		require.NoError(t, err)
		second, err := e.ledger.AddStock(ctx, in)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Movement.ID, second.Movement.ID)
		assert.Equal(t, int64(6), second.Product.Stock)

		_, err = e.ledger.RemoveStock(ctx, in)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("ajuste y filtros del historial", func(t *testing.T) {
		p := e.createProduct(t, "Té", 4, nil)
		res, err := e.ledger.AdjustStock(ctx, stock.MovementInput{ProductID: p.ID, Quantity: 9, ActorID: e.actor.UserID})
		require.NoError(t, err)
		assert.Equal(t, int64(5), res.Movement.Quantity)
		assert.Equal(t, "ajuste de stock de 4 a 9", res.Movement.Reason)

		list, err := e.reporting.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, entity.MovementTypeADJUSTMENT, list[0].Type)
		assert.Equal(t, "Ana", list[0].UserName)
		assert.Equal(t, "Té", list[0].ProductName)

		initial, err := e.reporting.FindMovementsByProduct(ctx, p.ID, stock.MovementQuery{Type: "initial"})
		require.NoError(t, err)
		require.Len(t, initial, 1)
		assert.Equal(t, int64(4), initial[0].NewStock)
	})

	t.Run("el historial es de solo inserción", func(t *testing.T) {
		p := e.createProduct(t, "Leche", 2, nil)
		_, err := e.pool.Exec(ctx, `UPDATE stock_movements SET quantity = 99 WHERE product_id = $1`, p.ID)
		assert.Error(t, err)
		_, err = e.pool.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, p.ID)
		assert.Error(t, err)
	})

	t.Run("un solo INITIAL por producto", func(t *testing.T) {
		p := e.createProduct(t, "Pan", 2, nil)
		err := e.movements.Create(ctx, &entity.StockMovement{
			ProductID: p.ID, ProductName: p.Name, Type: entity.MovementTypeINITIAL, Quantity: 1, NewStock: 1,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("eliminar producto conserva el historial", func(t *testing.T) {
		p := e.createProduct(t, "Jugo", 8, nil)
		require.NoError(t, e.productUC.Delete(ctx, p.ID))

		all, err := e.reporting.FindAllMovements(ctx, stock.MovementQuery{Limit: 500})
		require.NoError(t, err)
		var found *entity.StockMovement
		for _, m := range all {
			if m.ProductName == "Jugo" {
				found = m
			}
		}
		require.NotNil(t, found)
		assert.Zero(t, found.ProductID)
	})

	t.Run("stock bajo y resumen", func(t *testing.T) {
		five := int64(5)
		low := e.createProduct(t, "Umbral", 5, &five)
		e.createProduct(t, "Holgado", 6, &five)

		list, err := e.reporting.FindLowStockProducts(ctx)
		require.NoError(t, err)
		var names []string
		for _, p := range list {
			names = append(names, p.Name)
		}
		assert.Contains(t, names, low.Name)
		assert.NotContains(t, names, "Holgado")

		summary, err := e.reporting.GetStockSummary(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, summary.TotalProducts, int64(2))
		assert.True(t, summary.TotalValue.IsPositive())
	})
}

func TestUserRepo_Postgres(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	err := e.users.Create(ctx, &entity.User{Name: "Otra", Email: "ANA@example.com", PasswordHash: "x", Role: entity.RoleUser})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	u, err := e.users.GetByEmail(ctx, "Ana@Example.com")
	require.NoError(t, err)
	require.NotNil(t, u)

	missing, err := e.users.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, e.users.UpdateRole(ctx, 9999, entity.RoleUser), domain.ErrUserNotFound)
}
