package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
)

func TestSeedAdmin_CreaYPromueve(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Users().Create(ctx, &entity.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: entity.RoleUser}))

	id, err := seedAdmin(ctx, store.Users(), "Ana@Example.com", "secreto1", "Ana")
	require.NoError(t, err)
	u, err := store.Users().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)

	id2, err := seedAdmin(ctx, store.Users(), "root@example.com", "secreto1", "Root")
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	_, err = seedAdmin(ctx, store.Users(), "corto@example.com", "123", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImportCatalog(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := stock.NewLedgerUseCase(store, nil)
	uc := usecase.NewProductUseCase(store.Products(), store, ledger, nil)

	csvText := "name,price,stock,min_stock,category\n" +
		"Café molido,12.50,10,3,Bebidas\n" +
		"Azúcar,4,0,,Despensa\n" +
		"Café molido,12.50,1,,Bebidas\n"
	var latin1 bytes.Buffer
	w := transform.NewWriter(&latin1, charmap.ISO8859_1.NewEncoder())
	_, err := w.Write([]byte(csvText))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := transform.NewReader(&latin1, charmap.ISO8859_1.NewDecoder())
	created, skipped, err := importCatalog(ctx, uc, r)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, skipped)

	p, err := store.Products().GetByName(ctx, "Café molido")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(10), p.Stock)

	history, err := store.Movements().History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.MovementTypeINITIAL, history[0].Type)
}

func TestImportCatalog_Errores(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := usecase.NewProductUseCase(store.Products(), store, stock.NewLedgerUseCase(store, nil), nil)

	_, _, err := importCatalog(ctx, uc, strings.NewReader("name,stock\nX,1\n"))
	assert.ErrorContains(t, err, "price")

	_, _, err = importCatalog(ctx, uc, strings.NewReader("name,price\nX,abc\n"))
	assert.ErrorContains(t, err, "línea 2")
}
