package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-api/internal/domain"
)

func TestWrapErr_Clasifica(t *testing.T) {
	cases := map[string]struct {
		err  error
		want error
	}{
		"check violation":   {&pgconn.PgError{Code: "23514", ConstraintName: "stock_movements_new_stock_check"}, domain.ErrInvalidInput},
		"lock timeout":      {&pgconn.PgError{Code: "55P03"}, domain.ErrTransient},
		"deadlock":          {&pgconn.PgError{Code: "40P01"}, domain.ErrTransient},
		"statement timeout": {&pgconn.PgError{Code: "57014"}, domain.ErrTransient},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := wrapErr("insert stock movement", tc.err)
			assert.ErrorIs(t, err, tc.want)
			var pgErr *pgconn.PgError
			assert.True(t, errors.As(err, &pgErr), "el error original sigue disponible")
		})
	}
}

func TestWrapErr_SinClasificar(t *testing.T) {
	err := wrapErr("get product", &pgconn.PgError{Code: "42P01"})
	assert.False(t, errors.Is(err, domain.ErrTransient))
	assert.False(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "get product")
}

func TestLikePattern_EscapaComodines(t *testing.T) {
	assert.Equal(t, `%50\% off\_x%`, likePattern("50% off_x"))
}
