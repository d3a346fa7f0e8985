package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// Producto y usuario se resuelven con LEFT JOIN: los movimientos sobreviven al borrado de ambos.
const movementSelect = `
	SELECT m.id, COALESCE(m.product_id, 0), COALESCE(p.name, m.product_name), COALESCE(p.category, ''),
		m.type, m.quantity, m.previous_stock, m.new_stock, COALESCE(m.user_id, 0),
		COALESCE(u.name, ''), COALESCE(u.email, ''), m.reason, COALESCE(m.idempotency_key, ''), m.created_at
	FROM stock_movements m
	LEFT JOIN products p ON p.id = m.product_id
	LEFT JOIN users u ON u.id = m.user_id`

// StockMovementRepo implementación de StockMovementRepository (usable con pool o tx).
// Solo inserta: la tabla además rechaza UPDATE/DELETE con un trigger.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento y completa ID y CreatedAt (reloj de la base, tomado tras el bloqueo de fila).
// ErrDuplicate si la idempotency key ya existe o si el producto ya tiene INITIAL.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, product_name, type, quantity, previous_stock, new_stock,
			user_id, reason, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0), $8, NULLIF($9, ''), clock_timestamp())
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		m.ProductID, m.ProductName, string(m.Type), m.Quantity, m.PreviousStock, m.NewStock,
		m.UserID, m.Reason, m.IdempotencyKey,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert stock movement", err)
	}
	return nil
}

// FindByIdempotencyKey devuelve el movimiento registrado con esa clave.
func (r *StockMovementRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, movementSelect+` WHERE m.idempotency_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get stock movement by key", err)
	}
	return m, nil
}

// ListByProduct movimientos de un producto, más recientes primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := movementSelect + `
		WHERE m.product_id = $1 AND ($2::text IS NULL OR m.type = $2)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3`
	return r.list(ctx, "list stock movements by product", query, productID, typeArg(filter), filter.Limit)
}

// List movimientos de todos los productos, más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := movementSelect + `
		WHERE ($1::text IS NULL OR m.type = $1)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`
	return r.list(ctx, "list stock movements", query, typeArg(filter), filter.Limit)
}

// History historial completo del producto en orden de inserción.
func (r *StockMovementRepo) History(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	return r.list(ctx, "stock movement history", movementSelect+` WHERE m.product_id = $1 ORDER BY m.id ASC`, productID)
}

func (r *StockMovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, wrapErr("scan stock movement", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return list, nil
}

func typeArg(filter repository.MovementFilter) *string {
	if filter.Type == nil {
		return nil
	}
	s := filter.Type.String()
	return &s
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var typ string
	err := row.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.ProductCategory, &typ, &m.Quantity,
		&m.PreviousStock, &m.NewStock, &m.UserID, &m.UserName, &m.UserEmail, &m.Reason,
		&m.IdempotencyKey, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	return &m, nil
}
