package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepository)(nil)

// StockMovementRepository historial de solo inserción.
type StockMovementRepository struct {
	s  *Store
	tx *tx
}

// Create asigna ID y CreatedAt. Dentro de una transacción el movimiento se agrega al confirmar,
// junto con el saldo. ErrDuplicate si la idempotency key ya existe o el producto ya tiene INITIAL.
func (r *StockMovementRepository) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.Quantity < 0 || movement.NewStock < 0 || !movement.Type.Valid() {
		return domain.ErrInvalidInput
	}
	r.s.mu.Lock()
	err := movementConflict(r.s.movements, movement)
	r.s.mu.Unlock()
	if err == nil && r.tx != nil {
		err = movementConflict(r.tx.movements, movement)
	}
	if err != nil {
		return err
	}

	movement.ID = r.s.nextID(&r.s.nextMovementID)
	movement.CreatedAt = time.Now()
	stored := *movement
	stored.ProductCategory, stored.UserName, stored.UserEmail = "", "", ""
	r.tx.stageMovement(&stored)
	return r.s.write(r.tx, func() error {
		if err := movementConflict(r.s.movements, &stored); err != nil {
			return err
		}
		r.s.movements = append(r.s.movements, &stored)
		r.tx.onRollback(func() { r.s.movements = r.s.movements[:len(r.s.movements)-1] })
		return nil
	})
}

func (r *StockMovementRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tx != nil {
		for _, m := range r.tx.movements {
			if m.IdempotencyKey == key {
				return r.s.joined(m), nil
			}
		}
	}
	for _, m := range r.s.movements {
		if m.IdempotencyKey == key {
			return r.s.joined(m), nil
		}
	}
	return nil, nil
}

func (r *StockMovementRepository) ListByProduct(ctx context.Context, productID int64, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	return r.recent(filter, func(m *entity.StockMovement) bool { return m.ProductID == productID }), nil
}

func (r *StockMovementRepository) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	return r.recent(filter, func(*entity.StockMovement) bool { return true }), nil
}

func (r *StockMovementRepository) History(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			out = append(out, r.s.joined(m))
		}
	}
	return out, nil
}

// recent recorre del más nuevo al más viejo en orden de confirmación.
func (r *StockMovementRepository) recent(filter repository.MovementFilter, keep func(*entity.StockMovement) bool) []*entity.StockMovement {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.StockMovement, 0)
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if !keep(m) || (filter.Type != nil && m.Type != *filter.Type) {
			continue
		}
		out = append(out, r.s.joined(m))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// joined copia el movimiento y completa los datos de producto y usuario. Requiere s.mu.
func (s *Store) joined(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	if p, ok := s.products[m.ProductID]; ok {
		c.ProductName = p.Name
		c.ProductCategory = p.Category
	}
	if u, ok := s.users[m.UserID]; ok {
		c.UserName = u.Name
		c.UserEmail = u.Email
	}
	return &c
}

// movementConflict aplica las restricciones únicas del historial: idempotency key e INITIAL por producto.
func movementConflict(list []*entity.StockMovement, mv *entity.StockMovement) error {
	for _, m := range list {
		if mv.IdempotencyKey != "" && m.IdempotencyKey == mv.IdempotencyKey {
			return domain.ErrDuplicate
		}
		if mv.Type == entity.MovementTypeINITIAL && m.Type == entity.MovementTypeINITIAL &&
			m.ProductID == mv.ProductID {
			return domain.ErrDuplicate
		}
	}
	return nil
}
