package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implementación en memoria. tx nil = autocommit.
type ProductRepository struct {
	s  *Store
	tx *tx
}

// Create reserva el ID en el acto; dentro de una transacción el alta se aplica al confirmar.
// ErrDuplicate si el nombre ya existe.
func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	taken, err := r.GetByName(ctx, product.Name)
	if err != nil {
		return err
	}
	if taken != nil {
		return domain.ErrDuplicate
	}
	product.ID = r.s.nextID(&r.s.nextProductID)
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}
	stored := cloneProduct(product)
	r.tx.stageProduct(stored.ID, cloneProduct(stored))
	return r.s.write(r.tx, func() error {
		if r.s.nameTaken(stored.Name, stored.ID) {
			return domain.ErrDuplicate
		}
		r.s.products[stored.ID] = stored
		r.tx.onRollback(func() { delete(r.s.products, stored.ID) })
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	if p, ok := r.tx.pendingProduct(id); ok {
		if p == nil {
			return nil, nil
		}
		return cloneProduct(p), nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	if r.tx != nil {
		for _, p := range r.tx.products {
			if p != nil && p.Name == name {
				return cloneProduct(p), nil
			}
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Name != name {
			continue
		}
		if _, staged := r.tx.pendingProduct(p.ID); staged {
			continue
		}
		return cloneProduct(p), nil
	}
	return nil, nil
}

func (r *ProductRepository) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *ProductRepository) SetStock(ctx context.Context, id, stock int64, updatedAt time.Time) error {
	if stock < 0 {
		return domain.ErrInvalidInput
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	cur.Stock, cur.UpdatedAt = stock, updatedAt
	r.tx.stageProduct(id, cur)
	return r.s.write(r.tx, func() error {
		p, ok := r.s.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		prevStock, prevUpdated := p.Stock, p.UpdatedAt
		p.Stock, p.UpdatedAt = stock, updatedAt
		r.tx.onRollback(func() {
			p.Stock, p.UpdatedAt = prevStock, prevUpdated
		})
		return nil
	})
}

// Update reemplaza los metadatos y completa UpdatedAt. Stock, CreatedAt y CreatedBy se conservan.
func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	cur, err := r.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	taken, err := r.GetByName(ctx, product.Name)
	if err != nil {
		return err
	}
	if taken != nil && taken.ID != product.ID {
		return domain.ErrDuplicate
	}
	product.UpdatedAt = time.Now()
	updated := cloneProduct(product)
	updated.Stock, updated.CreatedAt, updated.CreatedBy = cur.Stock, cur.CreatedAt, cur.CreatedBy
	r.tx.stageProduct(updated.ID, cloneProduct(updated))
	return r.s.write(r.tx, func() error {
		prev, ok := r.s.products[updated.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if r.s.nameTaken(updated.Name, updated.ID) {
			return domain.ErrDuplicate
		}
		next := cloneProduct(updated)
		next.Stock = prev.Stock
		r.s.products[updated.ID] = next
		r.tx.onRollback(func() { r.s.products[prev.ID] = prev })
		return nil
	})
}

// Delete elimina el producto y desvincula sus movimientos, que se conservan con el nombre registrado.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	r.tx.stageProduct(id, nil)
	return r.s.write(r.tx, func() error {
		p, ok := r.s.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		delete(r.s.products, id)
		var detached []*entity.StockMovement
		for _, m := range r.s.movements {
			if m.ProductID == id {
				m.ProductID = 0
				detached = append(detached, m)
			}
		}
		r.tx.onRollback(func() {
			r.s.products[id] = p
			for _, m := range detached {
				m.ProductID = id
			}
		})
		return nil
	})
}

func (r *ProductRepository) List(ctx context.Context) ([]*entity.Product, error) {
	return r.filter(func(*entity.Product) bool { return true }), nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.products)), nil
}

// ListByCategory coincidencia parcial sin distinguir mayúsculas.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]*entity.Product, error) {
	fold := cases.Fold()
	needle := fold.String(category)
	return r.filter(func(p *entity.Product) bool {
		return strings.Contains(fold.String(p.Category), needle)
	}), nil
}

func (r *ProductRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*entity.Product, error) {
	return r.filter(func(p *entity.Product) bool {
		return !p.CreatedAt.Before(start) && !p.CreatedAt.After(end)
	}), nil
}

// filter devuelve copias ordenadas por fecha de creación descendente.
func (r *ProductRepository) filter(keep func(*entity.Product) bool) []*entity.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// nameTaken informa si otro producto confirmado usa el nombre. Requiere s.mu.
func (s *Store) nameTaken(name string, exceptID int64) bool {
	for _, p := range s.products {
		if p.Name == name && p.ID != exceptID {
			return true
		}
	}
	return false
}
