// Package memory implementa los repositorios y el TxRunner en memoria.
// Se usa en pruebas y en desarrollo sin PostgreSQL (STORAGE_DRIVER=memory).
//
// Las transacciones serializan por producto igual que SELECT FOR UPDATE. Sus escrituras quedan
// pendientes y se aplican todas juntas, bajo un único lock, al confirmar: fuera de la transacción
// nunca se ve un movimiento sin su saldo ni un saldo sin su movimiento. Dentro de la transacción,
// GetByID/GetForUpdate y FindByIdempotencyKey ven las escrituras pendientes; los listados solo ven
// lo confirmado.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
)

var _ stock.TxRunner = (*Store)(nil)

// Store guarda productos, usuarios y movimientos.
type Store struct {
	mu        sync.Mutex
	products  map[int64]*entity.Product
	users     map[int64]*entity.User
	movements []*entity.StockMovement
	rowLocks  map[int64]chan struct{}

	nextProductID  int64
	nextUserID     int64
	nextMovementID int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[int64]*entity.Product),
		users:    make(map[int64]*entity.User),
		rowLocks: make(map[int64]chan struct{}),
	}
}

// Products repositorio de productos sin transacción.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Movements repositorio de movimientos sin transacción.
func (s *Store) Movements() *StockMovementRepository { return &StockMovementRepository{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Reports consultas de reporte.
func (s *Store) Reports() *StockReportRepository { return &StockReportRepository{s: s} }

// Ping siempre responde; existe para el health check.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Run ejecuta fn con repositorios atados a una transacción. Si fn devuelve error no se aplica
// ninguna de sus escrituras. Los bloqueos de fila se mantienen hasta después de confirmar.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	t := &tx{s: s, held: make(map[int64]chan struct{})}
	defer t.release()

	if err := fn(&StockMovementRepository{s: s, tx: t}, &ProductRepository{s: s, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: transacción cancelada antes de confirmar: %w", domain.ErrTransient, err)
	}
	return t.commit()
}

// write aplica op con s.mu tomado: en el acto sin transacción, al confirmar dentro de una.
// op debe validar antes de mutar y registrar con onRollback cómo deshacer lo que cambió.
func (s *Store) write(t *tx, op func() error) error {
	if t != nil {
		t.ops = append(t.ops, op)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return op()
}

// nextID reserva un ID. Un ID reservado por una transacción deshecha no se reutiliza.
func (s *Store) nextID(counter *int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter++
	return *counter
}

// tx registra bloqueos de fila, escrituras pendientes y la vista pendiente de productos y movimientos.
type tx struct {
	s    *Store
	held map[int64]chan struct{}
	ops  []func() error
	undo []func()

	// products versión pendiente por ID; nil = eliminado en esta transacción.
	products  map[int64]*entity.Product
	movements []*entity.StockMovement
}

// lock toma el bloqueo de la fila del producto; espera a que se libere o a que ctx termine.
func (t *tx) lock(ctx context.Context, productID int64) error {
	if _, ok := t.held[productID]; ok {
		return nil
	}
	t.s.mu.Lock()
	ch, ok := t.s.rowLocks[productID]
	if !ok {
		ch = make(chan struct{}, 1)
		t.s.rowLocks[productID] = ch
	}
	t.s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		t.held[productID] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: esperando bloqueo del producto %d: %w", domain.ErrTransient, productID, ctx.Err())
	}
}

// stageProduct deja p como versión pendiente del producto id (nil = eliminado).
func (t *tx) stageProduct(id int64, p *entity.Product) {
	if t == nil {
		return
	}
	if t.products == nil {
		t.products = make(map[int64]*entity.Product)
	}
	t.products[id] = p
}

// pendingProduct devuelve la versión pendiente del producto, si la hay.
func (t *tx) pendingProduct(id int64) (*entity.Product, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.products[id]
	return p, ok
}

func (t *tx) stageMovement(m *entity.StockMovement) {
	if t != nil {
		t.movements = append(t.movements, m)
	}
}

// onRollback se llama con s.mu tomado.
func (t *tx) onRollback(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

// commit aplica las escrituras pendientes en orden bajo un único s.mu. Si alguna falla
// (por ejemplo un nombre tomado por otra transacción confirmada antes) se deshacen las ya aplicadas.
func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, op := range t.ops {
		if err := op(); err != nil {
			for i := len(t.undo) - 1; i >= 0; i-- {
				t.undo[i]()
			}
			return err
		}
	}
	return nil
}

func (t *tx) release() {
	for id, ch := range t.held {
		<-ch
		delete(t.held, id)
	}
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	if p.MinStock != nil {
		v := *p.MinStock
		c.MinStock = &v
	}
	return &c
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}
