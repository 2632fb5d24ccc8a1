// Package memory implementa los repositorios del dominio en memoria.
//
// Se usa en pruebas y con STORAGE_DRIVER=memory. Imita la semántica que el
// sistema necesita de PostgreSQL: bloqueo por fila (GetForUpdate mantiene el
// candado hasta Commit/Rollback), actualización condicional de stock y
// transacciones con rollback mediante un registro de deshacer.
package memory

import (
	"sort"
	"sync"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// Store almacén compartido por todos los repositorios en memoria.
type Store struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex

	products  map[string]entity.Product
	stocks    map[string]entity.ProductStock
	movements []entity.InventoryMovement
	sales     map[string]entity.Sale
	sellers   map[string]entity.Seller
	customers map[string]entity.Customer
	users     map[string]entity.User
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		rowLocks:  make(map[string]*sync.Mutex),
		products:  make(map[string]entity.Product),
		stocks:    make(map[string]entity.ProductStock),
		sales:     make(map[string]entity.Sale),
		sellers:   make(map[string]entity.Seller),
		customers: make(map[string]entity.Customer),
		users:     make(map[string]entity.User),
	}
}

func (s *Store) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[key] = l
	}
	return l
}

// tx estado de una transacción en memoria: candados de fila tomados y acciones de deshacer.
type tx struct {
	s    *Store
	held map[string]*sync.Mutex
	undo []func()
}

func newTx(s *Store) *tx {
	return &tx{s: s, held: make(map[string]*sync.Mutex)}
}

// lock toma el candado de la fila una sola vez por transacción.
func (t *tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	l := t.s.rowLock(key)
	l.Lock()
	t.held[key] = l
}

// record registra una acción de deshacer; debe llamarse con s.mu tomado.
func (t *tx) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (t *tx) rollback() {
	t.s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.s.mu.Unlock()
	t.undo = nil
	t.release()
}

func (t *tx) commit() {
	t.undo = nil
	t.release()
}

func (t *tx) release() {
	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.held[k].Unlock()
	}
	t.held = map[string]*sync.Mutex{}
}

func copySale(s entity.Sale) entity.Sale {
	items := make([]entity.SaleItem, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	if s.CancelledAt != nil {
		at := *s.CancelledAt
		s.CancelledAt = &at
	}
	return s
}
