// Package memory implementa los puertos de persistencia en memoria.
// Las escrituras de Run quedan en un área temporal y se aplican juntas al confirmar.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// Store estado confirmado del inventario. Es seguro para uso concurrente.
type Store struct {
	mu        sync.RWMutex
	stocks    map[string]*entity.StockRecord
	batches   map[string]*entity.Batch
	movements []*entity.MovementRecord
	seq       int64
}

var _ inventory.TxRunner = (*Store)(nil)

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		stocks:  make(map[string]*entity.StockRecord),
		batches: make(map[string]*entity.Batch),
	}
}

// Run ejecuta fn sobre una transacción; si fn devuelve nil se confirma todo, si no nada.
func (s *Store) Run(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &tx{
		store:   s,
		stocks:  make(map[string]*entity.StockRecord),
		batches: make(map[string]*entity.Batch),
	}
	if err := fn(stockRepo{tx}, batchRepo{tx}, movementRepo{tx}); err != nil {
		return err
	}
	return s.commit(tx)
}

// View ejecuta fn con lectura consistente: ninguna confirmación ocurre mientras dura.
func (s *Store) View(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx := &tx{store: s, readOnly: true}
	return fn(stockRepo{tx}, batchRepo{tx}, movementRepo{tx})
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range t.batches {
		if cur, ok := s.batches[b.BatchNumber]; ok && cur.StockID != b.StockID {
			return domain.NewError(domain.ErrConflict, domain.Ref{StockID: b.StockID, BatchNumber: b.BatchNumber},
				"el lote %s ya pertenece a otro stock", b.BatchNumber)
		}
	}
	for _, st := range t.stocks {
		for _, cur := range s.stocks {
			if cur.ID != st.ID && cur.ProductID == st.ProductID && cur.LocationID == st.LocationID {
				return domain.NewError(domain.ErrConflict, domain.Ref{StockID: cur.ID},
					"ya existe stock para producto %s en ubicación %s", st.ProductID, st.LocationID)
			}
		}
	}

	for id, st := range t.stocks {
		s.stocks[id] = st.Clone()
	}
	for n, b := range t.batches {
		s.batches[n] = b.Clone()
	}
	for _, m := range t.movements {
		s.seq++
		m.Sequence = s.seq
		c := *m
		s.movements = append(s.movements, &c)
	}
	return nil
}

// tx guarda las escrituras pendientes. En modo lectura el llamador ya tiene mu.RLock.
type tx struct {
	store     *Store
	readOnly  bool
	stocks    map[string]*entity.StockRecord
	batches   map[string]*entity.Batch
	movements []*entity.MovementRecord
}

// read ejecuta f sobre el estado confirmado con el lock adecuado.
func (t *tx) read(f func(s *Store)) {
	if t.readOnly {
		f(t.store)
		return
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	f(t.store)
}

func errReadOnly() error {
	return domain.NewError(domain.ErrInvariantViolation, domain.Ref{}, "escritura dentro de una lectura")
}

type stockRepo struct{ t *tx }

var _ repository.StockRepository = stockRepo{}

func (r stockRepo) Get(_ context.Context, id string) (*entity.StockRecord, error) {
	if st, ok := r.t.stocks[id]; ok {
		return st.Clone(), nil
	}
	var out *entity.StockRecord
	r.t.read(func(s *Store) {
		if st, ok := s.stocks[id]; ok {
			out = st.Clone()
		}
	})
	return out, nil
}

// GetForUpdate es igual a Get: la exclusión la da el StockLocker.
func (r stockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.Get(ctx, id)
}

func (r stockRepo) GetByKey(ctx context.Context, productID, locationID string) (*entity.StockRecord, error) {
	list, err := r.List(ctx, repository.StockFilter{ProductID: productID, LocationID: locationID})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r stockRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	merged := make(map[string]*entity.StockRecord)
	r.t.read(func(s *Store) {
		for id, st := range s.stocks {
			merged[id] = st
		}
	})
	for id, st := range r.t.stocks {
		merged[id] = st
	}
	out := make([]*entity.StockRecord, 0, len(merged))
	for _, st := range merged {
		if f.ProductID != "" && st.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && st.LocationID != f.LocationID {
			continue
		}
		if f.ActiveOnly && !st.IsActive {
			continue
		}
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r stockRepo) Upsert(_ context.Context, st *entity.StockRecord) error {
	if r.t.readOnly {
		return errReadOnly()
	}
	r.t.stocks[st.ID] = st.Clone()
	return nil
}

type batchRepo struct{ t *tx }

var _ repository.BatchRepository = batchRepo{}

func (r batchRepo) Get(_ context.Context, batchNumber string) (*entity.Batch, error) {
	if b, ok := r.t.batches[batchNumber]; ok {
		return b.Clone(), nil
	}
	var out *entity.Batch
	r.t.read(func(s *Store) {
		if b, ok := s.batches[batchNumber]; ok {
			out = b.Clone()
		}
	})
	return out, nil
}

func (r batchRepo) all(keep func(*entity.Batch) bool) []*entity.Batch {
	merged := make(map[string]*entity.Batch)
	r.t.read(func(s *Store) {
		for n, b := range s.batches {
			merged[n] = b
		}
	})
	for n, b := range r.t.batches {
		merged[n] = b
	}
	out := make([]*entity.Batch, 0)
	for _, b := range merged {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].BatchNumber < out[j].BatchNumber
	})
	return out
}

func (r batchRepo) ListByStock(_ context.Context, stockID string) ([]*entity.Batch, error) {
	return r.all(func(b *entity.Batch) bool { return b.StockID == stockID }), nil
}

func (r batchRepo) ListWithExpiration(_ context.Context) ([]*entity.Batch, error) {
	return r.all(func(b *entity.Batch) bool {
		return b.ExpirationDate != nil && b.Quantity.IsPositive()
	}), nil
}

func (r batchRepo) Upsert(_ context.Context, b *entity.Batch) error {
	if r.t.readOnly {
		return errReadOnly()
	}
	r.t.batches[b.BatchNumber] = b.Clone()
	return nil
}

type movementRepo struct{ t *tx }

var _ repository.MovementRepository = movementRepo{}

func (r movementRepo) Append(_ context.Context, m *entity.MovementRecord) error {
	if r.t.readOnly {
		return errReadOnly()
	}
	r.t.movements = append(r.t.movements, m)
	return nil
}

// committed copia los movimientos confirmados que cumplen keep, en orden de secuencia.
func (r movementRepo) committed(keep func(*entity.MovementRecord) bool) []*entity.MovementRecord {
	out := []*entity.MovementRecord{}
	r.t.read(func(s *Store) {
		for _, m := range s.movements {
			if keep(m) {
				c := *m
				out = append(out, &c)
			}
		}
	})
	return out
}

func (r movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, int, error) {
	matched := r.committed(func(m *entity.MovementRecord) bool {
		return (f.StockID == "" || m.StockID == f.StockID) &&
			(f.BatchNumber == "" || m.BatchNumber == f.BatchNumber) &&
			(f.Type == "" || m.Type == f.Type)
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].Sequence > matched[j].Sequence
	})

	total := len(matched)
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (r movementRepo) ListByBatch(_ context.Context, batchNumber string) ([]*entity.MovementRecord, error) {
	return r.committed(func(m *entity.MovementRecord) bool { return m.BatchNumber == batchNumber }), nil
}

func (r movementRepo) ListByStock(_ context.Context, stockID string) ([]*entity.MovementRecord, error) {
	return r.committed(func(m *entity.MovementRecord) bool { return m.StockID == stockID }), nil
}
