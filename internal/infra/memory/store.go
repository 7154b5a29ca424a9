package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// Store はpostgres無しで動かすためのメモリ実装。
// CartRepository / ProductRepository / TransactionManager を1つで満たす。
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	nextID   int64
	products map[int64]model.Product
	carts    map[int64]model.Cart
	items    map[int64][]model.CartItem
}

func NewStore() *Store {
	return &Store{
		products: make(map[int64]model.Product),
		carts:    make(map[int64]model.Cart),
		items:    make(map[int64][]model.CartItem),
	}
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

// ===== TransactionManager =====

func (s *Store) Carts() repo.CartRepository       { return s }
func (s *Store) Products() repo.ProductRepository { return s }

// Txは直列化だけ（ロールバックはしない）
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// ===== ProductRepository =====

func (s *Store) FindByID(ctx context.Context, id int64) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *Store) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, p model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.newID()
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = p
	return p, nil
}

// ===== CartRepository =====

func (s *Store) GetOrCreateActiveBySession(ctx context.Context, sessionID string, currency string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.activeLocked(sessionID); ok {
		return c, nil
	}
	now := time.Now()
	c := model.Cart{
		ID:        s.newID(),
		SessionID: sessionID,
		Status:    model.CartStatusActive,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.carts[c.ID] = c
	return c, nil
}

func (s *Store) FindActiveBySession(ctx context.Context, sessionID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.activeLocked(sessionID); ok {
		return c, nil
	}
	return model.Cart{}, repo.ErrNotFound
}

func (s *Store) activeLocked(sessionID string) (model.Cart, bool) {
	for _, c := range s.carts {
		if c.SessionID == sessionID && c.Status == model.CartStatusActive {
			return c, true
		}
	}
	return model.Cart{}, false
}

func (s *Store) Clear(ctx context.Context, cartID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, cartID)
	return nil
}

func (s *Store) ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.CartItem{}, s.items[cartID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindItem(ctx context.Context, cartID int64, lineKey string) (model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items[cartID] {
		if it.LineKey == lineKey {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (s *Store) UpsertItem(ctx context.Context, item model.CartItem) error {
	if item.Quantity <= 0 {
		return errors.New("invalid quantity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	items := s.items[item.CartID]
	for i := range items {
		if items[i].LineKey == item.LineKey {
			items[i].Quantity += item.Quantity
			items[i].UpdatedAt = now
			return nil
		}
	}
	item.ID = s.newID()
	item.CreatedAt, item.UpdatedAt = now, now
	s.items[item.CartID] = append(items, item)
	return nil
}

func (s *Store) UpdateQuantity(ctx context.Context, cartID int64, lineKey string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[cartID]
	for i := range items {
		if items[i].LineKey == lineKey {
			items[i].Quantity = qty
			items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *Store) DeleteItem(ctx context.Context, cartID int64, lineKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[cartID]
	for i := range items {
		if items[i].LineKey == lineKey {
			s.items[cartID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}
