package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetOrCreateActiveBySession(ctx context.Context, sessionID string, currency string) (model.Cart, error) {
	args := m.Called(ctx, sessionID, currency)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *MockCartRepository) FindActiveBySession(ctx context.Context, sessionID string) (model.Cart, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *MockCartRepository) Clear(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *MockCartRepository) ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindItem(ctx context.Context, cartID int64, lineKey string) (model.CartItem, error) {
	args := m.Called(ctx, cartID, lineKey)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *MockCartRepository) UpsertItem(ctx context.Context, item model.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) UpdateQuantity(ctx context.Context, cartID int64, lineKey string, qty int64) error {
	return m.Called(ctx, cartID, lineKey, qty).Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, cartID int64, lineKey string) error {
	return m.Called(ctx, cartID, lineKey).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Product), args.Error(1)
}

// Txはそのまま同じmockで実行する
type fakeTxManager struct {
	carts    *MockCartRepository
	products *MockProductRepository
}

func (f *fakeTxManager) Carts() repo.CartRepository       { return f.carts }
func (f *fakeTxManager) Products() repo.ProductRepository { return f.products }

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(f)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedID string

func (f fixedID) NewID() string { return string(f) }
