package cartsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/linekey"
)

var errServer = errors.New("500: internal error")

// fakeBackend はサーバー側のカートを持つテスト用Gateway。
// hold したゲートは、サーバー側の変更を反映したあと応答だけを止める。
type fakeBackend struct {
	mu       sync.Mutex
	currency string
	products map[int64]Product
	lines    []Line
	fail     map[string]error
	holds    map[string]chan struct{}
	calls    map[string]int
	sent     []int64
}

func newFakeBackend(products ...Product) *fakeBackend {
	b := &fakeBackend{
		currency: "JPY",
		products: make(map[int64]Product),
		fail:     make(map[string]error),
		holds:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
	for _, p := range products {
		b.products[p.ID] = p
	}
	return b
}

// seed はサーバー側に明細を直接入れる
func (b *fakeBackend) seed(productID int64, qty int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.products[productID]
	b.lines = append(b.lines, Line{
		LineKey:   linekey.Of(p.ID),
		ProductID: p.ID,
		Title:     p.Title,
		UnitPrice: p.UnitPrice,
		Quantity:  qty,
		StockCap:  p.StockCap,
	})
}

func (b *fakeBackend) failOn(op string, err error) {
	b.mu.Lock()
	b.fail[op] = err
	b.mu.Unlock()
}

func (b *fakeBackend) hold(gate string) {
	b.mu.Lock()
	b.holds[gate] = make(chan struct{})
	b.mu.Unlock()
}

func (b *fakeBackend) release(gate string) {
	b.mu.Lock()
	ch := b.holds[gate]
	delete(b.holds, gate)
	b.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (b *fakeBackend) releaseAll() {
	b.mu.Lock()
	holds := b.holds
	b.holds = make(map[string]chan struct{})
	b.mu.Unlock()
	for _, ch := range holds {
		close(ch)
	}
}

func (b *fakeBackend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *fakeBackend) sentQuantities() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.sent...)
}

func (b *fakeBackend) serverLine(key string) (Line, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.lines {
		if l.LineKey == key {
			return l, true
		}
	}
	return Line{}, false
}

func (b *fakeBackend) snapshotLocked() Snapshot {
	lines := make([]Line, len(b.lines))
	copy(lines, b.lines)
	return Snapshot{Lines: lines, Currency: b.currency}
}

func (b *fakeBackend) wait(ctx context.Context, gate string) error {
	b.mu.Lock()
	ch := b.holds[gate]
	b.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *fakeBackend) FetchCart(ctx context.Context) (Snapshot, error) {
	b.mu.Lock()
	b.calls["fetch"]++
	if err := b.fail["fetch"]; err != nil {
		b.mu.Unlock()
		return Snapshot{}, err
	}
	snap := b.snapshotLocked()
	b.mu.Unlock()
	return snap, b.wait(ctx, "fetch")
}

func (b *fakeBackend) AddLine(ctx context.Context, productID int64, quantity int64) (Snapshot, error) {
	b.mu.Lock()
	b.calls["add"]++
	if err := b.fail["add"]; err != nil {
		b.mu.Unlock()
		return Snapshot{}, err
	}
	p, ok := b.products[productID]
	if !ok {
		b.mu.Unlock()
		return Snapshot{}, errors.New("400: invalid")
	}
	key := linekey.Of(productID)
	merged := false
	for i := range b.lines {
		if b.lines[i].LineKey == key {
			if b.lines[i].Quantity+quantity > p.StockCap {
				b.mu.Unlock()
				return Snapshot{}, errors.New("400: stock exceeded")
			}
			b.lines[i].Quantity += quantity
			merged = true
		}
	}
	if !merged {
		if quantity > p.StockCap {
			b.mu.Unlock()
			return Snapshot{}, errors.New("400: stock exceeded")
		}
		b.lines = append(b.lines, Line{
			LineKey: key, ProductID: p.ID, Title: p.Title,
			UnitPrice: p.UnitPrice, Quantity: quantity, StockCap: p.StockCap,
		})
	}
	snap := b.snapshotLocked()
	b.mu.Unlock()

	if err := b.wait(ctx, fmt.Sprintf("add:%d", productID)); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (b *fakeBackend) UpdateLine(ctx context.Context, lineKey string, quantity int64) (Snapshot, error) {
	b.mu.Lock()
	b.calls["update"]++
	b.sent = append(b.sent, quantity)
	if err := b.fail["update"]; err != nil {
		b.mu.Unlock()
		return Snapshot{}, err
	}
	found := false
	for i := range b.lines {
		if b.lines[i].LineKey == lineKey {
			b.lines[i].Quantity = quantity
			found = true
		}
	}
	if !found {
		b.mu.Unlock()
		return Snapshot{}, errors.New("404: not found")
	}
	snap := b.snapshotLocked()
	b.mu.Unlock()

	if err := b.wait(ctx, "update:"+lineKey); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (b *fakeBackend) RemoveLine(ctx context.Context, lineKey string) (Snapshot, error) {
	b.mu.Lock()
	b.calls["remove"]++
	if err := b.fail["remove"]; err != nil {
		b.mu.Unlock()
		return Snapshot{}, err
	}
	lines := b.lines[:0]
	for _, l := range b.lines {
		if l.LineKey != lineKey {
			lines = append(lines, l)
		}
	}
	b.lines = lines
	snap := b.snapshotLocked()
	b.mu.Unlock()

	if err := b.wait(ctx, "remove:"+lineKey); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ===== testify mock =====

type mockGateway struct{ mock.Mock }

func (m *mockGateway) FetchCart(ctx context.Context) (Snapshot, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(Snapshot)
	return s, args.Error(1)
}

func (m *mockGateway) AddLine(ctx context.Context, productID int64, quantity int64) (Snapshot, error) {
	args := m.Called(ctx, productID, quantity)
	s, _ := args.Get(0).(Snapshot)
	return s, args.Error(1)
}

func (m *mockGateway) UpdateLine(ctx context.Context, lineKey string, quantity int64) (Snapshot, error) {
	args := m.Called(ctx, lineKey, quantity)
	s, _ := args.Get(0).(Snapshot)
	return s, args.Error(1)
}

func (m *mockGateway) RemoveLine(ctx context.Context, lineKey string) (Snapshot, error) {
	args := m.Called(ctx, lineKey)
	s, _ := args.Get(0).(Snapshot)
	return s, args.Error(1)
}
