package service

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/shopspring/decimal"
)

var errInjected = errors.New("injected failure")

type fakeTxKey struct{}

type fakeCartEntry struct {
	id        int64
	productID int64
	quantity  int
	createdAt time.Time
}

type fakeState struct {
	products map[int64]domain.Product
	carts    map[int64][]fakeCartEntry
	orders   []domain.Order
	outbox   []domain.OutboxEvent
}

func (s fakeState) clone() fakeState {
	out := fakeState{
		products: make(map[int64]domain.Product, len(s.products)),
		carts:    make(map[int64][]fakeCartEntry, len(s.carts)),
		orders:   append([]domain.Order(nil), s.orders...),
		outbox:   append([]domain.OutboxEvent(nil), s.outbox...),
	}
	for id, p := range s.products {
		out.products[id] = p
	}
	for user, entries := range s.carts {
		out.carts[user] = append([]fakeCartEntry(nil), entries...)
	}
	return out
}

// fakeStore is an in-memory store. WithTx holds one lock for the whole closure, which gives
// serializable behavior, and restores the previous state when the closure fails.
type fakeStore struct {
	mu     sync.Mutex
	state  fakeState
	nextID atomic.Int64
	calls  atomic.Int64
	txs    atomic.Int64
	failOn map[string]error
}

func newFakeStore(products ...domain.Product) *fakeStore {
	f := &fakeStore{
		state: fakeState{
			products: make(map[int64]domain.Product),
			carts:    make(map[int64][]fakeCartEntry),
		},
		failOn: make(map[string]error),
	}
	for _, p := range products {
		f.state.products[p.ID] = p
	}
	return f
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Minimalist Tee", Price: decimal.RequireFromString("25.00"), Stock: 25},
		{ID: 2, Name: "Stylish Hoodie", Price: decimal.RequireFromString("60.00"), Stock: 25},
		{ID: 7, Name: "Limited Cap", Price: decimal.RequireFromString("25.00"), Stock: 10},
	}
}

func (f *fakeStore) enter(ctx context.Context, op string) (func(), error) {
	f.calls.Add(1)
	unlock := func() {}
	if ctx.Value(fakeTxKey{}) == nil {
		f.mu.Lock()
		unlock = f.mu.Unlock
	}
	if err := f.failOn[op]; err != nil {
		unlock()
		return nil, err
	}
	return unlock, nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.txs.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	saved := f.state.clone()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.state = saved
		return err
	}
	if err := f.failOn["Commit"]; err != nil {
		f.state = saved
		return err
	}
	return nil
}

func (f *fakeStore) ListInStockProducts(ctx context.Context) ([]domain.Product, error) {
	unlock, err := f.enter(ctx, "ListInStockProducts")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]domain.Product, 0)
	ids := make([]int64, 0, len(f.state.products))
	for id := range f.state.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if p := f.state.products[id]; p.Stock > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	unlock, err := f.enter(ctx, "GetProduct")
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, ok := f.state.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeStore) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	unlock, err := f.enter(ctx, "DecrementStock")
	if err != nil {
		return false, err
	}
	defer unlock()

	p, ok := f.state.products[productID]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	f.state.products[productID] = p
	return true, nil
}

func (f *fakeStore) ListCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	unlock, err := f.enter(ctx, "ListCartLines")
	if err != nil {
		return nil, err
	}
	defer unlock()

	lines := make([]domain.CartLine, 0, len(f.state.carts[userID]))
	for _, e := range f.state.carts[userID] {
		p := f.state.products[e.productID]
		lines = append(lines, domain.CartLine{
			ID:        e.id,
			UserID:    userID,
			ProductID: e.productID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  e.quantity,
			ImageURL:  p.ImageURL,
			Stock:     p.Stock,
			CreatedAt: e.createdAt,
		})
	}
	return lines, nil
}

func (f *fakeStore) GetCartQuantity(ctx context.Context, userID, productID int64) (int, error) {
	unlock, err := f.enter(ctx, "GetCartQuantity")
	if err != nil {
		return 0, err
	}
	defer unlock()

	for _, e := range f.state.carts[userID] {
		if e.productID == productID {
			return e.quantity, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) UpsertCartLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	unlock, err := f.enter(ctx, "UpsertCartLine")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, ok := f.state.products[productID]; !ok {
		return nil, domain.ErrProductNotFound
	}
	entries := f.state.carts[userID]
	for i := range entries {
		if entries[i].productID == productID {
			entries[i].quantity += quantity
			return &domain.CartLine{ID: entries[i].id, UserID: userID, ProductID: productID, Quantity: entries[i].quantity}, nil
		}
	}
	e := fakeCartEntry{id: f.nextID.Add(1), productID: productID, quantity: quantity, createdAt: time.Now()}
	f.state.carts[userID] = append(entries, e)
	return &domain.CartLine{ID: e.id, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (f *fakeStore) DecreaseCartLine(ctx context.Context, userID, productID int64) (bool, error) {
	unlock, err := f.enter(ctx, "DecreaseCartLine")
	if err != nil {
		return false, err
	}
	defer unlock()

	entries := f.state.carts[userID]
	for i := range entries {
		if entries[i].productID != productID {
			continue
		}
		if entries[i].quantity > 1 {
			entries[i].quantity--
			return false, nil
		}
		f.state.carts[userID] = append(entries[:i], entries[i+1:]...)
		return true, nil
	}
	return false, domain.ErrCartLineNotFound
}

func (f *fakeStore) DeleteCartLine(ctx context.Context, userID, lineID int64) error {
	unlock, err := f.enter(ctx, "DeleteCartLine")
	if err != nil {
		return err
	}
	defer unlock()

	entries := f.state.carts[userID]
	for i := range entries {
		if entries[i].id == lineID {
			f.state.carts[userID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrCartLineNotFound
}

func (f *fakeStore) ClearCart(ctx context.Context, userID int64) (int64, error) {
	unlock, err := f.enter(ctx, "ClearCart")
	if err != nil {
		return 0, err
	}
	defer unlock()

	n := int64(len(f.state.carts[userID]))
	delete(f.state.carts, userID)
	return n, nil
}

func (f *fakeStore) CartTotal(ctx context.Context, userID int64) (decimal.Decimal, error) {
	lines, err := f.ListCartLines(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.SumLines(lines), nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *domain.Order) (int64, error) {
	unlock, err := f.enter(ctx, "CreateOrder")
	if err != nil {
		return 0, err
	}
	defer unlock()

	stored := *order
	stored.ID = f.nextID.Add(1)
	stored.Lines = nil
	f.state.orders = append(f.state.orders, stored)
	return stored.ID, nil
}

func (f *fakeStore) CreateOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	unlock, err := f.enter(ctx, "CreateOrderLines")
	if err != nil {
		return err
	}
	defer unlock()

	for i := range f.state.orders {
		if f.state.orders[i].ID == orderID {
			for _, l := range lines {
				l.OrderID = orderID
				f.state.orders[i].Lines = append(f.state.orders[i].Lines, l)
			}
			return nil
		}
	}
	return errors.New("order not found")
}

func (f *fakeStore) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	unlock, err := f.enter(ctx, "ListOrdersByUser")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]domain.Order, 0)
	for i := len(f.state.orders) - 1; i >= 0; i-- {
		if f.state.orders[i].UserID == userID {
			out = append(out, f.state.orders[i])
		}
	}
	return out, nil
}

func (f *fakeStore) InsertOutboxEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error {
	unlock, err := f.enter(ctx, "InsertOutboxEvent")
	if err != nil {
		return err
	}
	defer unlock()

	f.state.outbox = append(f.state.outbox, domain.OutboxEvent{
		ID:          strconv.FormatInt(f.nextID.Add(1), 10),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
	})
	return nil
}

// helpers for assertions, safe outside transactions

func (f *fakeStore) stock(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.products[id].Stock
}

func (f *fakeStore) orders() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Order(nil), f.state.orders...)
}

func (f *fakeStore) outboxEvents() []domain.OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OutboxEvent(nil), f.state.outbox...)
}

func (f *fakeStore) cartSize(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.state.carts[userID])
}

func (f *fakeStore) addToCart(userID, productID int64, quantity int) {
	_, err := f.UpsertCartLine(context.Background(), userID, productID, quantity)
	if err != nil {
		panic(err)
	}
}

type stubVerifier struct {
	ok    bool
	calls atomic.Int64
}

func (v *stubVerifier) Verify(_, _, _ string) bool {
	v.calls.Add(1)
	return v.ok
}

type spyInvalidator struct {
	calls atomic.Int64
	err   error
}

func (s *spyInvalidator) Invalidate(context.Context) error {
	s.calls.Add(1)
	return s.err
}
