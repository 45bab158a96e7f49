package market_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/shopspring/decimal"
)

type memState struct {
	products   map[int64]market.Product
	services   map[int64]market.Service
	categories []market.Category
	orders     map[int64]market.Order
	items      []market.OrderItem
	bookings   map[int64]market.Booking
	payments   map[int64]market.Payment
	seq        int64
}

func (s *memState) clone() *memState {
	return &memState{
		products:   maps.Clone(s.products),
		services:   maps.Clone(s.services),
		categories: slices.Clone(s.categories),
		orders:     maps.Clone(s.orders),
		items:      slices.Clone(s.items),
		bookings:   maps.Clone(s.bookings),
		payments:   maps.Clone(s.payments),
		seq:        s.seq,
	}
}

func (s *memState) next() int64 {
	s.seq++
	return s.seq
}

// memStore serialises transactions behind one mutex and commits a copy of
// the state only when fn succeeds. Non-transactional reads are unlocked, so
// tests must not mix them with concurrent WithinTx calls.
type memStore struct {
	mu     sync.Mutex
	state  *memState
	failOn map[string]error
	calls  atomic.Int64
	txs    atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			products: map[int64]market.Product{},
			services: map[int64]market.Service{},
			orders:   map[int64]market.Order{},
			bookings: map[int64]market.Booking{},
			payments: map[int64]market.Payment{},
			seq:      100,
		},
		failOn: map[string]error{},
	}
}

func (m *memStore) Catalog() market.CatalogStore { return &memView{m: m, st: m.state} }
func (m *memStore) Ledger() market.LedgerStore   { return &memView{m: m, st: m.state} }

func (m *memStore) WithinTx(ctx context.Context, fn func(tx market.Tx) error) error {
	m.txs.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return market.StorageErr("begin tx", err)
	}
	work := m.state.clone()
	if err := fn(&memTx{v: &memView{m: m, st: work}}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) addProduct(p market.Product) {
	m.state.products[p.ID] = p
}

func (m *memStore) addService(s market.Service) {
	m.state.services[s.ID] = s
}

func (m *memStore) product(id int64) market.Product { return m.state.products[id] }

type memTx struct{ v *memView }

func (t *memTx) Catalog() market.CatalogStore { return t.v }
func (t *memTx) Ledger() market.LedgerStore   { return t.v }

type memView struct {
	m  *memStore
	st *memState
}

func (v *memView) fail(op string) error {
	v.m.calls.Add(1)
	if err, ok := v.m.failOn[op]; ok {
		return market.StorageErr(op, err)
	}
	return nil
}

func paginate[T any](in []T, p market.Page) []T {
	if p.Limit == 0 {
		p = market.NewPage(1, 0)
	}
	if p.Offset >= len(in) {
		return []T{}
	}
	return in[p.Offset:min(len(in), p.Offset+p.Limit)]
}

func (v *memView) LockProduct(ctx context.Context, id int64) (market.Product, error) {
	return v.GetProduct(ctx, id)
}

func (v *memView) DecrementStock(_ context.Context, id int64, qty int) error {
	if err := v.fail("DecrementStock"); err != nil {
		return err
	}
	p, ok := v.st.products[id]
	if !ok {
		return market.ErrProductNotFound
	}
	if p.StockQuantity-qty < 0 {
		return market.ErrConstraint
	}
	p.StockQuantity -= qty
	v.st.products[id] = p
	return nil
}

func (v *memView) GetProduct(_ context.Context, id int64) (market.Product, error) {
	if err := v.fail("GetProduct"); err != nil {
		return market.Product{}, err
	}
	p, ok := v.st.products[id]
	if !ok {
		return market.Product{}, fmt.Errorf("%w: id %d", market.ErrProductNotFound, id)
	}
	return p, nil
}

func (v *memView) GetProductBySlug(_ context.Context, slug string) (market.Product, error) {
	for _, p := range v.st.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return market.Product{}, market.ErrProductNotFound
}

func (v *memView) ListProducts(_ context.Context, f market.ProductFilter) ([]market.Product, error) {
	var out []market.Product
	for _, p := range v.st.products {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Active != nil && p.IsActive != *f.Active {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page), nil
}

func (v *memView) UpdateProduct(_ context.Context, id int64, patch market.ProductPatch) (int64, error) {
	p, ok := v.st.products[id]
	if !ok {
		return 0, nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.CategoryID != nil {
		p.CategoryID = patch.CategoryID
	}
	if patch.Slug != nil {
		p.Slug = *patch.Slug
	}
	v.st.products[id] = p
	return 1, nil
}

func (v *memView) GetService(_ context.Context, id int64) (market.Service, error) {
	if err := v.fail("GetService"); err != nil {
		return market.Service{}, err
	}
	s, ok := v.st.services[id]
	if !ok {
		return market.Service{}, market.ErrServiceNotFound
	}
	return s, nil
}

func (v *memView) ListServices(_ context.Context, f market.ServiceFilter) ([]market.Service, error) {
	var out []market.Service
	for _, s := range v.st.services {
		if f.Active != nil && s.IsActive != *f.Active {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v *memView) UpdateService(_ context.Context, id int64, patch market.ServicePatch) (int64, error) {
	s, ok := v.st.services[id]
	if !ok {
		return 0, nil
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Price != nil {
		s.Price = *patch.Price
	}
	if patch.IsActive != nil {
		s.IsActive = *patch.IsActive
	}
	v.st.services[id] = s
	return 1, nil
}

func (v *memView) ListCategories(context.Context) ([]market.Category, error) {
	return slices.Clone(v.st.categories), nil
}

func (v *memView) CreateCategory(_ context.Context, name string) (market.Category, error) {
	for _, c := range v.st.categories {
		if c.Name == name {
			return market.Category{}, market.ErrDuplicate
		}
	}
	c := market.Category{ID: v.st.next(), Name: name}
	v.st.categories = append(v.st.categories, c)
	return c, nil
}

func (v *memView) CreateOrder(_ context.Context, o market.Order) (int64, error) {
	if err := v.fail("CreateOrder"); err != nil {
		return 0, err
	}
	o.ID = v.st.next()
	o.OrderDate = time.Now().UTC()
	v.st.orders[o.ID] = o
	return o.ID, nil
}

func (v *memView) AddOrderItem(_ context.Context, it market.OrderItem) (int64, error) {
	if err := v.fail("AddOrderItem"); err != nil {
		return 0, err
	}
	it.ID = v.st.next()
	it.ProductName = v.st.products[it.ProductID].Name
	v.st.items = append(v.st.items, it)
	return it.ID, nil
}

func (v *memView) SetOrderTotal(_ context.Context, orderID int64, total decimal.Decimal) error {
	if err := v.fail("SetOrderTotal"); err != nil {
		return err
	}
	o, ok := v.st.orders[orderID]
	if !ok {
		return market.ErrOrderNotFound
	}
	o.TotalAmount = total
	v.st.orders[orderID] = o
	return nil
}

func (v *memView) GetOrder(_ context.Context, id int64) (market.Order, error) {
	if err := v.fail("GetOrder"); err != nil {
		return market.Order{}, err
	}
	o, ok := v.st.orders[id]
	if !ok {
		return market.Order{}, market.ErrOrderNotFound
	}
	return o, nil
}

func (v *memView) ListOrderItems(_ context.Context, orderID int64) ([]market.OrderItem, error) {
	var out []market.OrderItem
	for _, it := range v.st.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (v *memView) ListOrders(_ context.Context, f market.OrderFilter) ([]market.Order, error) {
	var out []market.Order
	for _, o := range v.st.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page), nil
}

func (v *memView) UpdateOrderStatus(_ context.Context, id int64, st market.OrderStatus) (int64, error) {
	o, ok := v.st.orders[id]
	if !ok {
		return 0, nil
	}
	o.Status = st
	v.st.orders[id] = o
	return 1, nil
}

func (v *memView) CreateBooking(_ context.Context, b market.Booking) (int64, error) {
	if err := v.fail("CreateBooking"); err != nil {
		return 0, err
	}
	b.ID = v.st.next()
	b.CreatedAt = time.Now().UTC()
	v.st.bookings[b.ID] = b
	return b.ID, nil
}

func (v *memView) GetBooking(_ context.Context, id int64) (market.Booking, error) {
	b, ok := v.st.bookings[id]
	if !ok {
		return market.Booking{}, market.ErrBookingNotFound
	}
	return b, nil
}

func (v *memView) ListBookings(_ context.Context, f market.BookingFilter) ([]market.Booking, error) {
	var out []market.Booking
	for _, b := range v.st.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && string(b.Status) != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page), nil
}

func (v *memView) UpdateBookingStatus(_ context.Context, id int64, st market.BookingStatus) (int64, error) {
	b, ok := v.st.bookings[id]
	if !ok {
		return 0, nil
	}
	b.Status = st
	v.st.bookings[id] = b
	return 1, nil
}

func (v *memView) CreatePayment(_ context.Context, p market.Payment) (int64, error) {
	if err := v.fail("CreatePayment"); err != nil {
		return 0, err
	}
	p.ID = v.st.next()
	p.PaymentDate = time.Now().UTC()
	v.st.payments[p.ID] = p
	return p.ID, nil
}

func (v *memView) GetPayment(_ context.Context, id int64) (market.Payment, error) {
	p, ok := v.st.payments[id]
	if !ok {
		return market.Payment{}, market.ErrPaymentNotFound
	}
	return p, nil
}

func (v *memView) LockPayment(ctx context.Context, id int64) (market.Payment, error) {
	return v.GetPayment(ctx, id)
}

func (v *memView) ListPayments(_ context.Context, f market.PaymentFilter) ([]market.Payment, error) {
	var out []market.Payment
	for _, p := range v.st.payments {
		if f.UserID != nil && p.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && string(p.Status) != f.Status {
			continue
		}
		if f.Method != "" && string(p.Method) != f.Method {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page), nil
}

func (v *memView) UpdatePaymentStatus(_ context.Context, id int64, st market.PaymentStatus, ref *string) (int64, error) {
	if err := v.fail("UpdatePaymentStatus"); err != nil {
		return 0, err
	}
	p, ok := v.st.payments[id]
	if !ok {
		return 0, nil
	}
	p.Status = st
	if ref != nil {
		p.ProviderRef = ref
	}
	v.st.payments[id] = p
	return 1, nil
}

type published struct {
	Topic     string
	EventType string
	Key       string
	Payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(_ context.Context, topic, eventType, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Topic: topic, EventType: eventType, Key: key, Payload: payload})
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type mapCache struct {
	orders      map[int64]market.Order
	versions    map[int64]int64
	invalidated []int64
	// beforeSet runs at the start of Set, letting a test race a write
	// against a read that already loaded the order.
	beforeSet func(id int64)
}

func newMapCache() *mapCache {
	return &mapCache{orders: map[int64]market.Order{}, versions: map[int64]int64{}}
}

func (c *mapCache) Get(_ context.Context, id int64) (market.Order, bool, error) {
	o, ok := c.orders[id]
	return o, ok, nil
}

func (c *mapCache) Version(_ context.Context, id int64) (int64, error) {
	return c.versions[id], nil
}

func (c *mapCache) Set(_ context.Context, o market.Order, version int64) error {
	if c.beforeSet != nil {
		c.beforeSet(o.ID)
	}
	if c.versions[o.ID] != version {
		return nil
	}
	c.orders[o.ID] = o
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id int64) error {
	delete(c.orders, id)
	c.versions[id]++
	c.invalidated = append(c.invalidated, id)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }
