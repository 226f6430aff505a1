package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace-service/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// memState holds every table in insertion order
type memState struct {
	profiles  []model.Profile
	suppliers []model.Supplier
	products  []model.Product
	orders    []model.Order
	items     []model.OrderItem
	favorites []model.Favorite
	messages  []model.Message
}

func (s *memState) clone() *memState {
	c := &memState{
		profiles:  append([]model.Profile(nil), s.profiles...),
		suppliers: make([]model.Supplier, len(s.suppliers)),
		products:  make([]model.Product, len(s.products)),
		orders:    make([]model.Order, len(s.orders)),
		items:     make([]model.OrderItem, len(s.items)),
		favorites: append([]model.Favorite(nil), s.favorites...),
		messages:  make([]model.Message, len(s.messages)),
	}
	for i := range s.suppliers {
		c.suppliers[i] = copySupplier(s.suppliers[i])
	}
	for i := range s.products {
		c.products[i] = copyProduct(s.products[i])
	}
	for i := range s.orders {
		c.orders[i] = copyOrder(s.orders[i])
	}
	for i := range s.items {
		c.items[i] = copyItem(s.items[i])
	}
	for i := range s.messages {
		c.messages[i] = copyMessage(s.messages[i])
	}
	return c
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// MemoryRepository implements Repository in process memory. It backs the
// development mode without a database and the service tests.
type MemoryRepository struct {
	mu   sync.Locker
	st   *memState
	inTx bool
	now  func() time.Time
}

// NewMemory creates an empty in-memory repository
func NewMemory() *MemoryRepository {
	return &MemoryRepository{mu: &sync.Mutex{}, st: &memState{}, now: time.Now}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(s pq.StringArray) pq.StringArray {
	if s == nil {
		return nil
	}
	return append(pq.StringArray{}, s...)
}

func copySupplier(s model.Supplier) model.Supplier {
	s.Profile = nil
	s.DeliveryRadius = copyPtr(s.DeliveryRadius)
	s.Specializations = copyStrings(s.Specializations)
	return s
}

func copyProduct(p model.Product) model.Product {
	p.Supplier = nil
	p.AvailableQuantity = copyPtr(p.AvailableQuantity)
	p.ImageURLs = copyStrings(p.ImageURLs)
	return p
}

func copyOrder(o model.Order) model.Order {
	o.Vendor = nil
	o.Supplier = nil
	o.Items = nil
	o.ItemsTotal = nil
	o.TotalVerified = nil
	o.SupplierID = copyPtr(o.SupplierID)
	o.DeliveryDate = copyPtr(o.DeliveryDate)
	return o
}

func copyItem(i model.OrderItem) model.OrderItem {
	i.Product = nil
	i.ProductID = copyPtr(i.ProductID)
	return i
}

func copyMessage(m model.Message) model.Message {
	m.OrderID = copyPtr(m.OrderID)
	return m
}

func (m *MemoryRepository) stamp(created, updated *time.Time) {
	now := m.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func (m *MemoryRepository) CreateProfile(ctx context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.st.profiles {
		if existing.UserID == p.UserID {
			return fmt.Errorf("%w: profiles.user_id", ErrConflict)
		}
	}
	p.EnsureID()
	m.stamp(&p.CreatedAt, &p.UpdatedAt)
	m.st.profiles = append(m.st.profiles, *p)
	return nil
}

func (m *MemoryRepository) FindProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.st.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) profile(id uuid.UUID) *model.Profile {
	for i := range m.st.profiles {
		if m.st.profiles[i].ID == id {
			p := m.st.profiles[i]
			return &p
		}
	}
	return nil
}

func (m *MemoryRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.profile(id); p != nil {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.st.profiles {
		if m.st.profiles[i].ID == p.ID {
			m.stamp(nil, &p.UpdatedAt)
			m.st.profiles[i] = *p
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) FindSupplierByProfileID(ctx context.Context, profileID uuid.UUID) (*model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.st.suppliers {
		if s.ProfileID == profileID {
			c := copySupplier(s)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// supplier returns a copy of the supplier with its profile attached
func (m *MemoryRepository) supplier(id uuid.UUID) *model.Supplier {
	for _, s := range m.st.suppliers {
		if s.ID == id {
			c := copySupplier(s)
			c.Profile = m.profile(c.ProfileID)
			return &c
		}
	}
	return nil
}

func (m *MemoryRepository) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.supplier(id); s != nil {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) InsertSupplierIfAbsent(ctx context.Context, s *model.Supplier) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.st.suppliers {
		if existing.ProfileID == s.ProfileID {
			return false, nil
		}
	}
	s.EnsureID()
	m.stamp(&s.CreatedAt, &s.UpdatedAt)
	m.st.suppliers = append(m.st.suppliers, copySupplier(*s))
	return true, nil
}

func (m *MemoryRepository) ListSuppliers(ctx context.Context, filter SupplierFilter) ([]model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	suppliers := make([]model.Supplier, 0, len(m.st.suppliers))
	for _, s := range m.st.suppliers {
		c := copySupplier(s)
		c.Profile = m.profile(c.ProfileID)
		if needle != "" && !strings.Contains(c.SearchText(), needle) {
			continue
		}
		suppliers = append(suppliers, c)
	}
	sort.SliceStable(suppliers, func(i, j int) bool {
		return suppliers[i].Rating.GreaterThan(suppliers[j].Rating)
	})
	if filter.Limit > 0 && len(suppliers) > filter.Limit {
		suppliers = suppliers[:filter.Limit]
	}
	return suppliers, nil
}

func (m *MemoryRepository) IncrementSupplierOrders(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.st.suppliers {
		if m.st.suppliers[i].ID == id {
			m.st.suppliers[i].TotalOrders++
			m.st.suppliers[i].UpdatedAt = m.now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.EnsureID()
	for _, existing := range m.st.products {
		if existing.ID == p.ID {
			return fmt.Errorf("%w: products.id", ErrConflict)
		}
	}
	m.stamp(&p.CreatedAt, &p.UpdatedAt)
	m.st.products = append(m.st.products, copyProduct(*p))
	return nil
}

func (m *MemoryRepository) SaveProduct(ctx context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.st.products {
		if m.st.products[i].ID == p.ID {
			m.stamp(nil, &p.UpdatedAt)
			m.st.products[i] = copyProduct(*p)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) product(id uuid.UUID) *model.Product {
	for _, p := range m.st.products {
		if p.ID == id {
			c := copyProduct(p)
			return &c
		}
	}
	return nil
}

func (m *MemoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.product(id); p != nil {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var products []model.Product
	for i := len(m.st.products) - 1; i >= 0; i-- {
		p := m.st.products[i]
		if filter.SupplierID != nil && p.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		products = append(products, copyProduct(p))
	}
	return products, nil
}

func (m *MemoryRepository) FindProductByName(ctx context.Context, name string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.st.products {
		if p.Name == name {
			c := copyProduct(p)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.st.orders {
		if existing.OrderNumber == o.OrderNumber {
			return fmt.Errorf("%w: orders.order_number", ErrConflict)
		}
	}
	o.EnsureID()
	m.stamp(&o.CreatedAt, &o.UpdatedAt)
	m.st.orders = append(m.st.orders, copyOrder(*o))
	return nil
}

func (m *MemoryRepository) CreateOrderItem(ctx context.Context, item *model.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, o := range m.st.orders {
		if o.ID == item.OrderID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("order %s: %w", item.OrderID, ErrNotFound)
	}
	item.EnsureID()
	m.stamp(&item.CreatedAt, nil)
	m.st.items = append(m.st.items, copyItem(*item))
	return nil
}

// orderGraph attaches the associations GetOrder and ListOrders preload
func (m *MemoryRepository) orderGraph(o model.Order) model.Order {
	c := copyOrder(o)
	c.Vendor = m.profile(c.VendorID)
	if c.SupplierID != nil {
		c.Supplier = m.supplier(*c.SupplierID)
	}
	for _, item := range m.st.items {
		if item.OrderID != c.ID {
			continue
		}
		ic := copyItem(item)
		if ic.ProductID != nil {
			ic.Product = m.product(*ic.ProductID)
		}
		c.Items = append(c.Items, ic)
	}
	sort.SliceStable(c.Items, func(i, j int) bool { return c.Items[i].Position < c.Items[j].Position })
	return c
}

func (m *MemoryRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.st.orders {
		if o.ID == id {
			c := m.orderGraph(o)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []model.Order
	for i := len(m.st.orders) - 1; i >= 0; i-- {
		o := m.st.orders[i]
		if filter.VendorID != nil && o.VendorID != *filter.VendorID {
			continue
		}
		if filter.SupplierID != nil && (o.SupplierID == nil || *o.SupplierID != *filter.SupplierID) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		orders = append(orders, m.orderGraph(o))
		if filter.Limit > 0 && len(orders) == filter.Limit {
			break
		}
	}
	return orders, nil
}

func (m *MemoryRepository) TransitionOrder(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.st.orders {
		o := &m.st.orders[i]
		if o.ID != id {
			continue
		}
		if o.Status != from {
			return false, nil
		}
		o.Status = to
		o.UpdatedAt = at
		return true, nil
	}
	return false, nil
}

func (m *MemoryRepository) SupplierStats(ctx context.Context, supplierID uuid.UUID) (SupplierStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := SupplierStats{ConfirmedRevenue: decimal.Zero}
	for _, o := range m.st.orders {
		if o.SupplierID == nil || *o.SupplierID != supplierID {
			continue
		}
		stats.TotalOrders++
		if o.Status == model.OrderStatusConfirmed {
			stats.ConfirmedRevenue = stats.ConfirmedRevenue.Add(o.TotalAmount)
		}
	}
	for _, p := range m.st.products {
		if p.SupplierID == supplierID && p.IsActive {
			stats.ActiveProducts++
		}
	}
	return stats, nil
}

func (m *MemoryRepository) AddFavorite(ctx context.Context, f *model.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.st.favorites {
		if existing.VendorID == f.VendorID && existing.SupplierID == f.SupplierID {
			return fmt.Errorf("%w: idx_favorite_vendor_supplier", ErrConflict)
		}
	}
	f.EnsureID()
	m.stamp(&f.CreatedAt, nil)
	stored := *f
	stored.Supplier = nil
	m.st.favorites = append(m.st.favorites, stored)
	return nil
}

func (m *MemoryRepository) ListFavorites(ctx context.Context, vendorID uuid.UUID) ([]model.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var favorites []model.Favorite
	for i := len(m.st.favorites) - 1; i >= 0; i-- {
		f := m.st.favorites[i]
		if f.VendorID != vendorID {
			continue
		}
		f.Supplier = m.supplier(f.SupplierID)
		favorites = append(favorites, f)
	}
	return favorites, nil
}

func (m *MemoryRepository) DeleteFavorite(ctx context.Context, vendorID, supplierID uuid.UUID) (*model.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.st.favorites {
		if f.VendorID == vendorID && f.SupplierID == supplierID {
			m.st.favorites = append(m.st.favorites[:i:i], m.st.favorites[i+1:]...)
			return &f, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.EnsureID()
	m.stamp(&msg.CreatedAt, nil)
	m.st.messages = append(m.st.messages, copyMessage(*msg))
	return nil
}

func (m *MemoryRepository) ListMessages(ctx context.Context, profileID uuid.UUID, orderID *uuid.UUID) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages []model.Message
	for _, msg := range m.st.messages {
		if msg.SenderID != profileID && msg.ReceiverID != profileID {
			continue
		}
		if orderID != nil && (msg.OrderID == nil || *msg.OrderID != *orderID) {
			continue
		}
		messages = append(messages, copyMessage(msg))
	}
	return messages, nil
}

func (m *MemoryRepository) MarkMessageRead(ctx context.Context, id, receiverID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.st.messages {
		if m.st.messages[i].ID == id && m.st.messages[i].ReceiverID == receiverID {
			m.st.messages[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

// Transaction runs fn against a private copy of the state and publishes the
// copy only when fn succeeds. Transactions are serialized with every other
// call on the repository.
func (m *MemoryRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.st.clone()
	tx := &MemoryRepository{mu: noopLocker{}, st: work, inTx: true, now: m.now}
	if err := fn(tx); err != nil {
		return err
	}
	*m.st = *work
	return nil
}
