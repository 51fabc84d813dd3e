package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user. Emails are unique, mirroring the database index.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrRecordNotFound)
}

// GetByID returns a user by ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrRecordNotFound)
	}
	return &u, nil
}

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns one page of products, newest first.
func (r *MemoryProductRepository) List(_ context.Context, q ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if q.Category == "" || p.Category == q.Category {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if q.Offset < 0 {
		return nil, 0, fmt.Errorf("negative offset %d", q.Offset)
	}
	if q.Offset >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], total, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrRecordNotFound)
	}
	return &p, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrRecordNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) lookup(id string) *models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil
	}
	return &p
}

// MemoryCartRepository is an in-memory implementation of CartRepository. It
// joins products from the product repository it was built with.
type MemoryCartRepository struct {
	items    map[string]models.CartItem
	products *MemoryProductRepository
	mu       sync.RWMutex
}

// NewMemoryCartRepository creates a new instance of MemoryCartRepository.
func NewMemoryCartRepository(products *MemoryProductRepository) *MemoryCartRepository {
	return &MemoryCartRepository{
		items:    make(map[string]models.CartItem),
		products: products,
	}
}

// ListUnlinked returns the user's cart, newest item first.
func (r *MemoryCartRepository) ListUnlinked(_ context.Context, userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.unlinkedLocked(userID), nil
}

// unlinkedLocked expects r.mu to be held.
func (r *MemoryCartRepository) unlinkedLocked(userID string) []models.CartItem {
	items := make([]models.CartItem, 0)
	for _, it := range r.items {
		if it.UserID == userID && !it.Linked() {
			it.Product = r.products.lookup(it.ProductID)
			items = append(items, it)
		}
	}
	sortNewestFirst(items)
	return items
}

// AddItem merges item into a matching unlinked row or inserts it.
func (r *MemoryCartRepository) AddItem(_ context.Context, item *models.CartItem, matchVariant bool) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing *models.CartItem
	for id, it := range r.items {
		if it.UserID != item.UserID || it.ProductID != item.ProductID || it.Linked() {
			continue
		}
		if matchVariant && !it.SameVariant(item.SelectedSize, item.SelectedColor) {
			continue
		}
		if existing == nil || it.CreatedAt.Before(existing.CreatedAt) {
			cp := r.items[id]
			existing = &cp
		}
	}

	now := time.Now()
	if existing != nil {
		if item.Quantity > models.MaxCartItemQuantity-existing.Quantity {
			return nil, fmt.Errorf("%w: cart item %s", ErrQuantityLimit, existing.ID)
		}
		existing.Quantity += item.Quantity
		existing.UpdatedAt = now
		r.items[existing.ID] = *existing
		return existing, nil
	}

	if item.Quantity > models.MaxCartItemQuantity {
		return nil, ErrQuantityLimit
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt, item.UpdatedAt = now, now
	stored := *item
	stored.Product = nil
	r.items[item.ID] = stored
	return &stored, nil
}

// UpdateQuantity sets the quantity of an unlinked item owned by userID.
func (r *MemoryCartRepository) UpdateQuantity(_ context.Context, userID, itemID string, quantity int) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemID]
	if !ok || it.UserID != userID || it.Linked() {
		return nil, fmt.Errorf("cart item %s: %w", itemID, ErrRecordNotFound)
	}
	it.Quantity = quantity
	it.UpdatedAt = time.Now()
	r.items[itemID] = it
	return &it, nil
}

// Delete removes an unlinked item owned by userID.
func (r *MemoryCartRepository) Delete(_ context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemID]
	if !ok || it.UserID != userID || it.Linked() {
		return fmt.Errorf("cart item %s: %w", itemID, ErrRecordNotFound)
	}
	delete(r.items, itemID)
	return nil
}

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
// Checkout holds the cart lock for its whole duration.
type MemoryOrderRepository struct {
	orders map[string]models.Order
	carts  *MemoryCartRepository
	mu     sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository(carts *MemoryCartRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]models.Order),
		carts:  carts,
	}
}

// CreateFromCart builds and stores an order from the user's unlinked items.
func (r *MemoryOrderRepository) CreateFromCart(_ context.Context, userID string, build OrderBuilder) (*models.Order, error) {
	r.carts.mu.Lock()
	defer r.carts.mu.Unlock()

	items := r.carts.unlinkedLocked(userID)
	order, err := build(items)
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.UserID = userID
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now

	orderID := order.ID
	for i := range items {
		items[i].OrderID = &orderID
		if items[i].Product != nil {
			items[i].UnitPrice.Decimal = items[i].Product.Price
			items[i].UnitPrice.Valid = true
		}
		items[i].UpdatedAt = now
		stored := items[i]
		stored.Product = nil
		r.carts.items[stored.ID] = stored
	}

	r.mu.Lock()
	stored := *order
	stored.Items = nil
	r.orders[order.ID] = stored
	r.mu.Unlock()

	order.Items = items
	return order, nil
}

// ListByUser returns the user's orders, newest first, without items.
func (r *MemoryOrderRepository) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// GetByID returns an order with its linked items.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	order, ok := r.orders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrRecordNotFound)
	}

	r.carts.mu.RLock()
	defer r.carts.mu.RUnlock()
	for _, it := range r.carts.items {
		if it.OrderID != nil && *it.OrderID == id {
			it.Product = r.carts.products.lookup(it.ProductID)
			order.Items = append(order.Items, it)
		}
	}
	sortNewestFirst(order.Items)
	return &order, nil
}

// UpdateStatus moves the order to status to if it is still in status from.
func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrRecordNotFound)
	}
	if order.Status != from {
		return fmt.Errorf("order %s is no longer %s: %w", id, from, ErrConflict)
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

func sortNewestFirst(items []models.CartItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
