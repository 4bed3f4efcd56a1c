// Package cart holds the shopping cart and the orders placed from it.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/storage"
)

// OrderSource reads orders already placed. *api.Client implements it.
type OrderSource interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MyOrders(ctx context.Context) ([]models.Order, error)
}

type Option func(*Store)

func WithPlacer(p OrderPlacer) Option {
	return func(s *Store) { s.placer = p }
}

func WithOrderSource(src OrderSource) Option {
	return func(s *Store) { s.source = src }
}

// Store is the cart container. Every mutation writes the full line list to
// the cartItems key before it returns.
type Store struct {
	slot   *storage.Slot[[]models.CartLine]
	placer OrderPlacer
	source OrderSource

	op      sync.Mutex
	pending atomic.Int32

	mu     sync.RWMutex
	lines  []models.CartLine
	total  decimal.Decimal
	orders []models.Order
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		slot:   storage.NewSlot[[]models.CartLine](kv, storage.KeyCartItems),
		placer: NewLocalPlacer(0),
		total:  decimal.Zero,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory cart with the persisted one. A missing or
// malformed snapshot means an empty cart. The total is always recomputed.
func (s *Store) Load(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	lines, _, err := s.slot.Load(ctx)
	if errors.Is(err, storage.ErrCorrupt) {
		logger.Warn("discarding malformed cart snapshot", map[string]any{
			"key":   s.slot.Key(),
			"error": err.Error(),
		})
		lines, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	s.swap(sanitize(lines))
	logger.Debug("cart loaded", map[string]any{"lines": len(lines)})
	return nil
}

func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// ItemCount is the sum of quantities over all lines.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Pending() bool {
	return s.pending.Load() > 0
}

// AddItem adds quantity units of product. A negative quantity decrements an
// existing line; a line that drops to zero or below is removed. Adding a
// non-positive quantity of a product not in the cart does nothing.
func (s *Store) AddItem(ctx context.Context, product models.Product, quantity int) error {
	if product.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProduct)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: negative price for %s", ErrInvalidProduct, product.ID)
	}

	s.op.Lock()
	defer s.op.Unlock()

	lines := s.Lines()
	i := indexOf(lines, product.ID)
	switch {
	case i < 0 && quantity <= 0:
		return nil
	case i < 0:
		lines = append(lines, models.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
			ImageRef:  product.Image,
		})
	case quantity > 0 && lines[i].Quantity > math.MaxInt-quantity:
		return fmt.Errorf("%w: %s", ErrQuantityLimit, product.ID)
	case lines[i].Quantity+quantity <= 0:
		lines = append(lines[:i], lines[i+1:]...)
	default:
		lines[i].Quantity += quantity
	}

	return s.commit(ctx, lines)
}

func (s *Store) AddOne(ctx context.Context, product models.Product) error {
	return s.AddItem(ctx, product, 1)
}

// RemoveItem deletes the line for productID. A missing line is not an error.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.op.Lock()
	defer s.op.Unlock()

	lines := s.Lines()
	i := indexOf(lines, productID)
	if i < 0 {
		return nil
	}
	return s.commit(ctx, append(lines[:i], lines[i+1:]...))
}

// UpdateQuantity sets the line's quantity to exactly quantity, removing it
// when quantity is not positive. Unknown product ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	s.op.Lock()
	defer s.op.Unlock()

	lines := s.Lines()
	i := indexOf(lines, productID)
	if i < 0 {
		return nil
	}
	if quantity <= 0 {
		lines = append(lines[:i], lines[i+1:]...)
	} else {
		lines[i].Quantity = quantity
	}
	return s.commit(ctx, lines)
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	return s.commit(ctx, nil)
}

// commit persists lines and then makes them current. Callers hold s.op.
func (s *Store) commit(ctx context.Context, lines []models.CartLine) error {
	if err := s.persist(ctx, lines); err != nil {
		return err
	}
	s.swap(lines)
	return nil
}

func (s *Store) persist(ctx context.Context, lines []models.CartLine) error {
	var err error
	if len(lines) == 0 {
		err = s.slot.Clear(ctx)
	} else {
		err = s.slot.Save(ctx, lines)
	}
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) swap(lines []models.CartLine) {
	total := Total(lines)
	s.mu.Lock()
	s.lines = cloneLines(lines)
	s.total = total
	s.mu.Unlock()
}

// Total sums unit price times quantity over lines.
func Total(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// sanitize drops lines a well-behaved store could not have written: empty
// ids, non-positive quantities and repeated ids (merged into the first).
func sanitize(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			continue
		}
		if i := indexOf(out, l.ProductID); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}

func indexOf(lines []models.CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	if len(lines) == 0 {
		return []models.CartLine{}
	}
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
