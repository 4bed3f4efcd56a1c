package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
)

// OrderPlacer turns an order request into a placed order.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
}

type CheckoutInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

// LocalPlacer places orders without a server, after a simulated delay.
type LocalPlacer struct {
	Latency time.Duration
	Now     func() time.Time
}

func NewLocalPlacer(latency time.Duration) *LocalPlacer {
	return &LocalPlacer{Latency: latency, Now: time.Now}
}

func (p *LocalPlacer) PlaceOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if p.Latency > 0 {
		timer := time.NewTimer(p.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	placed := now().UTC()
	paidAt := placed

	return &models.Order{
		ID:              uuid.NewString(),
		OrderNumber:     fmt.Sprintf("ORD-%d", placed.UnixNano()),
		Status:          models.OrderStatusConfirmed,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      req.ItemsPrice,
		TaxPrice:        req.TaxPrice,
		ShippingPrice:   req.ShippingPrice,
		TotalPrice:      req.TotalPrice,
		Paid:            true,
		PaidAt:          &paidAt,
		PlacedAt:        placed,
	}, nil
}

// Checkout places an order for the current lines. On success the order is
// added to the front of the history and the cart is emptied; on failure the
// cart is left as it was.
func (s *Store) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.RLock()
	lines, total := cloneLines(s.lines), s.total
	s.mu.RUnlock()

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	s.pending.Add(1)
	defer s.pending.Add(-1)

	req := orderRequest(lines, total, in)
	order, err := s.placer.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	// The order exists now; a cancelled caller must not leave the cart behind.
	if err := s.persist(context.WithoutCancel(ctx), nil); err != nil {
		return nil, fmt.Errorf("order %s placed: %w", order.ID, err)
	}

	s.mu.Lock()
	s.orders = append([]models.Order{*order}, s.orders...)
	s.lines = []models.CartLine{}
	s.total = decimal.Zero
	s.mu.Unlock()

	logger.Info("order placed", map[string]any{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.TotalPrice.String(),
	})

	out := *order
	return &out, nil
}

func orderRequest(lines []models.CartLine, total decimal.Decimal, in CheckoutInput) models.CreateOrderRequest {
	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = models.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Image:     l.ImageRef,
		}
	}

	addr := in.ShippingAddress
	if strings.TrimSpace(addr.Country) == "" {
		addr.Country = models.DefaultCountry
	}

	return models.CreateOrderRequest{
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      total,
		TaxPrice:        decimal.Zero,
		ShippingPrice:   decimal.Zero,
		TotalPrice:      total,
	}
}
