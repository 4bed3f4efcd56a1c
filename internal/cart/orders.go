package cart

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/models"
)

// Orders returns the order history, newest first.
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Store) OrdersPage(cursor string, limit int) (*models.CursorPage, error) {
	return models.PageOrders(s.Orders(), cursor, limit)
}

// SyncOrders merges the orders the order service knows into the history.
// The service's copy wins for orders it shares with the history; orders only
// the history has, such as locally placed ones, are kept.
func (s *Store) SyncOrders(ctx context.Context) error {
	if s.source == nil {
		return ErrNoOrderSource
	}

	s.op.Lock()
	defer s.op.Unlock()
	s.pending.Add(1)
	defer s.pending.Add(-1)

	orders, err := s.source.MyOrders(ctx)
	if err != nil {
		return fmt.Errorf("sync orders: %w", err)
	}

	s.mu.Lock()
	s.orders = mergeOrders(s.orders, orders)
	s.mu.Unlock()
	return nil
}

func mergeOrders(history, remote []models.Order) []models.Order {
	ids := make(map[string]bool, len(remote))
	numbers := make(map[string]bool, len(remote))
	merged := make([]models.Order, 0, len(history)+len(remote))
	for _, o := range remote {
		ids[o.ID] = true
		if o.OrderNumber != "" {
			numbers[o.OrderNumber] = true
		}
		merged = append(merged, o)
	}
	for _, o := range history {
		if ids[o.ID] || (o.OrderNumber != "" && numbers[o.OrderNumber]) {
			continue
		}
		merged = append(merged, o)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PlacedAt.After(merged[j].PlacedAt)
	})
	return merged
}

// FetchOrder looks in the history first and then asks the order service.
func (s *Store) FetchOrder(ctx context.Context, id string) (*models.Order, error) {
	for _, o := range s.Orders() {
		if o.ID == id || o.OrderNumber == id {
			return &o, nil
		}
	}

	if s.source == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}

	s.pending.Add(1)
	defer s.pending.Add(-1)

	order, err := s.source.GetOrder(ctx, id)
	if api.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", ErrOrderNotFound, id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", id, err)
	}
	return order, nil
}
