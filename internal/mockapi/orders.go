package mockapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
)

func generateOrderNumber(nanos int64) string {
	return fmt.Sprintf("ORD-%d", nanos)
}

// createOrder prices the order from the catalog, not from the request, and
// reserves stock for every item or for none.
func (s *Server) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid order body")
		return
	}
	if len(req.Items) == 0 {
		fail(c, http.StatusBadRequest, "No order items")
		return
	}
	addr := req.ShippingAddress
	if strings.TrimSpace(addr.Address) == "" || strings.TrimSpace(addr.City) == "" || strings.TrimSpace(addr.PostalCode) == "" {
		fail(c, http.StatusBadRequest, "Shipping address is incomplete")
		return
	}
	if strings.TrimSpace(addr.Country) == "" {
		addr.Country = models.DefaultCountry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	itemsPrice := decimal.Zero
	items := make([]models.OrderItem, len(req.Items))
	wanted := make(map[string]int)
	for i, it := range req.Items {
		p, ok := s.products[it.ProductID]
		if !ok {
			fail(c, http.StatusNotFound, "Product not found: "+it.ProductID)
			return
		}
		if it.Quantity <= 0 {
			fail(c, http.StatusBadRequest, "Invalid quantity for "+p.Name)
			return
		}
		wanted[p.ID] += it.Quantity
		if p.Stock < wanted[p.ID] {
			fail(c, http.StatusConflict, "Insufficient stock for "+p.Name)
			return
		}
		items[i] = models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Image:     p.Image,
		}
		itemsPrice = itemsPrice.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	for id, qty := range wanted {
		s.products[id].Stock -= qty
	}

	now := s.now().UTC()
	order := models.Order{
		ID:              uuid.NewString(),
		OrderNumber:     generateOrderNumber(now.UnixNano()),
		Status:          models.OrderStatusPending,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      itemsPrice,
		TaxPrice:        decimal.Zero,
		ShippingPrice:   decimal.Zero,
		TotalPrice:      itemsPrice,
		PlacedAt:        now,
	}
	if !strings.EqualFold(req.PaymentMethod, "cod") {
		order.Paid = true
		order.PaidAt = &now
		order.Status = models.OrderStatusConfirmed
	}

	userID := c.GetString(ctxUserIDKey)
	s.orders[order.ID] = &ownedOrder{userID: userID, order: order}

	logger.Info("mock order created", map[string]any{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalPrice.String(),
	})
	c.JSON(http.StatusCreated, order)
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	o, ok := s.orders[c.Param("id")]
	var out models.Order
	if ok {
		out = o.order
		ok = o.userID == c.GetString(ctxUserIDKey)
	}
	s.mu.Unlock()

	if !ok {
		fail(c, http.StatusNotFound, "Order not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) myOrders(c *gin.Context) {
	userID := c.GetString(ctxUserIDKey)

	s.mu.Lock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.userID == userID {
			out = append(out, o.order)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	c.JSON(http.StatusOK, out)
}
