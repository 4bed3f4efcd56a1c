package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/safar/go-storefront/internal/models"
)

// PlaceOrder posts the order to the API. It satisfies cart.OrderPlacer.
func (c *Client) PlaceOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/orders",
		body:   req,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/orders/" + url.PathEscape(id),
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/orders/me",
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
