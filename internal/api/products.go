package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/safar/go-storefront/internal/models"
)

func (c *Client) ListProducts(ctx context.Context, page, pageSize int) (*models.OffsetPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	path := "/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.OffsetPage
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var out models.Product
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/products/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
