package mockapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/safar/go-storefront/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func SeedCatalog() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "Wireless Earbuds", Description: "Bluetooth 5.3 earbuds with charging case", Price: decimal.RequireFromString("1999.00"), Image: "/images/earbuds.jpg", Category: "Electronics", Stock: 25},
		{ID: "p2", Name: "Cotton Kurta", Description: "Hand-block printed cotton kurta", Price: decimal.RequireFromString("899.50"), Image: "/images/kurta.jpg", Category: "Clothing", Stock: 40},
		{ID: "p3", Name: "Masala Chai Blend", Description: "250g loose leaf tea with spices", Price: decimal.RequireFromString("349.00"), Image: "/images/chai.jpg", Category: "Grocery", Stock: 100},
		{ID: "p4", Name: "Steel Water Bottle", Description: "1L insulated bottle", Price: decimal.RequireFromString("649.00"), Image: "/images/bottle.jpg", Category: "Home", Stock: 60},
		{ID: "p5", Name: "Yoga Mat", Description: "6mm anti-slip mat", Price: decimal.RequireFromString("1199.00"), Image: "/images/yoga-mat.jpg", Category: "Sports", Stock: 15},
		{ID: "p6", Name: "Desk Lamp", Description: "LED lamp with three colour modes", Price: decimal.RequireFromString("1499.99"), Image: "/images/lamp.jpg", Category: "Home", Stock: 0},
	}
}

func (s *Server) listProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	s.mu.Lock()
	total := len(s.catalog)
	products := make([]models.Product, 0, pageSize)
	for i := (page - 1) * pageSize; i < total && len(products) < pageSize; i++ {
		products = append(products, *s.products[s.catalog[i]])
	}
	s.mu.Unlock()

	totalPages := total / pageSize
	if total%pageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, models.OffsetPage{
		Items:      products,
		Total:      int64(total),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func (s *Server) getProduct(c *gin.Context) {
	s.mu.Lock()
	p, ok := s.products[c.Param("id")]
	var out models.Product
	if ok {
		out = *p
	}
	s.mu.Unlock()

	if !ok {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, out)
}
