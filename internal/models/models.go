package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// AuthResult is what the authentication collaborator returns on login and
// registration. Token is empty when the account must log in manually.
type AuthResult struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock,omitempty"`
}

// CartLine is one product entry in the cart. The JSON shape is the persisted
// cartItems format.
type CartLine struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	Status          string          `json:"status"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Paid            bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	Delivered       bool            `json:"isDelivered"`
	PlacedAt        time.Time       `json:"createdAt"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
)

// DisplayStatus reports delivered orders as delivered whatever their status
// field still says.
func (o Order) DisplayStatus() string {
	if o.Delivered {
		return OrderStatusDelivered
	}
	return o.Status
}

const DefaultCountry = "India"
