package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPending, Order{Status: OrderStatusPending}.DisplayStatus())
	assert.Equal(t, OrderStatusDelivered, Order{Status: OrderStatusConfirmed, Delivered: true}.DisplayStatus())
}
