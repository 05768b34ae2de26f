package models

import (
	"time"
)

// ShippingAddress is embedded in the 'orders' row as flat columns.
type ShippingAddress struct {
	Street  string `json:"street" db:"street"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	Zip     string `json:"zip" db:"zip"`
	Country string `json:"country" db:"country"`
}

// OrderItemBook is the live book reference expanded onto an order item
// (title/author/image come from the current books row, not a snapshot).
type OrderItemBook struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
}

// OrderItem is the model for the 'order_items' table.
// Price is the per-unit price snapshotted at purchase time.
type OrderItem struct {
	ID       int64         `json:"id" db:"id"`
	OrderID  int64         `json:"-" db:"order_id"`
	Book     OrderItemBook `json:"book"`
	Quantity int           `json:"quantity" db:"quantity"`
	Price    float64       `json:"price" db:"unit_price"`
}

// Order is the model for the 'orders' table.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	OrderNumber     string          `json:"orderNumber" db:"order_number"`
	UserID          int64           `json:"userId" db:"user_id"`
	Items           []OrderItem     `json:"items" db:"-"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"` // card, paypal, cash-on-delivery
	TotalAmount     float64         `json:"totalAmount" db:"total_amount"`
	Status          string          `json:"status" db:"status"` // pending, processing, shipped, delivered, cancelled
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}
