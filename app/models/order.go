package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// DefaultStatus is assigned to new orders.
const DefaultStatus = StatusConfirmed

var orderStatuses = map[string]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

// ValidStatus reports whether s is a recognized order status.
func ValidStatus(s string) bool {
	return orderStatuses[s]
}

// OrderItem is one purchased line. Price is kept as the display string the
// client sent; numeric totals are computed server-side at creation.
type OrderItem struct {
	ProductID   string   `bson:"productId" json:"productId"`
	Name        string   `bson:"name" json:"name"`
	Price       string   `bson:"price" json:"price"`
	Quantity    int      `bson:"quantity" json:"quantity"`
	Image       string   `bson:"image,omitempty" json:"image,omitempty"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Benefits    []string `bson:"benefits,omitempty" json:"benefits,omitempty"`
}

// CustomerInfo is the delivery contact block captured at checkout.
type CustomerInfo struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

// Order is a placed order. OrderNumber is unique across the collection.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         primitive.ObjectID `bson:"userId"`
	Items          []OrderItem        `bson:"items"`
	Subtotal       float64            `bson:"subtotal"`
	DeliveryCharge float64            `bson:"deliveryCharge"`
	Total          float64            `bson:"total"`
	CustomerInfo   CustomerInfo       `bson:"customerInfo"`
	Status         string             `bson:"status"`
	OrderNumber    string             `bson:"orderNumber"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// NewOrderNumber builds an order number from the current time and a
// collection sequence: "HV" + unix millis + zero-padded sequence.
func NewOrderNumber(now time.Time, seq int64) string {
	return fmt.Sprintf("HV%d%04d", now.UnixMilli(), seq)
}

// SafeOrder is the view of an order returned by the API.
type SafeOrder struct {
	ID             string       `json:"id"`
	OrderNumber    string       `json:"orderNumber"`
	Items          []OrderItem  `json:"items"`
	Subtotal       float64      `json:"subtotal"`
	DeliveryCharge float64      `json:"deliveryCharge"`
	Total          float64      `json:"total"`
	CustomerInfo   CustomerInfo `json:"customerInfo"`
	Status         string       `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Safe converts the document to its API view.
func (o *Order) Safe() SafeOrder {
	return SafeOrder{
		ID:             o.ID.Hex(),
		OrderNumber:    o.OrderNumber,
		Items:          o.Items,
		Subtotal:       o.Subtotal,
		DeliveryCharge: o.DeliveryCharge,
		Total:          o.Total,
		CustomerInfo:   o.CustomerInfo,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
