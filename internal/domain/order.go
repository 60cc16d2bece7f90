package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCreated    OrderStatus = "created"
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusCreated,
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

type Order struct {
	ID        string      `json:"id"`
	UserID    *string     `json:"userId"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OrderItem carries the product price captured when its stock was reserved.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total is always derived from the items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type OrderRepository interface {
	// CreateOrder writes the header and all items atomically.
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case StatusCreated, StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

type CreateOrderItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID *string
	Items  []CreateOrderItemInput
}

type OrderUseCase interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

// PurchaseNotifier is told about every committed order. Notify must not block the caller.
type PurchaseNotifier interface {
	Notify(order Order)
}
