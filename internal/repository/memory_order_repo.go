package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type memoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	log    *logrus.Logger
}

func NewMemoryOrderRepository(logger *logrus.Logger) domain.OrderRepository {
	return &memoryOrderRepository{
		orders: make(map[string]*domain.Order),
		log:    logger,
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem{}, o.Items...)
	if o.UserID != nil {
		userID := *o.UserID
		c.UserID = &userID
	}
	return &c
}

func (r *memoryOrderRepository) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return nil, fmt.Errorf("order with id %s: %w", order.ID, domain.ErrConflict)
	}
	r.orders[order.ID] = cloneOrder(order)
	r.log.Infof("Repository: Order %s created with %d items", order.ID, len(order.Items))
	return cloneOrder(order), nil
}

func (r *memoryOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		r.log.Warnf("Repository: Order with ID %s not found", id)
		return nil, fmt.Errorf("order with id %s: %w", id, domain.ErrNotFound)
	}
	return cloneOrder(order), nil
}

func (r *memoryOrderRepository) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		r.log.Warnf("Repository: Order with ID %s not found for status update", id)
		return nil, fmt.Errorf("order with id %s: %w", id, domain.ErrNotFound)
	}
	order.Status = status
	r.log.Infof("Repository: Order %s status set to '%s'", id, status)
	return cloneOrder(order), nil
}

func (r *memoryOrderRepository) ListOrders(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	orders := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, *cloneOrder(o))
	}
	r.mu.RUnlock()

	sortOrdersNewestFirst(orders)
	return orders, nil
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}
