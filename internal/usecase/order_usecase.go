package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

var _ domain.OrderUseCase = (*orderUseCase)(nil)

type orderUseCase struct {
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	notifier    domain.PurchaseNotifier
	log         *logrus.Logger
	now         func() time.Time
}

// NewOrderUseCase wires the saga. notifier may be nil when no purchase side effect is configured.
func NewOrderUseCase(orderRepo domain.OrderRepository, productRepo domain.ProductRepository, notifier domain.PurchaseNotifier, logger *logrus.Logger) domain.OrderUseCase {
	return &orderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifier:    notifier,
		log:         logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// reservation is one stock decrement that has to be undone if the saga fails.
type reservation struct {
	productID string
	quantity  int
}

func validateOrderInput(input domain.CreateOrderInput) error {
	if len(input.Items) == 0 {
		return fmt.Errorf("order must contain at least one item: %w", domain.ErrValidation)
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("item %d: product id is required: %w", i, domain.ErrValidation)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d (product %s): quantity must be positive: %w", i, item.ProductID, domain.ErrValidation)
		}
	}
	return nil
}

// customerID treats a missing or blank user id as an anonymous order.
func customerID(userID *string) *string {
	if userID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*userID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.Order, error) {
	if err := validateOrderInput(input); err != nil {
		uc.log.Warnf("Use Case: Rejected order: %v", err)
		return nil, err
	}

	order := &domain.Order{
		ID:     uuid.NewString(),
		UserID: customerID(input.UserID),
		Status: domain.StatusCreated,
		Items:  make([]domain.OrderItem, 0, len(input.Items)),
	}
	uc.log.Infof("Use Case: Starting stock reservation for order %s (%d items)", order.ID, len(input.Items))

	reserved := make([]reservation, 0, len(input.Items))
	for _, item := range input.Items {
		productID := strings.TrimSpace(item.ProductID)
		product, err := uc.productRepo.ReserveStock(ctx, productID, item.Quantity)
		if err != nil {
			uc.log.Warnf("Use Case: Reservation failed for product %s (quantity %d): %v. Rolling back...", productID, item.Quantity, err)
			uc.compensate(ctx, order.ID, reserved)
			return nil, fmt.Errorf("failed to reserve stock for product %s: %w", productID, err)
		}
		reserved = append(reserved, reservation{productID: productID, quantity: item.Quantity})
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		uc.log.Debugf("Use Case: Reserved %d of product %s, %d left", item.Quantity, productID, product.Stock)
	}

	order.CreatedAt = uc.now()
	created, err := uc.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to save order %s after reserving stock: %v. Rolling back...", order.ID, err)
		uc.compensate(ctx, order.ID, reserved)
		return nil, fmt.Errorf("failed to save order after reserving stock: %w", err)
	}
	uc.log.Infof("Use Case: Order %s created with total %s", created.ID, created.Total().StringFixed(2))

	if uc.notifier != nil {
		uc.notifier.Notify(*created)
	}
	return created, nil
}

// compensate releases every reservation. A failed release is logged and the rest are still attempted.
func (uc *orderUseCase) compensate(ctx context.Context, orderID string, reserved []reservation) {
	for _, r := range reserved {
		if _, err := uc.productRepo.ReleaseStock(ctx, r.productID, r.quantity); err != nil {
			uc.log.Errorf("Use Case: CRITICAL! Failed to release %d of product %s for order %s: %v. Manual intervention required!", r.quantity, r.productID, orderID, err)
			continue
		}
		uc.log.Warnf("Use Case: Released %d of product %s for order %s", r.quantity, r.productID, orderID)
	}
}

func (uc *orderUseCase) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("order id is required: %w", domain.ErrValidation)
	}
	return uc.orderRepo.GetOrderByID(ctx, id)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.IsValidStatus(status) {
		uc.log.Warnf("Use Case: Invalid status %q for order %s", status, id)
		return nil, fmt.Errorf("invalid order status %q: %w", status, domain.ErrValidation)
	}

	updated, err := uc.orderRepo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	uc.log.Infof("Use Case: Order %s moved to status %s", id, status)
	return updated, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := uc.orderRepo.ListOrders(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list orders: %v", err)
		return nil, err
	}
	return orders, nil
}
